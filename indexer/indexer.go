package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/calehh/hac-gov/governance"
	gov_types "github.com/calehh/hac-gov/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// BlockSource is the part of a node the indexer reads from.
type BlockSource interface {
	LatestHeight(ctx context.Context) (int64, error)
	BlockEvents(ctx context.Context, height int64) ([]abci.Event, error)
}

type rpcSource struct {
	url string
	cli *comethttp.HTTP
}

func NewRPCSource(url string) (BlockSource, error) {
	cli, err := comethttp.New(url, "/websocket")
	if err != nil {
		return nil, err
	}
	return &rpcSource{url: url, cli: cli}, nil
}

func (s *rpcSource) LatestHeight(ctx context.Context) (int64, error) {
	b, err := s.cli.Status(ctx)
	if err != nil {
		return 0, err
	}
	return b.SyncInfo.LatestBlockHeight, nil
}

// BlockEvents returns the events of the successful txs of a block.
func (s *rpcSource) BlockEvents(ctx context.Context, height int64) ([]abci.Event, error) {
	res, err := s.cli.BlockResults(ctx, &height)
	if err != nil {
		return nil, err
	}
	events := make([]abci.Event, 0)
	for _, r := range res.TxsResults {
		if r == nil || r.Code != 0 {
			continue
		}
		events = append(events, r.Events...)
	}
	return events, nil
}

type ChainIndexer struct {
	logger   cmtlog.Logger
	Height   int64
	db       *gorm.DB
	src      BlockSource
	interval time.Duration

	eventHandlers map[string]eventHandler
}

func NewChainIndexer(logger cmtlog.Logger, dbPath string, src BlockSource, interval time.Duration) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath)
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Proposal{}, &Height{}, &ProposalVote{}).Error; err != nil {
		db.Close()
		return nil, err
	}
	h := Height{Id: 1}
	if err = db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		db.Close()
		return nil, err
	}
	if interval <= 0 {
		interval = time.Second
	}

	c := &ChainIndexer{
		logger:   logger.With("module", "indexer"),
		Height:   int64(h.Height + 1),
		db:       db,
		src:      src,
		interval: interval,
	}
	c.eventHandlers = map[string]eventHandler{
		gov_types.EventCreateProposalType:   c.handleEventCreateProposal,
		gov_types.EventVoteType:             c.handleEventVote,
		gov_types.EventFinalizeProposalType: c.handleEventFinalizeProposal,
	}
	return c, nil
}

func (c *ChainIndexer) Close() error {
	return c.db.Close()
}

type eventHandler func(tx *gorm.DB, event abci.Event, height int64) error

func (c *ChainIndexer) handleEvent(tx *gorm.DB, event abci.Event, height int64) error {
	if h, ok := c.eventHandlers[event.Type]; ok {
		return h(tx, event, height)
	}
	return nil
}

func (c *ChainIndexer) handleEventCreateProposal(tx *gorm.DB, event abci.Event, height int64) error {
	ev := gov_types.DecodeEventCreateProposal(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	var proposal Proposal
	err := tx.Where("proposal_id = ?", ev.Proposal).First(&proposal).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	proposal = Proposal{
		ProposalId:   ev.Proposal,
		Creator:      ev.Creator,
		Description:  ev.Description,
		Status:       governance.StatusActive.String(),
		CreateHeight: uint64(height),
	}
	return tx.Create(&proposal).Error
}

func (c *ChainIndexer) handleEventVote(tx *gorm.DB, event abci.Event, height int64) error {
	ev := gov_types.DecodeEventVote(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	var vote ProposalVote
	err := tx.Where("proposal_id = ? AND voter = ?", ev.Proposal, ev.Voter).First(&vote).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	vote = ProposalVote{
		ProposalId: ev.Proposal,
		Voter:      ev.Voter,
		Yes:        ev.Yes,
		Height:     uint64(height),
	}
	if err = tx.Create(&vote).Error; err != nil {
		return err
	}
	return tx.Model(&Proposal{}).Where("proposal_id = ?", ev.Proposal).Updates(map[string]interface{}{
		"yes_votes": ev.YesVotes,
		"no_votes":  ev.NoVotes,
	}).Error
}

func (c *ChainIndexer) handleEventFinalizeProposal(tx *gorm.DB, event abci.Event, height int64) error {
	ev := gov_types.DecodeEventFinalizeProposal(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	return tx.Model(&Proposal{}).Where("proposal_id = ?", ev.Proposal).Updates(map[string]interface{}{
		"yes_votes":       ev.YesVotes,
		"no_votes":        ev.NoVotes,
		"status":          ev.Status.String(),
		"finalize_height": uint64(height),
	}).Error
}

// indexBlock stores the events of one block and the new height in a single
// transaction.
func (c *ChainIndexer) indexBlock(height int64, events []abci.Event) (err error) {
	tx := c.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	for _, event := range events {
		if err = c.handleEvent(tx, event, height); err != nil {
			return fmt.Errorf("index %s at height %d: %w", event.Type, height, err)
		}
	}
	if err = tx.Save(&Height{Id: 1, Height: uint64(height)}).Error; err != nil {
		return err
	}
	return tx.Commit().Error
}

// Sync indexes every block up to the latest height of the source.
func (c *ChainIndexer) Sync(ctx context.Context) error {
	latest, err := c.src.LatestHeight(ctx)
	if err != nil {
		return err
	}
	for latest >= c.Height {
		if err = ctx.Err(); err != nil {
			return err
		}
		events, err := c.src.BlockEvents(ctx, c.Height)
		if err != nil {
			return err
		}
		if err = c.indexBlock(c.Height, events); err != nil {
			return err
		}
		c.logger.Debug("indexed block", "height", c.Height, "events", len(events))
		c.Height++
	}
	return nil
}

func (c *ChainIndexer) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Sync(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Error("indexer sync fail", "height", c.Height, "err", err)
			}
		}
	}
}

func (c *ChainIndexer) getProposals(creator string, status string, page int, pageSize int) ([]Proposal, uint64, error) {
	query := c.db.Model(&Proposal{})
	if creator != "" {
		query = query.Where("creator = ?", creator)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var total uint64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	proposals := make([]Proposal, 0)
	err := query.Order("proposal_id desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getProposalById(proposalId uint64) (Proposal, error) {
	var proposal Proposal
	err := c.db.Where("proposal_id = ?", proposalId).First(&proposal).Error
	if err != nil {
		return Proposal{}, err
	}
	return proposal, nil
}

func (c *ChainIndexer) getVotesByProposal(proposalId uint64, page int, pageSize int) ([]ProposalVote, uint64, error) {
	var total uint64
	err := c.db.Model(&ProposalVote{}).Where("proposal_id = ?", proposalId).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	votes := make([]ProposalVote, 0)
	err = c.db.Where("proposal_id = ?", proposalId).Order("id asc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	if err != nil {
		return nil, 0, err
	}
	return votes, total, nil
}
