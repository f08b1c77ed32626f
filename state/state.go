package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/calehh/hac-gov/governance"
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/types"
	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	StartAccountIdx = 1

	ModifiedFlagNew = 1 << 0
	ModifiedFlagMod = 1 << 1
)

var (
	KeyState          = "s"
	KeyAccountIndex   = "i/%s"
	KeyAccountBody    = "a/%016x"
	KeyProposalNext   = "n/proposal"
	KeyProposalBody   = "p/%016x"
	KeyProposalPrefix = "p/"
	KeyVoteBody       = "v/%016x/%s"
	KeyVotePrefix     = "v/"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrTxNonceInvalid       = errors.New("nonce invalid")
	ErrTxSigInvalid         = errors.New("signature invalid")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrAccountNoexists      = errors.New("account noexists")
	ErrInvalidPubKey        = errors.New("invalid pubkey")
	ErrCorruptedKey         = errors.New("corrupted state key")
)

// StateHeader is the persisted summary of a committed state.
type StateHeader struct {
	ChainId    string
	Height     uint64
	AccountIdx uint64
	RootHash   []byte
	Hash       []byte
}

func (h *StateHeader) GetHash() []byte {
	if h == nil {
		return nil
	}
	return h.Hash
}

func (h *StateHeader) clone() *StateHeader {
	n := *h
	n.RootHash = common.CopyBytes(h.RootHash)
	n.Hash = common.CopyBytes(h.Hash)
	return &n
}

// State is a working copy of the chain state. Governance operations are
// applied to its ledger and written to the tree by Update.
type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64

	header *StateHeader
	idxs   map[string]uint64
	acnts  map[uint64]*Account

	modifiedAcnts map[uint64]uint32
	gov           *governance.Ledger[string]
	savedNext     uint64
	modProposals  map[uint64]struct{}
	newVotes      map[governance.VoteKey[string]]bool
}

func newState(db *iavl.MutableTree, logger cmtlog.Logger) *State {
	s := &State{
		logger:        logger,
		db:            db,
		dbVer:         0,
		header:        new(StateHeader),
		idxs:          make(map[string]uint64),
		acnts:         make(map[uint64]*Account),
		modifiedAcnts: make(map[uint64]uint32),
		gov:           governance.NewLedger[string](),
		modProposals:  make(map[uint64]struct{}),
		newVotes:      make(map[governance.VoteKey[string]]bool),
	}
	s.header.AccountIdx = StartAccountIdx
	return s
}

func (s *State) nextState() *State {
	n := &State{
		logger:        s.logger,
		db:            s.db,
		dbVer:         s.dbVer,
		idxs:          make(map[string]uint64),
		acnts:         make(map[uint64]*Account),
		modifiedAcnts: make(map[uint64]uint32),
		gov:           s.gov.Clone(),
		savedNext:     s.savedNext,
		modProposals:  make(map[uint64]struct{}),
		newVotes:      make(map[governance.VoteKey[string]]bool),
	}
	n.header = s.header.clone()
	if s.header.GetHash() != nil {
		n.header.Height = s.header.Height + 1
	}
	return n
}

func deepCopyMap[K comparable, V any](source map[K]V) map[K]V {
	res := make(map[K]V, len(source))
	for k, v := range source {
		switch x := any(v).(type) {
		case *Account:
			res[k] = any(x.Clone()).(V)
		default:
			res[k] = v
		}
	}
	return res
}

// Clone copies the working state so txs can be trial-applied and dropped.
func (s *State) Clone() *State {
	return &State{
		logger:        s.logger,
		db:            s.db,
		dbVer:         s.dbVer,
		header:        s.header.clone(),
		idxs:          deepCopyMap(s.idxs),
		acnts:         deepCopyMap(s.acnts),
		modifiedAcnts: deepCopyMap(s.modifiedAcnts),
		gov:           s.gov.Clone(),
		savedNext:     s.savedNext,
		modProposals:  deepCopyMap(s.modProposals),
		newVotes:      deepCopyMap(s.newVotes),
	}
}

func (s *State) get(key string) ([]byte, error) {
	val, err := s.db.Get([]byte(key))
	if err != nil && err != leveldb.ErrNotFound {
		return nil, err
	}
	return val, nil
}

func (s *State) load() (err error) {
	val, err := s.get(KeyState)
	if err != nil {
		return err
	}
	if val == nil {
		return nil
	}
	err = rlp.DecodeBytes(val, s.header)
	if err != nil {
		return fmt.Errorf("decode state header: %w", err)
	}

	next, err := s.loadProposalNext()
	if err != nil {
		return err
	}
	proposals, err := s.loadProposals()
	if err != nil {
		return err
	}
	votes, err := s.loadVotes()
	if err != nil {
		return err
	}
	s.gov, err = governance.Restore(next, proposals, votes)
	if err != nil {
		return err
	}
	s.savedNext = next
	s.logger.Info("governance ledger loaded", "proposals", len(proposals), "votes", len(votes), "next", next)

	h := s.db.Hash()
	if h != nil {
		s.calcHash(h, true)
	}
	return
}

func (s *State) loadProposalNext() (uint64, error) {
	val, err := s.get(KeyProposalNext)
	if err != nil || val == nil {
		return 0, err
	}
	var next wrapperspb.UInt64Value
	if err = proto.Unmarshal(val, &next); err != nil {
		return 0, fmt.Errorf("decode proposal counter: %w", err)
	}
	return next.GetValue(), nil
}

func (s *State) loadProposals() (map[uint64]governance.Proposal[string], error) {
	proposals := make(map[uint64]governance.Proposal[string])
	start := []byte(KeyProposalPrefix)
	it, err := s.db.Iterator(start, PrefixEndBytes(start), true)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		id, err := strconv.ParseUint(strings.TrimPrefix(string(it.Key()), KeyProposalPrefix), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrCorruptedKey, it.Key())
		}
		var p governance.Proposal[string]
		if err = json.Unmarshal(it.Value(), &p); err != nil {
			return nil, err
		}
		proposals[id] = p
	}
	return proposals, it.Error()
}

func (s *State) loadVotes() (map[governance.VoteKey[string]]bool, error) {
	votes := make(map[governance.VoteKey[string]]bool)
	start := []byte(KeyVotePrefix)
	it, err := s.db.Iterator(start, PrefixEndBytes(start), true)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		parts := strings.SplitN(strings.TrimPrefix(string(it.Key()), KeyVotePrefix), "/", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %q", ErrCorruptedKey, it.Key())
		}
		id, err := strconv.ParseUint(parts[0], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrCorruptedKey, it.Key())
		}
		var yes bool
		if err = rlp.DecodeBytes(it.Value(), &yes); err != nil {
			return nil, err
		}
		votes[governance.VoteKey[string]{Voter: parts[1], Proposal: id}] = yes
	}
	return votes, it.Error()
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		s.header.RootHash = common.CopyBytes(rootHash)
		s.header.Hash = common.CopyBytes(h[:])
	}
	return
}

// Update writes every pending change into the tree and returns the working
// app hash. Nothing is committed until the StateDB saves the version.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	var val []byte
	val, err = rlp.EncodeToBytes(s.header)
	if err != nil {
		return
	}
	_, err = s.db.Set([]byte(KeyState), val)
	if err != nil {
		return
	}

	next := s.gov.NextProposalID()
	if next != s.savedNext {
		val, err = proto.Marshal(wrapperspb.UInt64(next))
		if err != nil {
			return
		}
		_, err = s.db.Set([]byte(KeyProposalNext), val)
		if err != nil {
			return
		}
	}

	for _, id := range sortedKeys(s.modProposals) {
		p, ok := s.gov.GetProposal(id)
		if !ok {
			err = fmt.Errorf("modified proposal %d missing from ledger", id)
			return
		}
		val, err = json.Marshal(p)
		if err != nil {
			return
		}
		_, err = s.db.Set([]byte(fmt.Sprintf(KeyProposalBody, id)), val)
		if err != nil {
			return
		}
	}

	for _, key := range sortedVoteKeys(s.newVotes) {
		val, err = rlp.EncodeToBytes(s.newVotes[key])
		if err != nil {
			return
		}
		_, err = s.db.Set([]byte(fmt.Sprintf(KeyVoteBody, key.Proposal, key.Voter)), val)
		if err != nil {
			return
		}
	}

	for _, idx := range sortedKeys(s.modifiedAcnts) {
		flag := s.modifiedAcnts[idx]
		acnt := s.acnts[idx]
		key := fmt.Sprintf(KeyAccountBody, acnt.Index)
		val, err = acnt.encode()
		if err != nil {
			return
		}
		_, err = s.db.Set([]byte(key), val)
		if err != nil {
			return
		}
		if flag&ModifiedFlagNew == ModifiedFlagNew {
			key = fmt.Sprintf(KeyAccountIndex, acnt.Address())
			val, err = rlp.EncodeToBytes(acnt.Index)
			if err != nil {
				return
			}
			_, err = s.db.Set([]byte(key), val)
			if err != nil {
				return
			}
		}
	}
	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.savedNext = next
	s.modifiedAcnts = make(map[uint64]uint32)
	s.modProposals = make(map[uint64]struct{})
	s.newVotes = make(map[governance.VoteKey[string]]bool)
	return
}

func sortedKeys[V any](m map[uint64]V) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})
	return keys
}

// sortedVoteKeys orders vote records by proposal, then voter. The tree hash
// depends on insertion order.
func sortedVoteKeys(m map[governance.VoteKey[string]]bool) []governance.VoteKey[string] {
	keys := make([]governance.VoteKey[string], 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Proposal != keys[j].Proposal {
			return keys[i].Proposal < keys[j].Proposal
		}
		return keys[i].Voter < keys[j].Voter
	})
	return keys
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}

	s.dbVer = ver
	h = s.calcHash(hash, true)

	return
}

func (s *State) GetAccount(idx uint64) (acnt *Account, err error) {
	if idx < StartAccountIdx || idx >= s.header.AccountIdx {
		err = ErrAccountNoexists
		return
	}
	acnt = s.acnts[idx]
	if acnt != nil {
		return
	}
	val, err := s.get(fmt.Sprintf(KeyAccountBody, idx))
	if err != nil {
		return nil, err
	}
	if val == nil {
		err = ErrNotFound
		return
	}
	acnt, err = decodeAccount(val)
	if err != nil {
		return nil, err
	}
	s.acnts[idx] = acnt
	return
}

func (s *State) FindAccount(addr []byte) (acnt *Account, err error) {
	saddr := cmtcrypto.Address(addr).String()
	idx, ok := s.idxs[saddr]
	if !ok {
		for _, a := range s.acnts {
			if bytes.Equal(a.AddrBytes(), addr) {
				s.idxs[saddr] = a.Index
				return a, nil
			}
		}
		val, err := s.get(fmt.Sprintf(KeyAccountIndex, saddr))
		if err != nil {
			return nil, err
		}
		if val == nil {
			return nil, nil
		}
		err = rlp.DecodeBytes(val, &idx)
		if err != nil {
			return nil, err
		}
		s.idxs[saddr] = idx
	}
	acnt, err = s.GetAccount(idx)
	return
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

func (s *State) AddAccount(acnt *Account) (err error) {
	if len(acnt.PubKey) != ed25519.PubKeySize {
		return ErrInvalidPubKey
	}
	a, err := s.FindAccount(acnt.AddrBytes())
	if err != nil {
		return err
	}
	if a != nil {
		err = ErrAccountAlreadyExists
		return
	}
	acnt.Index = s.header.AccountIdx
	s.header.AccountIdx += 1
	s.acnts[acnt.Index] = acnt.Clone()
	s.idxs[acnt.Address()] = acnt.Index
	s.modifiedAcnts[acnt.Index] = ModifiedFlagNew
	return
}

// Verify checks the sender account, nonce and signature of a tx. CheckTx
// allows nonces ahead of the committed one for txs queued in the mempool.
func (s *State) Verify(btx *tx.GovTx, allowNonceGap bool) (succ bool, err error) {
	a, err := s.GetAccount(btx.Account)
	if err != nil {
		return succ, err
	}
	if !(a.Nonce == btx.Nonce || (allowNonceGap && a.Nonce < btx.Nonce)) {
		err = ErrTxNonceInvalid
		return
	}
	dat, err := btx.SigData([]byte(s.header.ChainId))
	if err != nil {
		return succ, err
	}
	succ = a.Verify(dat, btx.Sig)
	if !succ {
		err = ErrTxSigInvalid
	}
	return
}

func (s *State) touch(a *Account) {
	a.Nonce += 1
	v := s.modifiedAcnts[a.Index]
	v |= ModifiedFlagMod
	s.modifiedAcnts[a.Index] = v
	s.acnts[a.Index] = a.Clone()
}

func (s *State) CreateProposal(ptx *tx.CreateProposalTx, account uint64, checkOnly bool) (event *types.EventCreateProposal, err error) {
	s.logger.Debug("apply create proposal", "account", account, "height", s.header.Height)
	a, err := s.GetAccount(account)
	if err != nil {
		return nil, err
	}
	if ptx.Description == "" {
		err = tx.ErrEmptyDescription
		return
	}
	if checkOnly {
		return
	}
	id := s.gov.CreateProposal(a.Address(), ptx.Description)
	s.modProposals[id] = struct{}{}
	s.touch(a)
	event = &types.EventCreateProposal{
		Proposal:    id,
		Creator:     a.Address(),
		Description: ptx.Description,
		Height:      s.header.Height,
	}
	return
}

func (s *State) Vote(vtx *tx.VoteTx, account uint64, checkOnly bool) (event *types.EventVote, err error) {
	s.logger.Debug("apply vote", "account", account, "proposal", vtx.Proposal, "height", s.header.Height)
	a, err := s.GetAccount(account)
	if err != nil {
		return nil, err
	}
	voter := a.Address()
	if checkOnly {
		err = s.gov.CheckVote(voter, vtx.Proposal)
		return
	}
	err = s.gov.Vote(voter, vtx.Proposal, vtx.Yes)
	if err != nil {
		return nil, err
	}
	s.modProposals[vtx.Proposal] = struct{}{}
	s.newVotes[governance.VoteKey[string]{Voter: voter, Proposal: vtx.Proposal}] = vtx.Yes
	s.touch(a)
	p, _ := s.gov.GetProposal(vtx.Proposal)
	event = &types.EventVote{
		Proposal: vtx.Proposal,
		Voter:    voter,
		Yes:      vtx.Yes,
		YesVotes: p.YesVotes,
		NoVotes:  p.NoVotes,
	}
	return
}

func (s *State) FinalizeProposal(ftx *tx.FinalizeProposalTx, account uint64, checkOnly bool) (event *types.EventFinalizeProposal, err error) {
	s.logger.Debug("apply finalize proposal", "account", account, "proposal", ftx.Proposal, "height", s.header.Height)
	a, err := s.GetAccount(account)
	if err != nil {
		return nil, err
	}
	if checkOnly {
		err = s.gov.CheckFinalize(ftx.Proposal)
		return
	}
	status, err := s.gov.FinalizeProposal(ftx.Proposal)
	if err != nil {
		return nil, err
	}
	s.modProposals[ftx.Proposal] = struct{}{}
	s.touch(a)
	p, _ := s.gov.GetProposal(ftx.Proposal)
	event = &types.EventFinalizeProposal{
		Proposal: ftx.Proposal,
		Status:   status,
		YesVotes: p.YesVotes,
		NoVotes:  p.NoVotes,
	}
	return
}

func (s *State) GetProposal(id uint64) (view types.ProposalView, err error) {
	p, ok := s.gov.GetProposal(id)
	if !ok {
		err = governance.ErrProposalNotFound
		return
	}
	return types.NewProposalView(id, p), nil
}

// ListProposals pages through proposals newest first.
func (s *State) ListProposals(page, pageSize int) (views []types.ProposalView, total uint64) {
	ids := s.gov.Proposals()
	total = uint64(len(ids))
	views = make([]types.ProposalView, 0)
	if page < 0 || pageSize <= 0 {
		return
	}
	for i := len(ids) - 1 - page*pageSize; i >= 0 && len(views) < pageSize; i-- {
		p, _ := s.gov.GetProposal(ids[i])
		views = append(views, types.NewProposalView(ids[i], p))
	}
	return
}

func (s *State) GetVotes(id uint64) (votes []types.VoteView, err error) {
	if _, ok := s.gov.GetProposal(id); !ok {
		return nil, governance.ErrProposalNotFound
	}
	records := s.gov.VotesFor(id)
	votes = make([]types.VoteView, 0, len(records))
	for voter, yes := range records {
		votes = append(votes, types.VoteView{Proposal: id, Voter: voter, Yes: yes})
	}
	sort.Slice(votes, func(i, j int) bool {
		return votes[i].Voter < votes[j].Voter
	})
	return
}

func PrefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}

		end = end[:len(end)-1]

		if len(end) == 0 {
			end = nil
			break
		}
	}

	return end
}
