package state

import (
	"sync"

	"github.com/calehh/hac-gov/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
)

// StateDB owns the committed state. Every access goes through one mutex,
// reads included, since account lookups fill the state caches.
type StateDB struct {
	mtx sync.Mutex

	dir    string
	logger cmtlog.Logger
	db     *iavl.MutableTree

	state *State
}

func NewStateDB(dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	ldb, err := dbm.NewDB("hacgov", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	return newStateDB(ldb, dir, logger)
}

// NewMemStateDB keeps the tree in memory; used by tests and tooling.
func NewMemStateDB(logger cmtlog.Logger) (db *StateDB, err error) {
	return newStateDB(dbm.NewMemDB(), "", logger)
}

func newStateDB(ldb dbm.DB, dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "govdb")
	tdb := iavl.NewMutableTree(ldb, 128, true, Cometbft2CosmosLogger(logger))
	version, err := tdb.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("load db success", "version", version)
	st := newState(tdb, logger)
	err = st.load()
	if err != nil {
		logger.Error("from govdb load fail", "err", err)
		return nil, err
	}
	st.dbVer = version
	db = &StateDB{
		dir:    dir,
		logger: logger,
		db:     tdb,
		state:  st,
	}
	return
}

func (db *StateDB) Close() (err error) {
	err = db.db.Close()
	return
}

func (db *StateDB) Header() (header *StateHeader) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	header = db.state.Header().clone()
	return
}

func (db *StateDB) NewState() (st *State) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	st = db.state.nextState()
	return
}

func (db *StateDB) SetState(st *State) (hash common.Hash, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	hash, err = st.save()
	if err != nil {
		return
	}
	db.state = st
	return
}

// View runs fn against the committed state under the lock. fn must not
// keep st or mutate it.
func (db *StateDB) View(fn func(st *State) error) error {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	return fn(db.state)
}

func (db *StateDB) GetAccountByIndex(idx uint64) (acnt *Account, height uint64, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	acnt, err = db.state.GetAccount(idx)
	if err != nil {
		return
	}
	if acnt != nil {
		acnt = acnt.Clone()
	}
	height = db.state.header.Height

	return

}

func (db *StateDB) GetAccountByAddress(addr []byte) (acnt *Account, height uint64, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	acnt, err = db.state.FindAccount(addr)
	if err != nil {
		return
	}
	if acnt != nil {
		acnt = acnt.Clone()
	}
	height = db.state.header.Height

	return
}

func (db *StateDB) GetProposal(id uint64) (view types.ProposalView, height uint64, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	view, err = db.state.GetProposal(id)
	height = db.state.header.Height
	return
}

func (db *StateDB) ListProposals(page, pageSize int) (views []types.ProposalView, total uint64, height uint64) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	views, total = db.state.ListProposals(page, pageSize)
	height = db.state.header.Height
	return
}

func (db *StateDB) GetVotes(id uint64) (votes []types.VoteView, height uint64, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	votes, err = db.state.GetVotes(id)
	height = db.state.header.Height
	return
}
