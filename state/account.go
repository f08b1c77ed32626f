package state

import (
	"encoding/json"

	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/ethereum/go-ethereum/rlp"
)

// Account is an identity allowed to send governance txs. Its address is the
// identity recorded by the governance ledger.
type Account struct {
	Index  uint64
	PubKey []byte
	Nonce  uint64
}

type accountSt struct {
	Index   uint64         `json:"index"`
	PubKey  ed25519.PubKey `json:"pubKey"`
	Nonce   uint64         `json:"nonce"`
	Address string         `json:"address"`
}

func (a *Account) MarshalJSON() (dat []byte, err error) {
	o := accountSt{
		Index:   a.Index,
		PubKey:  a.PubKey,
		Nonce:   a.Nonce,
		Address: a.Address(),
	}
	return json.Marshal(o)
}

func (a *Account) UnmarshalJSON(dat []byte) (err error) {
	var o accountSt
	err = json.Unmarshal(dat, &o)
	if err != nil {
		return
	}
	a.Index = o.Index
	a.PubKey = o.PubKey
	a.Nonce = o.Nonce
	return
}

func (a *Account) encode() ([]byte, error) {
	return rlp.EncodeToBytes(a)
}

func decodeAccount(dat []byte) (a *Account, err error) {
	a = new(Account)
	err = rlp.DecodeBytes(dat, a)
	if err != nil {
		return nil, err
	}
	return
}

func (a *Account) Clone() *Account {
	n := *a
	n.PubKey = nil
	n.SetPubKey(a.PubKey)
	return &n
}

func (a *Account) SetPubKey(pkey []byte) {
	if len(a.PubKey) != len(pkey) {
		a.PubKey = make([]byte, len(pkey))
	}
	copy(a.PubKey, pkey)
}

func (a *Account) AddrBytes() []byte {
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.Address()[:]
}

func (a *Account) Address() string {
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.Address().String()
}

func (a *Account) Verify(msg []byte, sigs [][]byte) (succ bool) {
	if len(sigs) != 1 {
		return false
	}
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.VerifySignature(msg, sigs[0])
}
