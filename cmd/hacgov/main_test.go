package main

import (
	"encoding/hex"
	"testing"

	"github.com/calehh/hac-gov/crypto"
	"github.com/calehh/hac-gov/tx"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccounts(t *testing.T) {
	pk1 := ed25519.GenPrivKey().PubKey().Bytes()
	pk2 := ed25519.GenPrivKey().PubKey().Bytes()
	accounts, err := parseAccounts(hex.EncodeToString(pk1) + ", " + hex.EncodeToString(pk2) + ",")
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, pk1, accounts[0].PubKey)
	assert.Equal(t, pk2, accounts[1].PubKey)

	accounts, err = parseAccounts("")
	require.NoError(t, err)
	assert.Empty(t, accounts)

	_, err = parseAccounts("zz")
	assert.Error(t, err)
}

func TestParseBallot(t *testing.T) {
	yes, err := parseBallot("yes")
	require.NoError(t, err)
	assert.True(t, yes)
	yes, err = parseBallot("n")
	require.NoError(t, err)
	assert.False(t, yes)
	_, err = parseBallot("maybe")
	assert.Error(t, err)
}

func TestSignTx(t *testing.T) {
	priv := ed25519.GenPrivKey()
	pv := crypto.NewPV(priv)
	btx := &tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tx.GovTxTypeVote,
		Nonce:   2,
		Account: 1,
		Tx:      &tx.VoteTx{Proposal: 3, Yes: true},
	}
	dat, err := signTx(btx, "test-chain", pv)
	require.NoError(t, err)

	decoded, err := tx.UnmarshalGovTx(dat)
	require.NoError(t, err)
	require.Len(t, decoded.Sig, 1)
	msg, err := decoded.SigData([]byte("test-chain"))
	require.NoError(t, err)
	assert.True(t, priv.PubKey().VerifySignature(msg, decoded.Sig[0]))

	_, err = signTx(&tx.GovTx{Type: tx.GovTxTypeCreateProposal, Tx: &tx.CreateProposalTx{}}, "test-chain", pv)
	assert.ErrorIs(t, err, tx.ErrEmptyDescription)
}

func TestRpcHttpUrl(t *testing.T) {
	u, err := rpcHttpUrl("tcp://127.0.0.1:26657")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:26657", u)
}
