package tx

import (
	"strings"
	"testing"

	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalGovTx(t *testing.T) {
	cases := []*GovTx{
		{Version: GovTxVersion1, Type: GovTxTypeCreateProposal, Nonce: 1, Account: 3, Tx: &CreateProposalTx{Description: "raise limits"}},
		{Version: GovTxVersion1, Type: GovTxTypeVote, Nonce: 2, Account: 4, Tx: &VoteTx{Proposal: 7, Yes: true}},
		{Version: GovTxVersion1, Type: GovTxTypeFinalizeProposal, Nonce: 3, Account: 5, Tx: &FinalizeProposalTx{Proposal: 7}},
	}
	for _, c := range cases {
		t.Run(c.Type.String(), func(t *testing.T) {
			dat, err := MarshalGovTx(c)
			require.NoError(t, err)
			got, err := UnmarshalGovTx(dat)
			require.NoError(t, err)
			assert.Equal(t, c, got)
		})
	}
}

func TestUnmarshalGovTxErrors(t *testing.T) {
	_, err := UnmarshalGovTx([]byte(`{"type":9,"tx":{}}`))
	assert.ErrorIs(t, err, ErrUnsupportedTxType)

	_, err = UnmarshalGovTx([]byte(`not json`))
	assert.ErrorIs(t, err, ErrUnsupportedTxType)

	_, err = UnmarshalGovTx([]byte(`{"type":2}`))
	assert.ErrorIs(t, err, ErrInvalidTx)

	_, err = UnmarshalGovTx([]byte(`{"type":1,"tx":{"description":""}}`))
	assert.ErrorIs(t, err, ErrEmptyDescription)

	long := `{"type":1,"tx":{"description":"` + strings.Repeat("a", MaxDescriptionLen+1) + `"}}`
	_, err = UnmarshalGovTx([]byte(long))
	assert.ErrorIs(t, err, ErrDescriptionTooLong)

	_, err = UnmarshalGovTx([]byte(`{"version":7,"type":3,"tx":{"proposal":1}}`))
	assert.ErrorIs(t, err, ErrUnsupportedTxVersion)
}

func TestValidateBasicTypeMismatch(t *testing.T) {
	btx := &GovTx{Type: GovTxTypeVote, Tx: &FinalizeProposalTx{Proposal: 1}}
	assert.ErrorIs(t, btx.ValidateBasic(), ErrInvalidTx)
}

func TestSigData(t *testing.T) {
	priv := ed25519.GenPrivKey()
	btx := &GovTx{Version: GovTxVersion1, Type: GovTxTypeVote, Nonce: 1, Tx: &VoteTx{Proposal: 0, Yes: true}}
	dat, err := btx.SigData([]byte("chain-a"))
	require.NoError(t, err)
	sig, err := priv.Sign(dat)
	require.NoError(t, err)
	btx.Sig = [][]byte{sig}

	raw, err := MarshalGovTx(btx)
	require.NoError(t, err)
	got, err := UnmarshalGovTx(raw)
	require.NoError(t, err)

	dat, err = got.SigData([]byte("chain-a"))
	require.NoError(t, err)
	assert.True(t, priv.PubKey().VerifySignature(dat, got.Sig[0]))

	other, err := got.SigData([]byte("chain-b"))
	require.NoError(t, err)
	assert.False(t, priv.PubKey().VerifySignature(other, got.Sig[0]))
}
