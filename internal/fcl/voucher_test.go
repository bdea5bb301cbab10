package fcl

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/onflow/cadence"
	"github.com/onflow/flow-go-sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRefBlock = "9035b2a2a4e8f1d1c7c2a67c3a5e1b0c2f9a3c7d8e1f2a3b4c5d6e7f8091a2b3"

func account(address string, keyID int, role Role) *SignableUser {
	a := candidate(address, keyID, role)
	a.TempID = canonicalTempID(address, keyID)
	return a
}

// resolvedInteraction has a proposer/authorizer 0x01 and a payer 0x02.
func resolvedInteraction() *Interaction {
	ix := NewInteraction("transaction { prepare(acct: AuthAccount) {} }", nil, 999)
	refBlock := testRefBlock
	ix.Message.RefBlock = &refBlock

	proposer := account("0x01", 0, Role{Proposer: true, Authorizer: true})
	proposer.SequenceNum = uint64Ptr(12)
	payer := account("0x02", 0, Role{Payer: true})

	ix.Accounts[proposer.TempID] = proposer
	ix.Accounts[payer.TempID] = payer
	ix.Proposer = &proposer.TempID
	ix.Payer = &payer.TempID
	ix.Authorizations = []string{proposer.TempID}
	return ix
}

func Test_NewArgument(t *testing.T) {
	arg, err := NewArgument(cadence.String("hello"))
	require.NoError(t, err)

	assert.Equal(t, kindArgument, arg.Kind)
	assert.Len(t, arg.TempID, 10)
	assert.Equal(t, "String", arg.Xform.Label)
	assert.Equal(t, "hello", arg.Value)
	assert.JSONEq(t, `{"type":"String","value":"hello"}`, string(arg.AsArgument))

	_, err = NewRawArgument([]byte("not json"))
	assert.ErrorIs(t, err, ErrDecodeFailure)
}

func Test_BuildVoucher(t *testing.T) {
	t.Run("Should order arguments by message arguments", func(t *testing.T) {
		ix := resolvedInteraction()
		ix.Arguments = map[string]Argument{
			"t1": {TempID: "t1", AsArgument: json.RawMessage(`{"type":"Int","value":"1"}`)},
			"t2": {TempID: "t2", AsArgument: json.RawMessage(`{"type":"Int","value":"2"}`)},
		}
		ix.Message.Arguments = []string{"t2", "missing", "t1"}

		voucher, err := BuildVoucher(ix)
		require.NoError(t, err)

		require.Len(t, voucher.Arguments, 2)
		assert.JSONEq(t, `{"type":"Int","value":"2"}`, string(voucher.Arguments[0]))
		assert.JSONEq(t, `{"type":"Int","value":"1"}`, string(voucher.Arguments[1]))
	})

	t.Run("Should resolve addresses and deduplicate authorizers", func(t *testing.T) {
		ix := resolvedInteraction()
		second := account("0x01", 1, Role{Authorizer: true})
		third := account("0x03", 0, Role{Authorizer: true})
		ix.Accounts[second.TempID] = second
		ix.Accounts[third.TempID] = third
		ix.Authorizations = []string{"0x03-0", "0x01-0", "0x01-1", "0x03-0"}

		voucher, err := BuildVoucher(ix)
		require.NoError(t, err)

		assert.Equal(t, []string{"03", "01"}, voucher.Authorizers)
		assert.Equal(t, "02", *voucher.Payer)
		assert.Equal(t, "01", *voucher.ProposalKey.Address)
		assert.Equal(t, 0, *voucher.ProposalKey.KeyID)
		assert.Equal(t, uint64(12), *voucher.ProposalKey.SequenceNum)
	})

	t.Run("Should partition signatures and keep missing signatures null", func(t *testing.T) {
		ix := resolvedInteraction()
		sig := "abcd"
		ix.Accounts["0x01-0"].Signature = &sig

		voucher, err := BuildVoucher(ix)
		require.NoError(t, err)

		require.Len(t, voucher.PayloadSigs, 1)
		assert.Equal(t, "01", *voucher.PayloadSigs[0].Address)
		assert.Equal(t, "abcd", *voucher.PayloadSigs[0].Sig)
		require.Len(t, voucher.EnvelopeSigs, 1)
		assert.Equal(t, "02", *voucher.EnvelopeSigs[0].Address)
		assert.Nil(t, voucher.EnvelopeSigs[0].Sig)

		encoded, err := json.Marshal(voucher.EnvelopeSigs[0])
		require.NoError(t, err)
		assert.JSONEq(t, `{"address":"02","keyId":0,"sig":null}`, string(encoded))
	})

	t.Run("Should reject roles pointing at unknown accounts", func(t *testing.T) {
		ix := resolvedInteraction()
		ix.Authorizations = append(ix.Authorizations, "0x09-0")

		_, err := BuildVoucher(ix)
		assert.ErrorIs(t, err, ErrInvalidInteraction)

		ix = resolvedInteraction()
		delete(ix.Accounts, "0x02-0")
		_, err = BuildVoucher(ix)
		assert.ErrorIs(t, err, ErrInvalidInteraction)
	})

	t.Run("Should build an empty proposal key before negotiation", func(t *testing.T) {
		voucher, err := BuildVoucher(NewInteraction("transaction {}", nil, 10))
		require.NoError(t, err)

		assert.Nil(t, voucher.ProposalKey.Address)
		assert.Nil(t, voucher.Payer)
		assert.Empty(t, voucher.Authorizers)
		assert.Empty(t, voucher.PayloadSigs)
		assert.Empty(t, voucher.EnvelopeSigs)
	})
}

func Test_VoucherTransaction(t *testing.T) {
	t.Run("Should convert into a flow transaction", func(t *testing.T) {
		ix := resolvedInteraction()
		arg, err := NewArgument(cadence.String("hi"))
		require.NoError(t, err)
		ix.Arguments[arg.TempID] = arg
		ix.Message.Arguments = []string{arg.TempID}
		payloadSig, envelopeSig := "0a0b", "0c0d"
		ix.Accounts["0x01-0"].Signature = &payloadSig
		ix.Accounts["0x02-0"].Signature = &envelopeSig

		voucher, err := BuildVoucher(ix)
		require.NoError(t, err)
		tx, err := voucher.Transaction()
		require.NoError(t, err)

		assert.Equal(t, flow.HexToID(testRefBlock), tx.ReferenceBlockID)
		assert.Equal(t, uint64(999), tx.GasLimit)
		assert.Equal(t, flow.HexToAddress("0x01"), tx.ProposalKey.Address)
		assert.Equal(t, uint64(12), tx.ProposalKey.SequenceNumber)
		assert.Equal(t, flow.HexToAddress("0x02"), tx.Payer)
		assert.Equal(t, []flow.Address{flow.HexToAddress("0x01")}, tx.Authorizers)
		require.Len(t, tx.Arguments, 1)

		require.Len(t, tx.PayloadSignatures, 1)
		assert.Equal(t, []byte{0x0a, 0x0b}, tx.PayloadSignatures[0].Signature)
		require.Len(t, tx.EnvelopeSignatures, 1)
		assert.Equal(t, []byte{0x0c, 0x0d}, tx.EnvelopeSignatures[0].Signature)
	})

	t.Run("Should require a complete proposal key", func(t *testing.T) {
		ix := resolvedInteraction()
		ix.Accounts["0x01-0"].SequenceNum = nil

		voucher, err := BuildVoucher(ix)
		require.NoError(t, err)
		_, err = voucher.Transaction()
		assert.ErrorIs(t, err, ErrInvalidInteraction)
	})

	t.Run("Should reject a malformed signature", func(t *testing.T) {
		ix := resolvedInteraction()
		bad := "zz"
		ix.Accounts["0x01-0"].Signature = &bad

		voucher, err := BuildVoucher(ix)
		require.NoError(t, err)
		_, err = voucher.Transaction()
		assert.ErrorIs(t, err, ErrDecodeFailure)
	})

	t.Run("Should tag messages with the transaction domain", func(t *testing.T) {
		voucher, err := BuildVoucher(resolvedInteraction())
		require.NoError(t, err)

		payload, err := voucher.PayloadMessage()
		require.NoError(t, err)
		envelope, err := voucher.EnvelopeMessage()
		require.NoError(t, err)

		tag := hex.EncodeToString(flow.TransactionDomainTag[:])
		assert.True(t, strings.HasPrefix(payload, tag))
		assert.True(t, strings.HasPrefix(envelope, tag))
		assert.NotEqual(t, payload, envelope)
	})
}
