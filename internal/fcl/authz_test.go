package fcl

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/onflow/flow-go-sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	authzEndpoint      = "https://wallet/authz"
	proposerEndpoint   = "https://wallet/sign/proposer"
	authorizerEndpoint = "https://wallet/sign/authorizer"
	payerEndpoint      = "https://wallet/sign/payer"
)

// newNegotiation prepares a wallet where 0x01 proposes and authorizes and
// 0x02 pays.
func newNegotiation() (*fakeChain, *fakeSession) {
	chain := newFakeChain().withAccount("0x01", 0, 7)
	session := newFakeSession(authzEndpoint)

	session.responses[authzEndpoint] = &AuthnResponse{
		Status: StatusApproved,
		Data: &AuthnData{
			Proposer: &Service{Type: ServiceTypeAuthz, Endpoint: proposerEndpoint,
				Identity: &Identity{Address: "0x01", KeyID: intPtr(0)}},
			Payer: []Service{{Type: ServiceTypeAuthz, Endpoint: payerEndpoint,
				Identity: &Identity{Address: "0x02", KeyID: intPtr(0)}}},
			Authorization: []Service{{Type: ServiceTypeAuthz, Endpoint: authorizerEndpoint,
				Identity: &Identity{Address: "0x01", KeyID: intPtr(0)}}},
		},
	}
	session.responses[proposerEndpoint] = approvedSignature("0a0b")
	session.responses[authorizerEndpoint] = approvedSignature("0e0f")
	session.responses[payerEndpoint] = approvedSignature("0c0d")

	return chain, session
}

func Test_Authorize(t *testing.T) {
	ctx := context.Background()

	t.Run("Should negotiate, sign and submit", func(t *testing.T) {
		chain, session := newNegotiation()
		ix := NewInteraction("transaction { prepare(acct: AuthAccount) {} }", nil, 100)

		txID, err := NewAuthorizer(chain, session).Authorize(ctx, ix)
		require.NoError(t, err)
		assert.NotEqual(t, flow.EmptyID, txID)
		require.Len(t, chain.sent, 1)
		assert.Equal(t, txID, chain.sent[0].ID())

		voucher, err := BuildVoucher(ix)
		require.NoError(t, err)
		require.Len(t, voucher.PayloadSigs, 1)
		assert.Equal(t, "01", *voucher.PayloadSigs[0].Address)
		assert.Equal(t, "0a0b", *voucher.PayloadSigs[0].Sig)
		require.Len(t, voucher.EnvelopeSigs, 1)
		assert.Equal(t, "02", *voucher.EnvelopeSigs[0].Address)
		assert.Equal(t, "0c0d", *voucher.EnvelopeSigs[0].Sig)
		require.NotNil(t, voucher.ProposalKey.SequenceNum)
		assert.Equal(t, uint64(7), *voucher.ProposalKey.SequenceNum)
		assert.Equal(t, []string{"01"}, voucher.Authorizers)

		for _, acct := range ix.Accounts {
			assert.Nil(t, acct.Signer)
		}
		assert.Empty(t, session.requestsTo(authorizerEndpoint))
	})

	t.Run("Should send the reference block in the pre-authorization", func(t *testing.T) {
		chain, session := newNegotiation()
		ix := NewInteraction("transaction {}", nil, 100)

		_, err := NewAuthorizer(chain, session).Authorize(ctx, ix)
		require.NoError(t, err)

		requests := session.requestsTo(authzEndpoint)
		require.Len(t, requests, 1)
		var preSignable PreSignable
		require.NoError(t, json.Unmarshal(requests[0], &preSignable))
		assert.Equal(t, "PreSignable", preSignable.FType)
		assert.Equal(t, chain.block.ID.Hex(), *preSignable.Interaction.Message.RefBlock)
	})

	t.Run("Should sign the envelope over the payload signatures", func(t *testing.T) {
		chain, session := newNegotiation()
		ix := NewInteraction("transaction {}", nil, 100)

		_, err := NewAuthorizer(chain, session).Authorize(ctx, ix)
		require.NoError(t, err)

		proposerRequests := session.requestsTo(proposerEndpoint)
		require.Len(t, proposerRequests, 1)
		var proposerSignable Signable
		require.NoError(t, json.Unmarshal(proposerRequests[0], &proposerSignable))
		assert.Equal(t, "Signable", proposerSignable.FType)
		assert.Equal(t, "1.0.1", proposerSignable.FVsn)
		assert.True(t, proposerSignable.Roles.Proposer)
		assert.Nil(t, proposerSignable.Voucher.PayloadSigs[0].Sig)

		payerRequests := session.requestsTo(payerEndpoint)
		require.Len(t, payerRequests, 1)
		var payerSignable Signable
		require.NoError(t, json.Unmarshal(payerRequests[0], &payerSignable))
		assert.Equal(t, "0x02", *payerSignable.Addr)
		assert.Equal(t, "0a0b", *payerSignable.Voucher.PayloadSigs[0].Sig)

		envelope, err := payerSignable.Voucher.EnvelopeMessage()
		require.NoError(t, err)
		assert.Equal(t, envelope, payerSignable.Message)
		assert.NotEqual(t, proposerSignable.Message, payerSignable.Message)
	})

	t.Run("Should require an authenticated user", func(t *testing.T) {
		chain, session := newNegotiation()
		session.user = nil

		_, err := NewAuthorizer(chain, session).Authorize(ctx, NewInteraction("transaction {}", nil, 100))
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("Should require an authorization service", func(t *testing.T) {
		chain, session := newNegotiation()
		session.user.Services = []Service{{Type: ServiceTypeAuthn, Endpoint: "https://wallet/authn"}}

		_, err := NewAuthorizer(chain, session).Authorize(ctx, NewInteraction("transaction {}", nil, 100))
		assert.ErrorIs(t, err, ErrMissingEndpoint)
	})

	t.Run("Should stop when the reference block cannot be fetched", func(t *testing.T) {
		chain, session := newNegotiation()
		chain.blockErr = errors.New("unavailable")

		_, err := NewAuthorizer(chain, session).Authorize(ctx, NewInteraction("transaction {}", nil, 100))
		assert.ErrorIs(t, err, ErrNetwork)
		assert.Empty(t, session.requestsTo(authzEndpoint))
	})

	t.Run("Should stop when the session is cancelled during negotiation", func(t *testing.T) {
		chain, session := newNegotiation()
		session.cancelOn = authzEndpoint

		_, err := NewAuthorizer(chain, session).Authorize(ctx, NewInteraction("transaction {}", nil, 100))
		assert.ErrorIs(t, err, ErrDeclined)
		assert.Empty(t, session.requestsTo(proposerEndpoint))
		assert.Empty(t, chain.sent)
	})

	t.Run("Should start a new attempt after a cancelled one", func(t *testing.T) {
		chain, session := newNegotiation()
		session.stopped = true

		txID, err := NewAuthorizer(chain, session).Authorize(ctx, NewInteraction("transaction {}", nil, 100))
		require.NoError(t, err)
		assert.True(t, session.CanContinue())
		require.Len(t, chain.sent, 1)
		assert.Equal(t, txID, chain.sent[0].ID())
	})

	t.Run("Should surface a failed signature request", func(t *testing.T) {
		chain, session := newNegotiation()
		session.errs[proposerEndpoint] = Wrapf(ErrDeclined, "user rejected")

		_, err := NewAuthorizer(chain, session).Authorize(ctx, NewInteraction("transaction {}", nil, 100))
		assert.ErrorIs(t, err, ErrDeclined)
		assert.Empty(t, session.requestsTo(payerEndpoint))
		assert.Empty(t, chain.sent)
	})

	t.Run("Should reject a response without signature", func(t *testing.T) {
		chain, session := newNegotiation()
		session.responses[payerEndpoint] = &AuthnResponse{Status: StatusApproved}

		_, err := NewAuthorizer(chain, session).Authorize(ctx, NewInteraction("transaction {}", nil, 100))
		assert.ErrorIs(t, err, ErrInvalidResponse)
		assert.Empty(t, chain.sent)
	})

	t.Run("Should surface submission failures", func(t *testing.T) {
		chain, session := newNegotiation()
		chain.sendErr = errors.New("rejected by access node")

		_, err := NewAuthorizer(chain, session).Authorize(ctx, NewInteraction("transaction {}", nil, 100))
		assert.ErrorIs(t, err, ErrNetwork)
		assert.True(t, strings.Contains(err.Error(), "rejected by access node"))
	})
}
