package fcl

import (
	"context"
	"encoding/json"

	"github.com/onflow/flow-go-sdk"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Authorizer drives one transaction from negotiation to submission.
type Authorizer struct {
	chain   ChainState
	session Session
}

func NewAuthorizer(chain ChainState, session Session) *Authorizer {
	return &Authorizer{chain: chain, session: session}
}

// Authorize negotiates signers for ix with the current user's authorization
// service, collects their signatures and submits the transaction. Any failing
// step ends the attempt with that step's error.
func (a *Authorizer) Authorize(ctx context.Context, ix *Interaction) (flow.Identifier, error) {
	user := a.session.CurrentUser()
	if user == nil || !user.LoggedIn {
		return flow.EmptyID, ErrUnauthenticated
	}

	service := user.Service(ServiceTypeAuthz)
	if service == nil || service.Endpoint == "" {
		return flow.EmptyID, ErrMissingEndpoint
	}

	a.session.Resume()

	block, err := a.chain.GetLatestBlock(ctx, true)
	if err != nil {
		return flow.EmptyID, Wrap(ErrNetwork, err)
	}
	refBlock := block.ID.Hex()
	ix.Message.RefBlock = &refBlock

	log.Debug().Msgf("Requesting pre-authorization from %s at block %s", service.Endpoint, refBlock)

	preSignable, err := NewPreSignable(ix)
	if err != nil {
		return flow.EmptyID, err
	}
	body, err := json.Marshal(preSignable)
	if err != nil {
		return flow.EmptyID, Wrap(ErrGeneric, err)
	}

	resp, err := a.session.ExecService(ctx, *service, body)
	if err != nil {
		return flow.EmptyID, err
	}
	if !a.session.CanContinue() {
		return flow.EmptyID, Wrapf(ErrDeclined, "authorization cancelled")
	}

	ix.Authorizations = []string{}
	ResolveAccounts(ix, ResolvePreAuthz(resp, a.session))

	if _, err := ResolveProposalKey(ctx, a.chain, ix); err != nil {
		return flow.EmptyID, err
	}

	if err := a.resolveSignatures(ctx, ix); err != nil {
		return flow.EmptyID, err
	}

	voucher, err := BuildVoucher(ix)
	if err != nil {
		return flow.EmptyID, err
	}
	tx, err := voucher.Transaction()
	if err != nil {
		return flow.EmptyID, err
	}

	if err := a.chain.SendTransaction(ctx, *tx); err != nil {
		return flow.EmptyID, Wrap(ErrNetwork, err)
	}

	log.Info().Msgf("Submitted transaction %s", tx.ID().Hex())
	return tx.ID(), nil
}

// resolveSignatures collects payload signatures before the envelope
// signature, since the envelope covers them.
func (a *Authorizer) resolveSignatures(ctx context.Context, ix *Interaction) error {
	if err := a.signDomain(ctx, ix, InsideSigners(ix), (*Voucher).PayloadMessage); err != nil {
		return err
	}
	return a.signDomain(ctx, ix, OutsideSigners(ix), (*Voucher).EnvelopeMessage)
}

type signatureRequest struct {
	account *SignableUser
	body    []byte
}

func (a *Authorizer) signDomain(
	ctx context.Context,
	ix *Interaction,
	tempIDs []string,
	message func(*Voucher) (string, error),
) error {
	voucher, err := BuildVoucher(ix)
	if err != nil {
		return err
	}

	var requests []signatureRequest
	var msg string
	for _, tempID := range tempIDs {
		account := ix.Accounts[tempID]
		if account.Signature != nil {
			continue
		}
		if account.Signer == nil {
			return Wrapf(ErrMissingEndpoint, "no signing service for %s", tempID)
		}

		if msg == "" {
			if msg, err = message(voucher); err != nil {
				return err
			}
		}

		body, err := json.Marshal(NewSignable(ix, voucher, account, msg))
		if err != nil {
			return Wrap(ErrGeneric, err)
		}
		requests = append(requests, signatureRequest{account: account, body: body})
	}

	signatures := make([]string, len(requests))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, req := range requests {
		i, req := i, req
		group.Go(func() error {
			resp, err := req.account.Signer.Sign(groupCtx, req.body)
			if err != nil {
				return err
			}
			if resp == nil || resp.Data == nil || resp.Data.Signature == nil {
				return Wrapf(ErrInvalidResponse, "no signature returned for %s", req.account.TempID)
			}
			signatures[i] = *resp.Data.Signature
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for i, req := range requests {
		req.account.Signature = &signatures[i]
		req.account.Signer = nil
	}

	return nil
}
