package cosign

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/kollektive-hackathon/fcl-gateway/internal/fcl"
	"github.com/kollektive-hackathon/fcl-gateway/internal/keymgmt"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/model"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/reject"
	"github.com/onflow/flow-go-sdk"
	"github.com/rs/zerolog/log"
)

type cosignService struct {
	wallets walletRepository
	keys    keymgmt.SignerProvider
	allowed map[string]bool
}

func newCosignService(wallets walletRepository, keys keymgmt.SignerProvider, allowedScripts []string) *cosignService {
	allowed := make(map[string]bool, len(allowedScripts))
	for _, script := range allowedScripts {
		allowed[normalizeScript(script)] = true
	}
	return &cosignService{wallets: wallets, keys: keys, allowed: allowed}
}

// VerifyAndSign signs signable with the custodial wallet of ownerId after
// checking that the message is the one its voucher produces.
func (cs *cosignService) VerifyAndSign(ctx context.Context, ownerId string, signable fcl.Signable) (*fcl.AuthnResponse, *reject.ProblemWithTrace) {
	if signable.Voucher == nil || signable.Addr == nil || signable.KeyID == nil {
		err := fmt.Errorf("signable misses voucher, addr or keyId")
		return nil, &reject.ProblemWithTrace{Problem: reject.RequestValidationProblem(), Cause: err}
	}

	log.Info().Msg(fmt.Sprintf("Checking cosign request of %s for %s", ownerId, *signable.Addr))

	custodialWallet, err := cs.wallets.FindByOwner(ctx, ownerId)
	if errors.Is(err, errWalletNotFound) {
		return nil, &reject.ProblemWithTrace{Problem: reject.NotFoundProblem(), Cause: err}
	}
	if err != nil {
		return nil, &reject.ProblemWithTrace{Problem: reject.UnexpectedProblem(err), Cause: err}
	}

	if problem := cs.validate(signable, *custodialWallet); problem != nil {
		return nil, problem
	}

	return cs.sign(ctx, signable, *custodialWallet)
}

func (cs *cosignService) validate(signable fcl.Signable, custodialWallet model.CustodialWallet) *reject.ProblemWithTrace {
	forbidden := func(err error) *reject.ProblemWithTrace {
		log.Warn().Err(err).Msg("Refusing cosign request")
		return &reject.ProblemWithTrace{Problem: reject.ForbiddenProblem(err.Error()), Cause: err}
	}

	if flow.HexToAddress(*signable.Addr) != flow.HexToAddress(custodialWallet.Address) ||
		*signable.KeyID != custodialWallet.KeyIndex {
		return forbidden(fmt.Errorf("signature requested for %s/%d which is not your wallet", *signable.Addr, *signable.KeyID))
	}

	transaction, err := signable.Voucher.Transaction()
	if err != nil {
		return reject.FclProblem(err)
	}

	if !cs.allowed[normalizeScript(string(transaction.Script))] {
		return forbidden(fmt.Errorf("transaction script is not allowed for custodial signatures"))
	}

	expected, err := cs.expectedMessage(signable, custodialWallet)
	if err != nil {
		return reject.FclProblem(err)
	}
	if !strings.EqualFold(expected, signable.Message) {
		return forbidden(fmt.Errorf("message does not match the voucher"))
	}

	return nil
}

// expectedMessage is the envelope message when the wallet pays and the
// payload message otherwise.
func (cs *cosignService) expectedMessage(signable fcl.Signable, custodialWallet model.CustodialWallet) (string, error) {
	payer := signable.Voucher.Payer
	if payer != nil && flow.HexToAddress(*payer) == flow.HexToAddress(custodialWallet.Address) {
		return signable.Voucher.EnvelopeMessage()
	}
	return signable.Voucher.PayloadMessage()
}

func (cs *cosignService) sign(ctx context.Context, signable fcl.Signable, custodialWallet model.CustodialWallet) (*fcl.AuthnResponse, *reject.ProblemWithTrace) {
	message, err := hex.DecodeString(signable.Message)
	if err != nil {
		return nil, &reject.ProblemWithTrace{Problem: reject.RequestValidationProblem(), Cause: err}
	}

	signer, err := cs.keys.SignerForResource(ctx, custodialWallet.ResourceId)
	if err != nil {
		return nil, &reject.ProblemWithTrace{Problem: reject.UnexpectedProblem(err), Cause: err}
	}

	signature, err := signer.Sign(message)
	if err != nil {
		return nil, &reject.ProblemWithTrace{Problem: reject.UnexpectedProblem(err), Cause: err}
	}

	addr := "0x" + flow.HexToAddress(custodialWallet.Address).Hex()
	keyID := custodialWallet.KeyIndex
	encoded := hex.EncodeToString(signature)

	log.Info().Msg(fmt.Sprintf("Cosigned transaction message for %s", addr))

	return &fcl.AuthnResponse{
		FType:  "PollingResponse",
		FVsn:   "1.0.0",
		Status: fcl.StatusApproved,
		Data: &fcl.AuthnData{
			FType:     "CompositeSignature",
			Addr:      &addr,
			KeyID:     &keyID,
			Signature: &encoded,
		},
	}, nil
}

// Wallet returns the custodial wallet of ownerId, filling in its public key
// from KMS the first time.
func (cs *cosignService) Wallet(ctx context.Context, ownerId string) (*model.CustodialWallet, *reject.ProblemWithTrace) {
	custodialWallet, err := cs.wallets.FindByOwner(ctx, ownerId)
	if errors.Is(err, errWalletNotFound) {
		return nil, &reject.ProblemWithTrace{Problem: reject.NotFoundProblem(), Cause: err}
	}
	if err != nil {
		return nil, &reject.ProblemWithTrace{Problem: reject.UnexpectedProblem(err), Cause: err}
	}
	if custodialWallet.PublicKey != "" {
		return custodialWallet, nil
	}

	pub, err := cs.keys.PublicKeyForResource(ctx, custodialWallet.ResourceId)
	if err != nil {
		return nil, &reject.ProblemWithTrace{Problem: reject.UnexpectedProblem(err), Cause: err}
	}

	custodialWallet.PublicKey = hex.EncodeToString(pub.Key.Encode())
	if err := cs.wallets.SavePublicKey(ctx, custodialWallet.Id, custodialWallet.PublicKey); err != nil {
		log.Warn().Err(err).Msg(fmt.Sprintf("Cannot store public key of wallet %d", custodialWallet.Id))
	}
	return custodialWallet, nil
}
