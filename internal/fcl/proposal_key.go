package fcl

import (
	"context"

	"github.com/onflow/flow-go-sdk"
	"github.com/rs/zerolog/log"
)

// ResolveProposalKey returns the proposer's key and sequence number. A known
// sequence number is reused; otherwise it is read from the latest block and
// cached on the proposer account.
func ResolveProposalKey(ctx context.Context, chain ChainState, ix *Interaction) (ProposalKey, error) {
	if ix.Proposer == nil {
		return ProposalKey{}, ErrMissingProposer
	}
	account, ok := ix.Accounts[*ix.Proposer]
	if !ok || account.Addr == nil || account.KeyID == nil {
		return ProposalKey{}, Wrapf(ErrMissingProposer, "proposer %s is not a resolved account", *ix.Proposer)
	}

	if account.SequenceNum == nil {
		address := flow.HexToAddress(*account.Addr)
		log.Debug().Msgf("Fetching sequence number of %s key %d", address.Hex(), *account.KeyID)

		onChain, err := chain.GetAccountAtLatestBlock(ctx, address)
		if err != nil {
			return ProposalKey{}, Wrap(ErrNetwork, err)
		}

		sequenceNum, found := keySequenceNumber(onChain, *account.KeyID)
		if !found {
			return ProposalKey{}, Wrapf(ErrInvalidResponse, "account %s has no key %d", address.Hex(), *account.KeyID)
		}
		account.SequenceNum = &sequenceNum
	}

	sequenceNum := *account.SequenceNum
	return ProposalKey{
		Address:     strPtr(sansPrefix(*account.Addr)),
		KeyID:       account.KeyID,
		SequenceNum: &sequenceNum,
	}, nil
}

func keySequenceNumber(account *flow.Account, keyID int) (uint64, bool) {
	if account == nil {
		return 0, false
	}
	for _, key := range account.Keys {
		if key != nil && key.Index == keyID {
			return key.SequenceNumber, true
		}
	}
	return 0, false
}

func strPtr(s string) *string {
	return &s
}
