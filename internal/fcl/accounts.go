package fcl

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	rolePreAuthzProposer   = "PROPOSER"
	rolePreAuthzPayer      = "PAYER"
	rolePreAuthzAuthorizer = "AUTHORIZER"
)

type roleService struct {
	role    string
	service Service
}

// ResolvePreAuthz turns a pre-authorization response into candidate signers,
// proposer first, then payers, then authorizers. Services that do not carry
// both an address and a key index are skipped.
func ResolvePreAuthz(resp *AuthnResponse, exec ServiceExecutor) []*SignableUser {
	if resp == nil || resp.Data == nil {
		return nil
	}

	var axs []roleService
	if resp.Data.Proposer != nil {
		axs = append(axs, roleService{rolePreAuthzProposer, *resp.Data.Proposer})
	}
	for _, s := range resp.Data.Payer {
		axs = append(axs, roleService{rolePreAuthzPayer, s})
	}
	for _, s := range resp.Data.Authorization {
		axs = append(axs, roleService{rolePreAuthzAuthorizer, s})
	}

	candidates := make([]*SignableUser, 0, len(axs))
	for _, ax := range axs {
		identity := ax.service.Identity
		if identity == nil || identity.Address == "" || identity.KeyID == nil {
			log.Debug().Msgf("Skipping %s service %s without identity", ax.role, ax.service.Endpoint)
			continue
		}

		address := identity.Address
		keyID := *identity.KeyID
		candidates = append(candidates, &SignableUser{
			Kind:   kindAccount,
			TempID: strings.Join([]string{address, strconv.Itoa(keyID)}, "|"),
			Addr:   &address,
			KeyID:  &keyID,
			Role: Role{
				Proposer:   ax.role == rolePreAuthzProposer,
				Authorizer: ax.role == rolePreAuthzAuthorizer,
				Payer:      ax.role == rolePreAuthzPayer,
			},
			Signer: ServiceSigner{Exec: exec, Service: ax.service},
		})
	}

	return candidates
}

// ResolveAccounts merges candidates into ix under their canonical
// "address-keyId" temp-id and records proposer, payer and authorizations.
func ResolveAccounts(ix *Interaction, candidates []*SignableUser) {
	if ix.Accounts == nil {
		ix.Accounts = map[string]*SignableUser{}
	}

	for _, candidate := range candidates {
		if candidate.Addr == nil || candidate.KeyID == nil {
			continue
		}
		tempID := canonicalTempID(*candidate.Addr, *candidate.KeyID)

		account, exists := ix.Accounts[tempID]
		if exists {
			account.Role.Merge(candidate.Role)
		} else {
			account = candidate
			account.TempID = tempID
			ix.Accounts[tempID] = account
		}

		if candidate.Role.Proposer {
			if ix.Proposer != nil && *ix.Proposer != tempID {
				log.Warn().Msgf("Proposer %s replaced by %s", *ix.Proposer, tempID)
			}
			ix.Proposer = &tempID
		}
		if candidate.Role.Payer {
			if ix.Payer != nil && *ix.Payer != tempID {
				log.Warn().Msgf("Payer %s replaced by %s", *ix.Payer, tempID)
			}
			ix.Payer = &tempID
		}
		if candidate.Role.Authorizer {
			ix.Authorizations = append(ix.Authorizations, tempID)
		}
	}
}

func canonicalTempID(address string, keyID int) string {
	return strings.Join([]string{address, strconv.Itoa(keyID)}, "-")
}
