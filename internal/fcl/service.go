package fcl

import (
	"context"

	"github.com/onflow/flow-go-sdk"
)

const (
	ServiceTypeAuthn    = "authn"
	ServiceTypeAuthz    = "authz"
	ServiceTypePreAuthz = "pre-authz"

	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusDeclined = "DECLINED"
)

// Service describes a wallet endpoint reported during a negotiation.
type Service struct {
	FType    string            `json:"f_type,omitempty"`
	FVsn     string            `json:"f_vsn,omitempty"`
	Type     string            `json:"type"`
	Method   string            `json:"method,omitempty"`
	Endpoint string            `json:"endpoint"`
	UID      string            `json:"uid,omitempty"`
	ID       string            `json:"id,omitempty"`
	Identity *Identity         `json:"identity,omitempty"`
	Provider *Provider         `json:"provider,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
}

type Identity struct {
	Address string `json:"address"`
	KeyID   *int   `json:"keyId"`
}

type Provider struct {
	Address     string `json:"address,omitempty"`
	Name        string `json:"name,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
}

// AuthnResponse is the polling response returned by every wallet endpoint.
type AuthnResponse struct {
	FType   string     `json:"f_type,omitempty"`
	FVsn    string     `json:"f_vsn,omitempty"`
	Status  string     `json:"status"`
	Reason  *string    `json:"reason,omitempty"`
	Updates *Service   `json:"updates,omitempty"`
	Local   *Service   `json:"local,omitempty"`
	Data    *AuthnData `json:"data,omitempty"`
}

type AuthnData struct {
	FType         string    `json:"f_type,omitempty"`
	Addr          *string   `json:"addr,omitempty"`
	Services      []Service `json:"services,omitempty"`
	Proposer      *Service  `json:"proposer,omitempty"`
	Payer         []Service `json:"payer,omitempty"`
	Authorization []Service `json:"authorization,omitempty"`
	KeyID         *int      `json:"keyId,omitempty"`
	Signature     *string   `json:"signature,omitempty"`
}

// User is the identity established by authentication.
type User struct {
	Addr     flow.Address `json:"addr"`
	LoggedIn bool         `json:"loggedIn"`
	Services []Service    `json:"services"`
}

// Service returns the first service of the given type.
func (u *User) Service(serviceType string) *Service {
	if u == nil {
		return nil
	}
	for i := range u.Services {
		if u.Services[i].Type == serviceType {
			return &u.Services[i]
		}
	}
	return nil
}

// ServiceExecutor runs a wallet service with body and returns its terminal
// response.
type ServiceExecutor interface {
	ExecService(ctx context.Context, service Service, body []byte) (*AuthnResponse, error)
}

// Session is the authentication context an authorization runs in.
type Session interface {
	ServiceExecutor
	CurrentUser() *User
	CanContinue() bool
	// Resume clears a cancel left over from an earlier attempt.
	Resume()
}

// ChainState is the subset of the Flow access API the pipeline consumes.
type ChainState interface {
	GetLatestBlock(ctx context.Context, isSealed bool) (*flow.Block, error)
	GetAccountAtLatestBlock(ctx context.Context, address flow.Address) (*flow.Account, error)
	SendTransaction(ctx context.Context, tx flow.Transaction) error
}

// SigningCapability requests a signature for an encoded Signable.
type SigningCapability interface {
	Sign(ctx context.Context, signable []byte) (*AuthnResponse, error)
}

// ServiceSigner routes signature requests back to the service that reported
// the account.
type ServiceSigner struct {
	Exec    ServiceExecutor
	Service Service
}

func (s ServiceSigner) Sign(ctx context.Context, signable []byte) (*AuthnResponse, error) {
	return s.Exec.ExecService(ctx, s.Service, signable)
}
