package fcl

import (
	"context"
	"sync"

	"github.com/onflow/flow-go-sdk"
)

type fakeChain struct {
	mu           sync.Mutex
	block        *flow.Block
	blockErr     error
	accounts     map[flow.Address]*flow.Account
	accountErr   error
	accountCalls int
	sendErr      error
	sent         []flow.Transaction
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		block: &flow.Block{BlockHeader: flow.BlockHeader{
			ID: flow.HexToID("9035b2a2a4e8f1d1c7c2a67c3a5e1b0c2f9a3c7d8e1f2a3b4c5d6e7f8091a2b3"),
		}},
		accounts: map[flow.Address]*flow.Account{},
	}
}

func (c *fakeChain) withAccount(address string, keyIndex int, sequenceNumber uint64) *fakeChain {
	addr := flow.HexToAddress(address)
	c.accounts[addr] = &flow.Account{
		Address: addr,
		Keys:    []*flow.AccountKey{{Index: keyIndex, SequenceNumber: sequenceNumber}},
	}
	return c
}

func (c *fakeChain) GetLatestBlock(_ context.Context, _ bool) (*flow.Block, error) {
	return c.block, c.blockErr
}

func (c *fakeChain) GetAccountAtLatestBlock(_ context.Context, address flow.Address) (*flow.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accountCalls++
	if c.accountErr != nil {
		return nil, c.accountErr
	}
	return c.accounts[address], nil
}

func (c *fakeChain) SendTransaction(_ context.Context, tx flow.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, tx)
	return nil
}

// fakeSession answers services by endpoint.
type fakeSession struct {
	mu        sync.Mutex
	user      *User
	stopped   bool
	cancelOn  string
	responses map[string]*AuthnResponse
	errs      map[string]error
	requests  map[string][][]byte
}

func newFakeSession(authzEndpoint string) *fakeSession {
	return &fakeSession{
		user: &User{
			Addr:     flow.HexToAddress("0x01"),
			LoggedIn: true,
			Services: []Service{{Type: ServiceTypeAuthz, Endpoint: authzEndpoint}},
		},
		responses: map[string]*AuthnResponse{},
		errs:      map[string]error{},
		requests:  map[string][][]byte{},
	}
}

func (s *fakeSession) ExecService(_ context.Context, service Service, body []byte) (*AuthnResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[service.Endpoint] = append(s.requests[service.Endpoint], body)
	if service.Endpoint == s.cancelOn {
		s.stopped = true
	}
	if err := s.errs[service.Endpoint]; err != nil {
		return nil, err
	}
	return s.responses[service.Endpoint], nil
}

func (s *fakeSession) CurrentUser() *User {
	return s.user
}

func (s *fakeSession) CanContinue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.stopped
}

func (s *fakeSession) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = false
}

func (s *fakeSession) requestsTo(endpoint string) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[endpoint]
}

type fakeSigner struct {
	signature string
	calls     int
}

func (s *fakeSigner) Sign(_ context.Context, _ []byte) (*AuthnResponse, error) {
	s.calls++
	return approvedSignature(s.signature), nil
}

func approvedSignature(signature string) *AuthnResponse {
	return &AuthnResponse{
		Status: StatusApproved,
		Data:   &AuthnData{FType: "CompositeSignature", Signature: &signature},
	}
}

func intPtr(i int) *int {
	return &i
}

func uint64Ptr(i uint64) *uint64 {
	return &i
}

func candidate(address string, keyID int, role Role) *SignableUser {
	return &SignableUser{
		Kind:  kindAccount,
		Addr:  &address,
		KeyID: &keyID,
		Role:  role,
	}
}
