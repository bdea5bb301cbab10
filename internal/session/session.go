package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpillora/backoff"
	"github.com/kollektive-hackathon/fcl-gateway/internal/fcl"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/config"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/walletapi"
	"github.com/onflow/flow-go-sdk"
	"github.com/rs/zerolog/log"
)

// Presenter shows a wallet's login or approval view to the user.
type Presenter interface {
	Present(url string) error
	Dismiss()
}

// Session holds the authenticated user and the wallet view of one client.
type Session struct {
	cfg       config.Config
	api       *walletapi.Client
	presenter Presenter

	mu   sync.RWMutex
	user *fcl.User

	// view holds a token while a wallet view is shown. Concurrent signature
	// requests take turns showing theirs.
	view chan struct{}

	stopped atomic.Bool
}

func New(cfg config.Config, api *walletapi.Client, presenter Presenter) *Session {
	return &Session{cfg: cfg, api: api, presenter: presenter, view: make(chan struct{}, 1)}
}

// Authenticate logs the user in with the configured authn endpoint.
func (s *Session) Authenticate(ctx context.Context) (*fcl.User, error) {
	if s.cfg.AuthnEndpoint == "" {
		return nil, fcl.Wrapf(fcl.ErrInvalidURL, "no authn endpoint configured")
	}
	s.Resume()

	params := map[string]string{}
	if s.cfg.Scope != "" {
		params["scope"] = s.cfg.Scope
	}

	resp, err := s.exec(ctx, s.cfg.AuthnEndpoint, params, nil)
	if err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.Addr == nil {
		return nil, fcl.Wrapf(fcl.ErrInvalidResponse, "authn response has no address")
	}

	user := &fcl.User{
		Addr:     flow.HexToAddress(*resp.Data.Addr),
		LoggedIn: true,
		Services: resp.Data.Services,
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	log.Info().Msgf("Authenticated %s with %d services", user.Addr.Hex(), len(user.Services))
	return user, nil
}

func (s *Session) Unauthenticate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}

func (s *Session) CurrentUser() *fcl.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Cancel marks the session as not to be continued. Calls already in flight
// are not interrupted.
func (s *Session) Cancel() {
	s.stopped.Store(true)
}

// Resume clears a previous Cancel before a new attempt.
func (s *Session) Resume() {
	s.stopped.Store(false)
}

func (s *Session) CanContinue() bool {
	return !s.stopped.Load()
}

func (s *Session) ExecService(ctx context.Context, service fcl.Service, body []byte) (*fcl.AuthnResponse, error) {
	if service.Endpoint == "" {
		return nil, fcl.Wrapf(fcl.ErrMissingEndpoint, "service %s has no endpoint", service.Type)
	}
	return s.exec(ctx, service.Endpoint, service.Params, body)
}

// exec posts to a wallet endpoint and follows a PENDING answer until the
// wallet approves or declines.
func (s *Session) exec(ctx context.Context, endpoint string, params map[string]string, body []byte) (*fcl.AuthnResponse, error) {
	resp, err := s.api.ExecHTTPPost(ctx, endpoint, params, body)
	if err != nil {
		return nil, err
	}

	if resp.Status == fcl.StatusPending {
		if resp, err = s.poll(ctx, resp); err != nil {
			return nil, err
		}
	}

	switch resp.Status {
	case fcl.StatusApproved:
		return resp, nil
	case fcl.StatusDeclined:
		reason := "declined by wallet"
		if resp.Reason != nil {
			reason = *resp.Reason
		}
		return nil, fcl.Wrapf(fcl.ErrDeclined, "%s", reason)
	default:
		return nil, fcl.Wrapf(fcl.ErrInvalidResponse, "unexpected status %q", resp.Status)
	}
}

func (s *Session) poll(ctx context.Context, pending *fcl.AuthnResponse) (*fcl.AuthnResponse, error) {
	updates := pending.Updates
	if updates == nil || updates.Endpoint == "" {
		return nil, fcl.Wrapf(fcl.ErrMissingEndpoint, "pending response has no updates endpoint")
	}

	if pending.Local != nil {
		dismiss, err := s.present(ctx, *pending.Local)
		if err != nil {
			return nil, err
		}
		defer dismiss()
	}

	b := &backoff.Backoff{
		Min:    s.cfg.PollMin,
		Max:    s.cfg.PollMax,
		Factor: 1.5,
	}

	resp := pending
	for resp.Status == fcl.StatusPending {
		if !s.CanContinue() {
			return nil, fcl.Wrapf(fcl.ErrDeclined, "wallet view closed")
		}

		select {
		case <-ctx.Done():
			return nil, fcl.Wrap(fcl.ErrNetwork, ctx.Err())
		case <-time.After(b.Duration()):
		}

		if !s.CanContinue() {
			return nil, fcl.Wrapf(fcl.ErrDeclined, "wallet view closed")
		}

		var err error
		resp, err = s.api.ExecHTTPPost(ctx, updates.Endpoint, updates.Params, nil)
		if err != nil {
			return nil, err
		}
	}

	return resp, nil
}

// present shows local once no other view of the session is open. The returned
// func closes the view and lets the next one in.
func (s *Session) present(ctx context.Context, local fcl.Service) (func(), error) {
	if s.presenter == nil {
		return nil, fcl.Wrapf(fcl.ErrInvalidSession, "no presenter for %s", local.Endpoint)
	}
	u, err := s.api.BuildURL(local.Endpoint, local.Params)
	if err != nil {
		return nil, fcl.Wrap(fcl.ErrInvalidSession, err)
	}

	select {
	case s.view <- struct{}{}:
	case <-ctx.Done():
		return nil, fcl.Wrap(fcl.ErrNetwork, ctx.Err())
	}

	if err := s.presenter.Present(u.String()); err != nil {
		<-s.view
		return nil, fcl.Wrap(fcl.ErrInvalidSession, err)
	}

	return func() {
		s.presenter.Dismiss()
		<-s.view
	}, nil
}
