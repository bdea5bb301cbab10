package authz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kollektive-hackathon/fcl-gateway/internal/fcl"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/config"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/flowchain"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/model"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/pubsub"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/walletapi"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/ws"
	"github.com/kollektive-hackathon/fcl-gateway/internal/session"
	"github.com/onflow/flow-go-sdk"
	"github.com/rs/zerolog/log"
)

var errSessionNotFound = errors.New("session not found")

type AuthorizeRequest struct {
	Cadence      string            `json:"cadence" binding:"required"`
	Args         []json.RawMessage `json:"args"`
	ComputeLimit *int              `json:"computeLimit"`
}

type AuthorizeResponse struct {
	TransactionId string              `json:"transactionId"`
	Status        model.AttemptStatus `json:"status"`
	Error         string              `json:"error,omitempty"`
}

type authzService struct {
	cfg       config.Config
	api       *walletapi.Client
	chain     flowchain.Client
	sessions  *session.Store
	hub       *ws.WebSocketNotificationHub
	registry  *fcl.AddressRegistry
	attempts  attemptRepository
	publisher pubsub.Publisher
}

// CreateSession registers a session whose wallet views are shown to the
// websocket clients of its topic.
func (s *authzService) CreateSession() string {
	id := uuid.NewString()
	s.sessions.Put(id, session.New(s.cfg, s.api, s.hub.Presenter(ws.SessionTopic(id))))
	log.Info().Msg(fmt.Sprintf("Created session %s", id))
	return id
}

func (s *authzService) session(id string) (*session.Session, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, errSessionNotFound
	}
	return sess, nil
}

func (s *authzService) Authenticate(ctx context.Context, id string) (*fcl.User, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return sess.Authenticate(ctx)
}

func (s *authzService) CancelView(id string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	sess.Cancel()
	return nil
}

func (s *authzService) EndSession(id string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	sess.Unauthenticate()
	s.sessions.Delete(id)
	return nil
}

// Authorize runs the authorization pipeline for request in session id and
// records the submitted transaction. With wait the seal is tracked here,
// otherwise the seal watcher follows it.
func (s *authzService) Authorize(ctx context.Context, id string, request AuthorizeRequest, wait bool) (*AuthorizeResponse, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	// The session may be ended while the pipeline runs.
	user := sess.CurrentUser()
	if user == nil || !user.LoggedIn {
		return nil, fcl.ErrUnauthenticated
	}

	args := make([]fcl.Argument, 0, len(request.Args))
	for _, raw := range request.Args {
		arg, err := fcl.NewRawArgument(raw)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	computeLimit := s.cfg.ComputeLimit
	if request.ComputeLimit != nil {
		computeLimit = *request.ComputeLimit
	}

	cadence := s.registry.ProcessScript(request.Cadence)
	ix := fcl.NewInteraction(cadence, args, computeLimit)

	txId, err := fcl.NewAuthorizer(s.chain, sess).Authorize(ctx, ix)
	if err != nil {
		return nil, err
	}

	attempt := &model.AuthorizationAttempt{
		SessionId:     id,
		Address:       user.Addr.Hex(),
		TransactionId: txId.Hex(),
		Cadence:       cadence,
		Status:        model.AttemptSubmitted,
	}
	// The transaction is already on its way, so a failed write is only logged.
	if err := s.attempts.Create(ctx, attempt); err != nil {
		log.Warn().Err(err).Msg(fmt.Sprintf("Cannot record authorization attempt %s", attempt.TransactionId))
	}

	response := &AuthorizeResponse{TransactionId: attempt.TransactionId, Status: model.AttemptSubmitted}
	if !wait {
		s.publisher.Publish(ctx, AuthorizationSubmitted{
			AttemptId:     attempt.Id,
			SessionId:     id,
			Address:       attempt.Address,
			TransactionId: attempt.TransactionId,
		})
		return response, nil
	}

	status, reason, err := s.trackSeal(ctx, id, txId)
	if err != nil {
		return nil, err
	}
	response.Status = status
	response.Error = reason
	return response, nil
}

// trackSeal waits for txId to be sealed, stores the outcome and notifies the
// session's websocket clients.
func (s *authzService) trackSeal(ctx context.Context, sessionId string, txId flow.Identifier) (model.AttemptStatus, string, error) {
	status := model.AttemptSealed
	reason := ""

	result, err := flowchain.WaitForSeal(ctx, s.chain, txId, nil)
	if err != nil {
		if result == nil {
			return "", "", err
		}
		status = model.AttemptFailed
		reason = result.Error.Error()
	}

	if err := s.attempts.UpdateStatus(ctx, txId.Hex(), status, reason); err != nil {
		log.Warn().Err(err).Msg(fmt.Sprintf("Cannot update authorization attempt %s", txId.Hex()))
	}

	s.hub.Publish(ws.SessionTopic(sessionId), map[string]any{
		"type": eventTransactionSealed,
		"payload": AuthorizeResponse{
			TransactionId: txId.Hex(),
			Status:        status,
			Error:         reason,
		},
	})

	return status, reason, nil
}

// BuildVoucher returns the signing document of ix without contacting any
// service.
func (s *authzService) BuildVoucher(ix *fcl.Interaction) (*fcl.Voucher, error) {
	return fcl.BuildVoucher(ix)
}
