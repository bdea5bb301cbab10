package reject

import (
	"errors"
	"net/http"

	"github.com/kollektive-hackathon/fcl-gateway/internal/fcl"
	"github.com/rs/zerolog/log"
)

var fclProblems = map[string]struct {
	status int
	title  string
}{
	fcl.ErrUnauthenticated.Code:    {http.StatusUnauthorized, "User is not authenticated"},
	fcl.ErrInvalidSession.Code:     {http.StatusUnauthorized, "Wallet session is not usable"},
	fcl.ErrMissingEndpoint.Code:    {http.StatusUnprocessableEntity, "Wallet service is missing"},
	fcl.ErrInvalidURL.Code:         {http.StatusUnprocessableEntity, "Wallet endpoint is invalid"},
	fcl.ErrDecodeFailure.Code:      {http.StatusUnprocessableEntity, "Cannot decode wallet data"},
	fcl.ErrInvalidResponse.Code:    {http.StatusUnprocessableEntity, "Invalid wallet response"},
	fcl.ErrInvalidInteraction.Code: {http.StatusUnprocessableEntity, "Invalid interaction"},
	fcl.ErrMissingProposer.Code:    {http.StatusUnprocessableEntity, "Interaction has no proposer"},
	fcl.ErrDeclined.Code:           {http.StatusConflict, "Request declined"},
	fcl.ErrNetwork.Code:            {http.StatusBadGateway, "Flow network unavailable"},
}

// FclProblem converts an error of the authorization pipeline into the problem
// returned to clients. Errors without a known kind become unexpected problems.
func FclProblem(err error) *ProblemWithTrace {
	var fclErr *fcl.Error
	if !errors.As(err, &fclErr) {
		return &ProblemWithTrace{Problem: UnexpectedProblem(err), Cause: err}
	}

	mapped, ok := fclProblems[fclErr.Code]
	if !ok {
		return &ProblemWithTrace{Problem: UnexpectedProblem(err), Cause: err}
	}

	log.Warn().Err(err).Msg("Authorization request failed")
	return &ProblemWithTrace{
		Problem: NewProblem().
			WithTitle(mapped.title).
			WithStatus(mapped.status).
			WithCode(fclErr.Code).
			WithDetail(err.Error()).
			Build(),
		Cause: err,
	}
}
