package flowchain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jpillora/backoff"
	"github.com/kollektive-hackathon/fcl-gateway/internal/fcl"
	"github.com/onflow/flow-go-sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedResults struct {
	statuses []flow.TransactionStatus
	final    error
	err      error
	calls    int
}

func (s *scriptedResults) GetTransactionResult(_ context.Context, _ flow.Identifier) (*flow.TransactionResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	i := s.calls
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	s.calls++

	result := &flow.TransactionResult{Status: s.statuses[i]}
	if result.Status == flow.TransactionStatusSealed {
		result.Error = s.final
	}
	return result, nil
}

func fastBackoff() *backoff.Backoff {
	return &backoff.Backoff{Min: time.Millisecond, Max: 2 * time.Millisecond}
}

func Test_WaitForSeal(t *testing.T) {
	ctx := context.Background()
	txID := flow.HexToID("aa")

	t.Run("Should poll until sealed", func(t *testing.T) {
		fetcher := &scriptedResults{statuses: []flow.TransactionStatus{
			flow.TransactionStatusPending,
			flow.TransactionStatusExecuted,
			flow.TransactionStatusSealed,
		}}

		result, err := WaitForSeal(ctx, fetcher, txID, fastBackoff())
		require.NoError(t, err)
		assert.Equal(t, flow.TransactionStatusSealed, result.Status)
		assert.Equal(t, 3, fetcher.calls)
	})

	t.Run("Should return execution errors", func(t *testing.T) {
		fetcher := &scriptedResults{
			statuses: []flow.TransactionStatus{flow.TransactionStatusSealed},
			final:    errors.New("panic: nope"),
		}

		result, err := WaitForSeal(ctx, fetcher, txID, fastBackoff())
		assert.ErrorIs(t, err, fcl.ErrInvalidResponse)
		require.NotNil(t, result)
	})

	t.Run("Should report access node failures", func(t *testing.T) {
		fetcher := &scriptedResults{err: errors.New("unavailable")}

		_, err := WaitForSeal(ctx, fetcher, txID, fastBackoff())
		assert.ErrorIs(t, err, fcl.ErrNetwork)
	})

	t.Run("Should stop when the context ends", func(t *testing.T) {
		fetcher := &scriptedResults{statuses: []flow.TransactionStatus{flow.TransactionStatusPending}}
		timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		_, err := WaitForSeal(timeout, fetcher, txID, fastBackoff())
		assert.ErrorIs(t, err, fcl.ErrNetwork)
	})
}
