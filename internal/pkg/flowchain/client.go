package flowchain

import (
	"context"
	"fmt"
	"time"

	"github.com/jpillora/backoff"
	"github.com/kollektive-hackathon/fcl-gateway/internal/fcl"
	"github.com/onflow/flow-go-sdk"
	"github.com/onflow/flow-go-sdk/access/grpc"
	"github.com/rs/zerolog/log"
)

// Client is the access node API used by the gateway.
type Client interface {
	fcl.ChainState
	ResultFetcher
}

// ResultFetcher reads the execution result of a submitted transaction.
type ResultFetcher interface {
	GetTransactionResult(ctx context.Context, txID flow.Identifier) (*flow.TransactionResult, error)
}

func NewClient(host string) (*grpc.Client, error) {
	c, err := grpc.NewClient(host)
	if err != nil {
		return nil, fcl.Wrap(fcl.ErrNetwork, err)
	}
	log.Info().Msg(fmt.Sprintf("Connected to access node %s", host))
	return c, nil
}

// DefaultSealBackoff matches the block time of mainnet.
func DefaultSealBackoff() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}
}

// WaitForSeal polls the result of txID until it is sealed. A transaction that
// failed execution is returned together with its error.
func WaitForSeal(ctx context.Context, fetcher ResultFetcher, txID flow.Identifier, b *backoff.Backoff) (*flow.TransactionResult, error) {
	if b == nil {
		b = DefaultSealBackoff()
	}

	for {
		result, err := fetcher.GetTransactionResult(ctx, txID)
		if err != nil {
			return nil, fcl.Wrap(fcl.ErrNetwork, err)
		}

		if result.Status == flow.TransactionStatusSealed {
			if result.Error != nil {
				log.Warn().Err(result.Error).Msg(fmt.Sprintf("Transaction %s sealed with error", txID))
				return result, fcl.Wrap(fcl.ErrInvalidResponse, result.Error)
			}
			log.Info().Msg(fmt.Sprintf("Transaction %s sealed", txID))
			return result, nil
		}

		log.Trace().Msg(fmt.Sprintf("Transaction %s is %s, will retry", txID, result.Status))

		select {
		case <-ctx.Done():
			return nil, fcl.Wrap(fcl.ErrNetwork, ctx.Err())
		case <-time.After(b.Duration()):
		}
	}
}
