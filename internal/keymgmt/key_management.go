package keymgmt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"github.com/onflow/flow-go-sdk/crypto"
	"github.com/onflow/flow-go-sdk/crypto/cloudkms"
	"github.com/rs/zerolog/log"
)

const keyPendingGeneration = "KEY_PENDING_GENERATION"

// SignerProvider resolves the signer of a custodial wallet key.
type SignerProvider interface {
	SignerForResource(ctx context.Context, resourceId string) (crypto.Signer, error)
	PublicKeyForResource(ctx context.Context, resourceId string) (*PublicKey, error)
}

type PublicKey struct {
	Key      crypto.PublicKey
	HashAlgo crypto.HashAlgorithm
	SignAlgo crypto.SignatureAlgorithm
}

// publicKeyFetcher is the part of cloudkms.Client used to read public keys.
type publicKeyFetcher interface {
	GetPublicKey(ctx context.Context, key cloudkms.Key) (crypto.PublicKey, crypto.HashAlgorithm, error)
}

// KMS signs with keys held in Google Cloud KMS.
type KMS struct {
	client *cloudkms.Client
}

func NewKMS(ctx context.Context) (*KMS, error) {
	client, err := cloudkms.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &KMS{client: client}, nil
}

func (k *KMS) SignerForResource(ctx context.Context, resourceId string) (crypto.Signer, error) {
	key, err := cloudkms.KeyFromResourceID(resourceId)
	if err != nil {
		return nil, err
	}
	signer, err := k.client.SignerForKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return signer, nil
}

func (k *KMS) PublicKeyForResource(ctx context.Context, resourceId string) (*PublicKey, error) {
	key, err := cloudkms.KeyFromResourceID(resourceId)
	if err != nil {
		return nil, err
	}
	return GetPublicKey(ctx, k.client, key, nil)
}

func defaultBackoff() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    time.Minute,
		Factor: 5,
		Jitter: true,
	}
}

// GetPublicKey reads the public key of kmsKey, retrying while the key is
// still being generated.
func GetPublicKey(ctx context.Context, kmsClient publicKeyFetcher, kmsKey cloudkms.Key, b *backoff.Backoff) (*PublicKey, error) {
	if b == nil {
		b = defaultBackoff()
	}
	deadline := time.Now().Add(60 * time.Second)

	log.Trace().Msg(fmt.Sprintf("Getting public key for KMS key, keyId: %s", kmsKey.KeyID))

	for {
		publicKey, hashAlgo, err := kmsClient.GetPublicKey(ctx, kmsKey)
		if err == nil && publicKey != nil {
			return &PublicKey{
				Key:      publicKey,
				HashAlgo: hashAlgo,
				SignAlgo: publicKey.Algorithm(),
			}, nil
		}
		// non-retryable error
		if err != nil && !strings.Contains(err.Error(), keyPendingGeneration) {
			return nil, err
		}

		log.Trace().Msg("KMS key is pending creation, will retry")

		if time.Now().After(deadline) {
			err = fmt.Errorf("timeout while trying to get public key")
			log.Error().Err(err).Msg(fmt.Sprintf("KMS key %s never became available", kmsKey.KeyID))
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.Duration()):
		}
	}
}
