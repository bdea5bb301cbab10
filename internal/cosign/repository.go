package cosign

import (
	"context"
	"errors"

	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/model"
	"gorm.io/gorm"
)

var errWalletNotFound = errors.New("custodial wallet not found")

type walletRepository interface {
	FindByOwner(ctx context.Context, ownerId string) (*model.CustodialWallet, error)
	SavePublicKey(ctx context.Context, walletId uint64, publicKey string) error
}

type gormWalletRepository struct {
	db *gorm.DB
}

func (r gormWalletRepository) FindByOwner(ctx context.Context, ownerId string) (*model.CustodialWallet, error) {
	var custodialWallet model.CustodialWallet
	result := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerId).
		First(&custodialWallet)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, errWalletNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &custodialWallet, nil
}

func (r gormWalletRepository) SavePublicKey(ctx context.Context, walletId uint64, publicKey string) error {
	return r.db.WithContext(ctx).
		Model(&model.CustodialWallet{}).
		Where("id = ?", walletId).
		Update("public_key", publicKey).
		Error
}
