package authz

import (
	"context"

	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/model"
	"gorm.io/gorm"
)

type attemptRepository interface {
	Create(ctx context.Context, attempt *model.AuthorizationAttempt) error
	UpdateStatus(ctx context.Context, transactionId string, status model.AttemptStatus, reason string) error
}

type gormAttemptRepository struct {
	db *gorm.DB
}

func (r gormAttemptRepository) Create(ctx context.Context, attempt *model.AuthorizationAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r gormAttemptRepository) UpdateStatus(ctx context.Context, transactionId string, status model.AttemptStatus, reason string) error {
	return r.db.WithContext(ctx).
		Model(&model.AuthorizationAttempt{}).
		Where("transaction_id = ?", transactionId).
		Updates(map[string]any{"status": status, "error": reason}).
		Error
}
