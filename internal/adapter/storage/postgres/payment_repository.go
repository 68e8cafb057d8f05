package postgres

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/voltgrid/console/internal/domain"
	"github.com/voltgrid/console/internal/ports"
)

type PaymentRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewPaymentRepository(db *gorm.DB, log *zap.Logger) ports.PaymentSource {
	return &PaymentRepository{
		db:  db,
		log: log,
	}
}

// ListPayments matches on the effective payment instant the aggregator
// buckets on: payment_time when set, created_at otherwise.
func (r *PaymentRepository) ListPayments(ctx context.Context, from, to time.Time) ([]domain.Payment, error) {
	var payments []domain.Payment
	result := r.db.WithContext(ctx).
		Where("COALESCE(payment_time, created_at) BETWEEN ? AND ?", from, to).
		Order("created_at").
		Find(&payments)
	if result.Error != nil {
		r.log.Error("Failed to list payments", zap.Error(result.Error))
		return nil, result.Error
	}
	return payments, nil
}
