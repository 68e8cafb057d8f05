package postgres

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/voltgrid/console/internal/domain"
	"github.com/voltgrid/console/internal/ports"
)

type SessionRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewSessionRepository(db *gorm.DB, log *zap.Logger) ports.SessionSource {
	return &SessionRepository{
		db:  db,
		log: log,
	}
}

func (r *SessionRepository) ListSessions(ctx context.Context, from, to time.Time) ([]domain.ChargingSession, error) {
	var sessions []domain.ChargingSession
	result := r.db.WithContext(ctx).
		Where("start_time BETWEEN ? AND ?", from, to).
		Order("start_time").
		Find(&sessions)
	if result.Error != nil {
		r.log.Error("Failed to list sessions", zap.Error(result.Error))
		return nil, result.Error
	}
	return sessions, nil
}
