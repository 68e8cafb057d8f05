package postgres

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/voltgrid/console/internal/domain"
	"github.com/voltgrid/console/internal/ports"
)

// StationRepository serves the station directory from the network's own
// database; the alternative source is the HTTP listing client.
type StationRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewStationRepository(db *gorm.DB, log *zap.Logger) ports.StationDirectory {
	return &StationRepository{
		db:  db,
		log: log,
	}
}

func (r *StationRepository) ListStations(ctx context.Context) ([]domain.Station, error) {
	var stations []domain.Station
	result := r.db.WithContext(ctx).Order("id").Find(&stations)
	if result.Error != nil {
		r.log.Error("Failed to list stations", zap.Error(result.Error))
		return nil, result.Error
	}
	return stations, nil
}
