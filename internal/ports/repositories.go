package ports

import (
	"context"
	"time"

	"github.com/voltgrid/console/internal/domain"
)

// StationDirectory lists the network's stations. The report service rebuilds
// its station→region map from this listing on every refresh.
type StationDirectory interface {
	ListStations(ctx context.Context) ([]domain.Station, error)
}

// SessionSource lists raw charging sessions overlapping [from, to]. Both the
// HTTP listing client and the PostgreSQL repository implement it.
type SessionSource interface {
	ListSessions(ctx context.Context, from, to time.Time) ([]domain.ChargingSession, error)
}

// PaymentSource lists raw payment records in [from, to].
type PaymentSource interface {
	ListPayments(ctx context.Context, from, to time.Time) ([]domain.Payment, error)
}
