package mocks

import (
	"context"
	"time"

	"github.com/voltgrid/console/internal/domain"
)

// MockStationDirectory is a mock implementation of StationDirectory
type MockStationDirectory struct {
	ListStationsFunc  func(ctx context.Context) ([]domain.Station, error)
	ListStationsCalls int
}

func (m *MockStationDirectory) ListStations(ctx context.Context) ([]domain.Station, error) {
	m.ListStationsCalls++
	if m.ListStationsFunc != nil {
		return m.ListStationsFunc(ctx)
	}
	return nil, nil
}

// MockSessionSource is a mock implementation of SessionSource
type MockSessionSource struct {
	ListSessionsFunc  func(ctx context.Context, from, to time.Time) ([]domain.ChargingSession, error)
	ListSessionsCalls int
}

func (m *MockSessionSource) ListSessions(ctx context.Context, from, to time.Time) ([]domain.ChargingSession, error) {
	m.ListSessionsCalls++
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx, from, to)
	}
	return nil, nil
}

// MockPaymentSource is a mock implementation of PaymentSource
type MockPaymentSource struct {
	ListPaymentsFunc  func(ctx context.Context, from, to time.Time) ([]domain.Payment, error)
	ListPaymentsCalls int
}

func (m *MockPaymentSource) ListPayments(ctx context.Context, from, to time.Time) ([]domain.Payment, error) {
	m.ListPaymentsCalls++
	if m.ListPaymentsFunc != nil {
		return m.ListPaymentsFunc(ctx, from, to)
	}
	return nil, nil
}
