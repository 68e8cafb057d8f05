package mocks

import (
	"context"
	"sync"

	"github.com/voltgrid/console/internal/domain"
	"github.com/voltgrid/console/internal/ports"
)

// MockAggregationProvider is a mock implementation of AggregationProvider
type MockAggregationProvider struct {
	FetchAllFunc    func(ctx context.Context, filter domain.ReportFilter, window domain.TimeWindow) *ports.AggregateResult
	TriggerSyncFunc func(ctx context.Context) (*ports.SyncResult, error)

	FetchAllCalls    int
	TriggerSyncCalls int
}

func (m *MockAggregationProvider) FetchAll(ctx context.Context, filter domain.ReportFilter, window domain.TimeWindow) *ports.AggregateResult {
	m.FetchAllCalls++
	if m.FetchAllFunc != nil {
		return m.FetchAllFunc(ctx, filter, window)
	}
	return &ports.AggregateResult{}
}

func (m *MockAggregationProvider) TriggerSync(ctx context.Context) (*ports.SyncResult, error) {
	m.TriggerSyncCalls++
	if m.TriggerSyncFunc != nil {
		return m.TriggerSyncFunc(ctx)
	}
	return &ports.SyncResult{Success: true}, nil
}

// MockBroadcaster records report payloads pushed to connected clients.
type MockBroadcaster struct {
	mu       sync.Mutex
	Payloads [][]byte
}

func (m *MockBroadcaster) Broadcast(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Payloads = append(m.Payloads, data)
}

func (m *MockBroadcaster) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Payloads)
}
