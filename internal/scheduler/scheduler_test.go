package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockTenantSource struct {
	mock.Mock
}

func (m *mockTenantSource) ListTenantsWithBatches(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockScanner struct {
	mock.Mock
}

func (m *mockScanner) ScanForRevisions(ctx context.Context, tenantID string) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func newTestScanner(scanner *mockScanner, tenants *mockTenantSource) *RevisionScanner {
	return NewRevisionScanner("@hourly", scanner, tenants, slog.New(slog.DiscardHandler))
}

func TestRunScanVisitsEveryTenant(t *testing.T) {
	tenants := new(mockTenantSource)
	scanner := new(mockScanner)
	s := newTestScanner(scanner, tenants)

	tenants.On("ListTenantsWithBatches", mock.Anything).Return([]string{"t1", "t2"}, nil).Once()
	scanner.On("ScanForRevisions", mock.Anything, "t1").Return(2, nil).Once()
	scanner.On("ScanForRevisions", mock.Anything, "t2").Return(0, nil).Once()

	s.runScan()

	tenants.AssertExpectations(t)
	scanner.AssertExpectations(t)
}

func TestRunScanContinuesPastTenantFailure(t *testing.T) {
	tenants := new(mockTenantSource)
	scanner := new(mockScanner)
	s := newTestScanner(scanner, tenants)

	tenants.On("ListTenantsWithBatches", mock.Anything).Return([]string{"bad", "good"}, nil).Once()
	scanner.On("ScanForRevisions", mock.Anything, "bad").Return(0, errors.New("db down")).Once()
	scanner.On("ScanForRevisions", mock.Anything, "good").Return(1, nil).Once()

	s.runScan()

	scanner.AssertExpectations(t)
}

func TestRunScanStopsAfterCancel(t *testing.T) {
	tenants := new(mockTenantSource)
	scanner := new(mockScanner)
	s := newTestScanner(scanner, tenants)

	tenants.On("ListTenantsWithBatches", mock.Anything).Return([]string{"t1"}, nil).Once()
	s.cancelRun()

	s.runScan()

	scanner.AssertNotCalled(t, "ScanForRevisions", mock.Anything, mock.Anything)
	assert.Empty(t, scanner.Calls)
}
