// Package scheduler runs the periodic revision scan that drafts proposals for
// approved batches whose recomputation drifts from the approved prices.
package scheduler

import (
	"context"
	"log/slog"

	portssvc "github.com/Numraio/cpam-sub003/internal/core/ports/services"
	"github.com/Numraio/cpam-sub003/internal/middleware"
	"github.com/robfig/cron/v3"
)

// TenantSource enumerates the tenants the scan should visit.
type TenantSource interface {
	ListTenantsWithBatches(ctx context.Context) ([]string, error)
}

// RevisionScanner schedules ScanForRevisions across all tenants on a cron
// spec. Each run gets its own context so a shutdown mid-scan cancels cleanly.
type RevisionScanner struct {
	cron      *cron.Cron
	scanner   portssvc.RevisionScannerSvc
	tenants   TenantSource
	spec      string
	logger    *slog.Logger
	baseCtx   context.Context
	cancelRun context.CancelFunc
}

// NewRevisionScanner creates a scanner that fires on the given cron spec.
func NewRevisionScanner(spec string, scanner portssvc.RevisionScannerSvc, tenants TenantSource, logger *slog.Logger) *RevisionScanner {
	ctx, cancel := context.WithCancel(context.Background())
	return &RevisionScanner{
		cron:      cron.New(),
		scanner:   scanner,
		tenants:   tenants,
		spec:      spec,
		logger:    logger,
		baseCtx:   ctx,
		cancelRun: cancel,
	}
}

// Start registers the scan job and begins the cron loop.
func (s *RevisionScanner) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runScan); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("revision scanner started", "spec", s.spec)
	return nil
}

// Stop cancels any in-flight scan and waits for the cron loop to drain.
func (s *RevisionScanner) Stop() {
	s.cancelRun()
	<-s.cron.Stop().Done()
	s.logger.Info("revision scanner stopped")
}

func (s *RevisionScanner) runScan() {
	ctx := middleware.ContextWithLogger(s.baseCtx, s.logger)

	tenants, err := s.tenants.ListTenantsWithBatches(ctx)
	if err != nil {
		s.logger.Error("revision scan could not enumerate tenants", "error", err)
		return
	}

	total := 0
	for _, tenantID := range tenants {
		if ctx.Err() != nil {
			return
		}
		drafted, err := s.scanner.ScanForRevisions(ctx, tenantID)
		if err != nil {
			s.logger.Error("revision scan failed for tenant", "tenantID", tenantID, "error", err)
			continue
		}
		total += drafted
	}
	s.logger.Info("revision scan completed", "tenants", len(tenants), "proposalsDrafted", total)
}
