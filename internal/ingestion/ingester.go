package ingestion

import (
	"context"
	"time"

	"github.com/Numraio/cpam-sub003/internal/core/ports/services"
	"github.com/Numraio/cpam-sub003/internal/dto"
	"github.com/Numraio/cpam-sub003/internal/middleware"
)

// Ingester feeds provider observation records through the series service one
// at a time, retrying transient failures per the policy and pacing upserts so
// a large bulk load does not saturate the database.
type Ingester struct {
	series services.SeriesSvcFacade
	policy RetryPolicy
	pace   time.Duration
	sleep  func(time.Duration)
}

// NewIngester creates an Ingester. A zero pace disables pacing.
func NewIngester(series services.SeriesSvcFacade, policy RetryPolicy, pace time.Duration) *Ingester {
	return &Ingester{
		series: series,
		policy: policy,
		pace:   pace,
		sleep:  time.Sleep,
	}
}

// Report summarizes one bulk ingestion run.
type Report struct {
	Written   int `json:"written"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// IngestBulk upserts every observation in the request. Individual record
// failures are counted, logged, and do not stop the run; the first error is
// returned alongside the report so callers can distinguish partial success.
func (ing *Ingester) IngestBulk(ctx context.Context, tenantID string, seriesCode string, req dto.BulkIngestRequest, userID string) (Report, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var report Report
	var firstErr error
	for i, obs := range req.Observations {
		if i > 0 && ing.pace > 0 {
			ing.sleep(ing.pace)
		}

		record := obs
		var changed bool
		err := withRetry(ctx, ing.policy, ing.sleep, func() error {
			var upsertErr error
			_, changed, upsertErr = ing.series.IngestObservation(ctx, tenantID, seriesCode, record, userID)
			return upsertErr
		})
		if err != nil {
			report.Failed++
			if firstErr == nil {
				firstErr = err
			}
			logger.Error("observation ingestion failed",
				"seriesCode", seriesCode,
				"asOfDate", record.AsOfDate.Format("2006-01-02"),
				"versionTag", record.VersionTag,
				"error", err)
			continue
		}
		if changed {
			report.Written++
		} else {
			report.Unchanged++
		}
	}

	logger.Info("bulk ingestion finished",
		"seriesCode", seriesCode,
		"written", report.Written,
		"unchanged", report.Unchanged,
		"failed", report.Failed)
	return report, firstErr
}
