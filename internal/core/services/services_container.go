package services

import (
	"time"

	"github.com/Numraio/cpam-sub003/internal/core/calendar"
	"github.com/Numraio/cpam-sub003/internal/core/domain"
	portsrepo "github.com/Numraio/cpam-sub003/internal/core/ports/repositories"
	portssvc "github.com/Numraio/cpam-sub003/internal/core/ports/services"
	"github.com/Numraio/cpam-sub003/internal/worker"
)

// ContainerConfig carries the tunables the service layer needs at wiring time.
type ContainerConfig struct {
	CacheSize    int
	CacheTTL     time.Duration
	FallbackMode domain.FallbackMode
}

// NewServiceContainer wires every service facade against the repository
// provider. Construction order follows the dependency chain: series feeds the
// evaluator, the evaluator feeds batches, batches feed proposals.
func NewServiceContainer(
	repos portsrepo.RepositoryProvider,
	cal *calendar.Calendar,
	pool *worker.Pool,
	cfg ContainerConfig,
) *portssvc.ServiceContainer {
	cache := NewObservationCache(cfg.CacheSize, cfg.CacheTTL)
	seriesSvc := NewSeriesService(repos.SeriesRepo, cache)

	evaluator := NewEvaluator(seriesSvc, cal)

	formulaSvc := NewFormulaService(repos.FormulaRepo, evaluator)
	contractSvc := NewContractService(repos.ContractRepo, repos.FormulaRepo)
	batchSvc := NewBatchService(repos.BatchRepo, repos.FormulaRepo, repos.ContractRepo, evaluator, cal, cfg.FallbackMode, pool)
	proposalSvc := NewProposalService(repos.ProposalRepo, repos.BatchRepo, batchSvc)

	return &portssvc.ServiceContainer{
		Series:   seriesSvc,
		Formula:  formulaSvc,
		Contract: contractSvc,
		Batch:    batchSvc,
		Proposal: proposalSvc,
	}
}
