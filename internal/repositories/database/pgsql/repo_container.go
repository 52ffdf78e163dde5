package pgsql

import (
	portsrepo "github.com/Numraio/cpam-sub003/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	seriesRepo := newPgxSeriesRepository(dbPool)
	formulaRepo := newPgxFormulaRepository(dbPool)
	contractRepo := newPgxContractRepository(dbPool)
	batchRepo := newPgxBatchRepository(dbPool)
	proposalRepo := newPgxProposalRepository(dbPool)

	return portsrepo.RepositoryProvider{
		SeriesRepo:   seriesRepo,
		FormulaRepo:  formulaRepo,
		ContractRepo: contractRepo,
		BatchRepo:    batchRepo,
		ProposalRepo: proposalRepo,
	}
}
