package repositories

// RepositoryProvider bundles every repository facade the service layer needs.
type RepositoryProvider struct {
	SeriesRepo   SeriesRepositoryFacade
	FormulaRepo  FormulaRepositoryFacade
	ContractRepo ContractRepositoryFacade
	BatchRepo    BatchRepositoryWithTx
	ProposalRepo ProposalRepositoryFacade
}
