package services

// ServiceContainer holds every service facade, wired once at startup.
type ServiceContainer struct {
	Series   SeriesSvcFacade
	Formula  FormulaSvcFacade
	Contract ContractSvcFacade
	Batch    BatchSvcFacade
	Proposal ProposalSvcFacade
}
