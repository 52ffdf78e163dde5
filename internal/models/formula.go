package models

// Formula represents one pricing formula row. The graph is stored as a JSONB
// document; structural validation happens in the service layer before save.
type Formula struct {
	FormulaID string `json:"formulaID"` // Primary Key (e.g., UUID)
	TenantID  string `json:"tenantID"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Graph     []byte `json:"graph"` // JSONB payload
	AuditFields
}
