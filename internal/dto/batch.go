package dto

import (
	"time"

	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateBatchRequest defines the structure for submitting a calculation batch.
type CreateBatchRequest struct {
	FormulaID  string    `json:"formulaID" binding:"required"`
	ContractID *string   `json:"contractID,omitempty"`
	AsOfDate   time.Time `json:"asOfDate" binding:"required"`
	Preferred  string    `json:"versionPreference" binding:"required,oneof=PRELIMINARY FINAL REVISED"`
}

// CreateBatchResponse reports the batch identity and whether the submission
// matched an existing batch.
type CreateBatchResponse struct {
	BatchID     string `json:"batchID"`
	IsDuplicate bool   `json:"isDuplicate"`
	Status      string `json:"status"`
}

// CalcResultResponse defines one adjusted item price in API responses.
type CalcResultResponse struct {
	ItemID           string          `json:"itemID"`
	AdjustedPrice    decimal.Decimal `json:"adjustedPrice"`
	AdjustedCurrency string          `json:"adjustedCurrency"`
	EffectiveDate    time.Time       `json:"effectiveDate"`
	IsApproved       bool            `json:"isApproved"`
}

// BatchResponse defines the structure for batch status queries.
type BatchResponse struct {
	BatchID     string               `json:"batchID"`
	FormulaID   string               `json:"formulaID"`
	ContractID  *string              `json:"contractID,omitempty"`
	AsOfDate    time.Time            `json:"asOfDate"`
	Preferred   string               `json:"versionPreference"`
	Revision    int                  `json:"revision"`
	Status      string               `json:"status"`
	Error       string               `json:"error,omitempty"`
	Results     []CalcResultResponse `json:"results,omitempty"`
	StartedAt   *time.Time           `json:"startedAt,omitempty"`
	CompletedAt *time.Time           `json:"completedAt,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// ToBatchResponse converts a domain.CalcBatch and its results to a BatchResponse DTO
func ToBatchResponse(b *domain.CalcBatch, results []domain.CalcResult) BatchResponse {
	resp := BatchResponse{
		BatchID:     b.BatchID,
		FormulaID:   b.Key.FormulaID,
		ContractID:  b.Key.ContractID,
		AsOfDate:    b.Key.AsOfDate,
		Preferred:   string(b.Key.Preferred),
		Revision:    b.Key.Revision,
		Status:      string(b.Status),
		Error:       b.Error,
		StartedAt:   b.StartedAt,
		CompletedAt: b.CompletedAt,
		CreatedAt:   b.CreatedAt,
	}
	for _, r := range results {
		resp.Results = append(resp.Results, CalcResultResponse{
			ItemID:           r.ItemID,
			AdjustedPrice:    r.AdjustedPrice,
			AdjustedCurrency: r.AdjustedCurrency,
			EffectiveDate:    r.EffectiveDate,
			IsApproved:       r.IsApproved,
		})
	}
	return resp
}

// ListBatchesParams carries pagination parameters for batch listing.
type ListBatchesParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListBatchesResponse is a page of batches plus the token for the next page.
type ListBatchesResponse struct {
	Batches   []BatchResponse `json:"batches"`
	NextToken *string         `json:"nextToken,omitempty"`
}
