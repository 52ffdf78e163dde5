package dto

import (
	"time"

	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateSeriesRequest defines the structure for registering a new series.
type CreateSeriesRequest struct {
	Code string `json:"code" binding:"required,max=64"`
	Name string `json:"name" binding:"required"`
	Unit string `json:"unit"`
}

// SeriesResponse defines the structure for API responses containing series details.
type SeriesResponse struct {
	SeriesID  string    `json:"seriesID"`
	TenantID  string    `json:"tenantID"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

// ToSeriesResponse converts a domain.Series to SeriesResponse DTO
func ToSeriesResponse(s *domain.Series) SeriesResponse {
	return SeriesResponse{
		SeriesID:  s.SeriesID,
		TenantID:  s.TenantID,
		Code:      s.Code,
		Name:      s.Name,
		Unit:      s.Unit,
		CreatedAt: s.CreatedAt,
		CreatedBy: s.CreatedBy,
	}
}

// IngestObservationRequest defines one normalized observation record from an
// ingestion adapter.
type IngestObservationRequest struct {
	AsOfDate          time.Time       `json:"asOfDate" binding:"required"`
	Value             decimal.Decimal `json:"value" binding:"required"`
	VersionTag        string          `json:"versionTag" binding:"required,oneof=PRELIMINARY FINAL REVISED"`
	ProviderTimestamp *time.Time      `json:"providerTimestamp,omitempty"`
}

// BulkIngestRequest carries multiple observations for one series.
type BulkIngestRequest struct {
	Observations []IngestObservationRequest `json:"observations" binding:"required,min=1,dive"`
}

// ObservationResponse defines the structure for API responses containing a
// single observation.
type ObservationResponse struct {
	ObservationID string          `json:"observationID"`
	SeriesID      string          `json:"seriesID"`
	AsOfDate      time.Time       `json:"asOfDate"`
	Value         decimal.Decimal `json:"value"`
	VersionTag    string          `json:"versionTag"`
	IngestedAt    time.Time       `json:"ingestedAt"`
}

// ToObservationResponse converts a domain.Observation to ObservationResponse DTO
func ToObservationResponse(o *domain.Observation) ObservationResponse {
	return ObservationResponse{
		ObservationID: o.ObservationID,
		SeriesID:      o.SeriesID,
		AsOfDate:      o.AsOfDate,
		Value:         o.Value,
		VersionTag:    string(o.VersionTag),
		IngestedAt:    o.IngestedAt,
	}
}

// ToListObservationResponse converts domain observations to DTOs.
func ToListObservationResponse(obs []domain.Observation) []ObservationResponse {
	responses := make([]ObservationResponse, len(obs))
	for i := range obs {
		responses[i] = ToObservationResponse(&obs[i])
	}
	return responses
}
