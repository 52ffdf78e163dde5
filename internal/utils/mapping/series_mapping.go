package mapping

import (
	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/Numraio/cpam-sub003/internal/models"
)

// ToModelSeries converts a domain Series to a model Series
func ToModelSeries(d domain.Series) models.Series {
	return models.Series{
		SeriesID:    d.SeriesID,
		TenantID:    d.TenantID,
		Code:        d.Code,
		Name:        d.Name,
		Unit:        d.Unit,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainSeries converts a model Series to a domain Series
func ToDomainSeries(m models.Series) domain.Series {
	return domain.Series{
		SeriesID:    m.SeriesID,
		TenantID:    m.TenantID,
		Code:        m.Code,
		Name:        m.Name,
		Unit:        m.Unit,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelObservation converts a domain Observation to a model Observation
func ToModelObservation(d domain.Observation) models.Observation {
	return models.Observation{
		ObservationID: d.ObservationID,
		SeriesID:      d.SeriesID,
		AsOfDate:      d.AsOfDate,
		Value:         d.Value,
		VersionTag:    string(d.VersionTag),
		IngestedAt:    d.IngestedAt,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainObservation converts a model Observation to a domain Observation
func ToDomainObservation(m models.Observation) domain.Observation {
	return domain.Observation{
		ObservationID: m.ObservationID,
		SeriesID:      m.SeriesID,
		AsOfDate:      m.AsOfDate,
		Value:         m.Value,
		VersionTag:    domain.VersionTag(m.VersionTag),
		IngestedAt:    m.IngestedAt,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainObservationSlice converts a slice of model Observations to domain Observations
func ToDomainObservationSlice(ms []models.Observation) []domain.Observation {
	ds := make([]domain.Observation, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainObservation(m)
	}
	return ds
}
