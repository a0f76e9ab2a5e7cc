// Package scorer computes deterministic completeness scores for
// extraction results and aggregates them across a batch.
package scorer

import (
	"strings"

	"github.com/pawsight/extract-cli/internal/model"
)

// Point values for each rubric signal.
const (
	pointsExtractionPresent = 20
	pointsBusinessName      = 10
	pointsContactInfo       = 10
	pointsFirstPrice        = 30
	pointsPerExtraPrice     = 2
	maxExtraPricePoints     = 20
	pointsVaccination       = 5
	pointsPolicy            = 5

	maxScore = 100
)

// Score computes the quality score for an extraction result. It is a
// pure function: the same input always yields the same score, with no
// side effects and no external calls. A nil result scores exactly 0;
// a capture-only success with no structured data earns no partial
// credit.
func Score(result *model.ExtractionResult) model.QualityScore {
	var s model.QualityScore
	if result == nil {
		return s
	}

	s.ExtractionPresent = pointsExtractionPresent

	if strings.TrimSpace(result.BusinessName) != "" {
		s.BusinessName = pointsBusinessName
	}

	if result.Contact.HasAny() {
		s.ContactInfo = pointsContactInfo
	}

	s.PriceCount = result.PricedServiceCount()
	if s.PriceCount > 0 {
		s.FirstPrice = pointsFirstPrice
	}
	if s.PriceCount > 1 {
		s.AdditionalPrices = (s.PriceCount - 1) * pointsPerExtraPrice
		if s.AdditionalPrices > maxExtraPricePoints {
			s.AdditionalPrices = maxExtraPricePoints
		}
	}

	if len(result.VaccinationRequirements) > 0 {
		s.VaccinationInfo = pointsVaccination
	}

	if strings.TrimSpace(result.CancellationPolicy) != "" ||
		strings.TrimSpace(result.DepositPolicy) != "" {
		s.PolicyInfo = pointsPolicy
	}

	s.Total = s.ExtractionPresent + s.BusinessName + s.ContactInfo +
		s.FirstPrice + s.AdditionalPrices + s.VaccinationInfo + s.PolicyInfo
	if s.Total > maxScore {
		s.Total = maxScore
	}
	if s.Total < 0 {
		s.Total = 0
	}

	return s
}
