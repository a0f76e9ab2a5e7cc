package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// BusinessType represents a supported pet-care business category.
type BusinessType string

const (
	BusinessTypeDogKennel  BusinessType = "dog_kennel"
	BusinessTypeCattery    BusinessType = "cattery"
	BusinessTypeDogGroomer BusinessType = "dog_groomer"
	BusinessTypeVetClinic  BusinessType = "veterinary_clinic"
	BusinessTypeDogDaycare BusinessType = "dog_daycare"
	BusinessTypeDogSitter  BusinessType = "dog_sitter"
)

// AllBusinessTypes returns all supported business types.
func AllBusinessTypes() []BusinessType {
	return []BusinessType{
		BusinessTypeDogKennel,
		BusinessTypeCattery,
		BusinessTypeDogGroomer,
		BusinessTypeVetClinic,
		BusinessTypeDogDaycare,
		BusinessTypeDogSitter,
	}
}

// ParseBusinessType validates a raw business type string.
func ParseBusinessType(s string) (BusinessType, error) {
	bt := BusinessType(strings.TrimSpace(strings.ToLower(s)))
	for _, known := range AllBusinessTypes() {
		if bt == known {
			return bt, nil
		}
	}
	return "", eris.Errorf("model: unknown business type %q", s)
}

// BusinessRecord identifies one pet-care business in the batch input.
// Immutable once read from the input list.
type BusinessRecord struct {
	URL          string       `json:"url"`
	BusinessType BusinessType `json:"business_type"`
	Complexity   string       `json:"complexity,omitempty"` // easy, medium, hard
	Notes        string       `json:"notes,omitempty"`
}
