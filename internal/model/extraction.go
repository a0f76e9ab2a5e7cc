package model

import "strings"

// ContactInfo holds contact details for a business. Every field is
// optional; absence means the detail was not found on the site.
type ContactInfo struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	Website string `json:"website,omitempty"`
}

// HasAny reports whether at least one of email, phone, or address is
// populated with non-whitespace text.
func (c *ContactInfo) HasAny() bool {
	if c == nil {
		return false
	}
	return strings.TrimSpace(c.Email) != "" ||
		strings.TrimSpace(c.Phone) != "" ||
		strings.TrimSpace(c.Address) != ""
}

// ServicePrice is a single service with pricing information.
type ServicePrice struct {
	ServiceName string   `json:"service_name"`
	Price       *float64 `json:"price,omitempty"`      // parsed decimal price
	PriceText   string   `json:"price_text,omitempty"` // original text when parsing fails, e.g. "from 25"
	Unit        string   `json:"unit,omitempty"`       // per_night, per_session, per_hour
	Description string   `json:"description,omitempty"`
	Variations  []string `json:"variations,omitempty"` // size or breed variations
	SizeBands   []string `json:"size_bands,omitempty"` // normalized from Variations
}

// HasPrice reports whether the entry carries any price signal. A parsed
// price of zero still counts: presence is scored, not validity.
func (s ServicePrice) HasPrice() bool {
	return s.Price != nil || strings.TrimSpace(s.PriceText) != ""
}

// VaccinationRequirement is one required vaccination for boarded pets.
type VaccinationRequirement struct {
	VaccineName        string `json:"vaccine_name"`
	RequirementDetails string `json:"requirement_details,omitempty"`
}

// ExtractionResult holds the structured fields returned by the
// extraction collaborator. Fields may be partially populated; an absent
// field means "not found", not an error.
type ExtractionResult struct {
	BusinessName string       `json:"business_name,omitempty"`
	BusinessType string       `json:"business_type,omitempty"`
	Description  string       `json:"description,omitempty"`
	Contact      *ContactInfo `json:"contact,omitempty"`

	Services                []ServicePrice           `json:"services,omitempty"`
	VaccinationRequirements []VaccinationRequirement `json:"vaccination_requirements,omitempty"`

	DropOffProcedure   string `json:"drop_off_procedure,omitempty"`
	PickUpProcedure    string `json:"pick_up_procedure,omitempty"`
	CancellationPolicy string `json:"cancellation_policy,omitempty"`
	DepositPolicy      string `json:"deposit_policy,omitempty"`

	Amenities    []string `json:"amenities,omitempty"`
	OpeningHours string   `json:"opening_hours,omitempty"`
	SpecialNotes string   `json:"special_notes,omitempty"`
}

// PricedServiceCount returns the number of services carrying a price signal.
func (e *ExtractionResult) PricedServiceCount() int {
	if e == nil {
		return 0
	}
	var n int
	for _, s := range e.Services {
		if s.HasPrice() {
			n++
		}
	}
	return n
}
