// Package normalize maps free-text animal size labels onto a canonical
// band scale so prices are comparable across businesses.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// Band is a canonical animal size band.
type Band string

const (
	BandXS Band = "XS"
	BandS  Band = "S"
	BandM  Band = "M"
	BandL  Band = "L"
	BandXL Band = "XL"
	BandG  Band = "G" // giant
)

// AllBands returns the bands from smallest to largest.
func AllBands() []Band {
	return []Band{BandXS, BandS, BandM, BandL, BandXL, BandG}
}

// Upper weight bounds per band, in kg. Giant is unbounded.
var bandUpperKg = []struct {
	band  Band
	maxKg float64
}{
	{BandXS, 5},
	{BandS, 10},
	{BandM, 25},
	{BandL, 40},
	{BandXL, 55},
}

// Mapping is the outcome of normalizing one size label. A nil Band
// with zero confidence means the label could not be mapped; callers
// must keep the raw label rather than guess.
type Mapping struct {
	Band       *Band   `json:"band,omitempty"`
	Confidence float64 `json:"confidence"`
}

type aliasKey struct {
	businessID string
	label      string
}

// Mapper resolves size labels using per-business alias tables first
// and weight hints second.
type Mapper struct {
	aliases map[aliasKey]Band
}

// NewMapper builds a Mapper from alias tables keyed by business ID.
func NewMapper(tables map[string]map[string]Band) *Mapper {
	m := &Mapper{aliases: make(map[aliasKey]Band)}
	for businessID, table := range tables {
		for label, band := range table {
			m.aliases[aliasKey{businessID, normalizeLabel(label)}] = band
		}
	}
	return m
}

// Map resolves a raw size label for the given business. Alias table
// hits carry full confidence; weight hints parsed out of the label
// carry reduced confidence; anything else stays unmapped.
func (m *Mapper) Map(businessID, label string) Mapping {
	norm := normalizeLabel(label)
	if norm == "" {
		return Mapping{}
	}

	if band, ok := m.aliases[aliasKey{businessID, norm}]; ok {
		b := band
		return Mapping{Band: &b, Confidence: 1.0}
	}

	if band, ok := bandFromWeightHint(norm); ok {
		b := band
		return Mapping{Band: &b, Confidence: 0.7}
	}

	return Mapping{}
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var weightRe = regexp.MustCompile(`(\d+(?:\.\d+)?)(?:\s*(?:-|to)\s*(\d+(?:\.\d+)?))?\s*(kg|kgs|kilos?|lbs?|pounds?)`)

// bandFromWeightHint parses weight figures out of a label like
// "up to 10kg", "10-25 kg", or "under 55 lbs" and places the largest
// upper bound on the band scale.
func bandFromWeightHint(label string) (Band, bool) {
	matches := weightRe.FindAllStringSubmatch(label, -1)
	if matches == nil {
		return "", false
	}

	var maxKg float64
	found := false
	for _, match := range matches {
		upper := match[1]
		if match[2] != "" {
			upper = match[2]
		}
		value, err := strconv.ParseFloat(upper, 64)
		if err != nil {
			continue
		}

		unit := match[3]
		if strings.HasPrefix(unit, "lb") || strings.HasPrefix(unit, "pound") {
			value *= 0.4536
		}
		if !found || value > maxKg {
			maxKg = value
			found = true
		}
	}
	if !found {
		return "", false
	}

	for _, bound := range bandUpperKg {
		if maxKg <= bound.maxKg {
			return bound.band, true
		}
	}
	return BandG, true
}
