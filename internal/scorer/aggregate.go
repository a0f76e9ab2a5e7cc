package scorer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pawsight/extract-cli/internal/model"
)

// Success targets for go/no-go assessment of a batch run.
const (
	successRateTarget = 90.0
	successRateMin    = 80.0
	qualityTarget     = 65.0
	qualityMin        = 50.0
	pricingRateTarget = 75.0
	pricingRateMin    = 60.0
)

// AggregateStats summarizes a set of result bundles.
type AggregateStats struct {
	TotalURLs             int     `json:"total_urls"`
	SuccessfulExtractions int     `json:"successful_extractions"`
	SuccessRate           float64 `json:"success_rate"` // percent
	AverageQualityScore   float64 `json:"average_quality_score"`
	URLsWithPricing       int     `json:"urls_with_pricing"`
	PricingRate           float64 `json:"pricing_rate"` // percent
	AverageSeconds        float64 `json:"average_seconds"`
	TotalPricesFound      int     `json:"total_prices_found"`
	TotalCreditsUsed      int     `json:"total_credits_used"`
}

// Aggregate computes summary statistics from a list of bundles.
func Aggregate(bundles []model.ResultBundle) AggregateStats {
	var stats AggregateStats
	stats.TotalURLs = len(bundles)
	if stats.TotalURLs == 0 {
		return stats
	}

	var sumScore, sumSeconds float64
	for _, b := range bundles {
		if b.Succeeded() {
			stats.SuccessfulExtractions++
		}
		if b.Score.PriceCount > 0 {
			stats.URLsWithPricing++
		}
		stats.TotalPricesFound += b.Score.PriceCount
		stats.TotalCreditsUsed += b.Meta.CreditsUsed
		sumScore += float64(b.Score.Total)
		sumSeconds += b.Meta.CaptureSeconds + b.Meta.ExtractSeconds
	}

	n := float64(stats.TotalURLs)
	stats.SuccessRate = float64(stats.SuccessfulExtractions) / n * 100
	stats.PricingRate = float64(stats.URLsWithPricing) / n * 100
	stats.AverageQualityScore = sumScore / n
	stats.AverageSeconds = sumSeconds / n

	return stats
}

// AggregateByType groups bundles by business type and aggregates each group.
func AggregateByType(bundles []model.ResultBundle) map[model.BusinessType]AggregateStats {
	byType := make(map[model.BusinessType][]model.ResultBundle)
	for _, b := range bundles {
		byType[b.Record.BusinessType] = append(byType[b.Record.BusinessType], b)
	}

	out := make(map[model.BusinessType]AggregateStats, len(byType))
	for bt, group := range byType {
		out[bt] = Aggregate(group)
	}
	return out
}

// TargetCheck is the assessment of one success target.
type TargetCheck struct {
	Target       float64 `json:"target"`
	Minimum      float64 `json:"minimum"`
	Actual       float64 `json:"actual"`
	MeetsTarget  bool    `json:"meets_target"`
	MeetsMinimum bool    `json:"meets_minimum"`
}

// CheckTargets assesses a batch against the success targets.
func CheckTargets(stats AggregateStats) map[string]TargetCheck {
	check := func(actual, target, minimum float64) TargetCheck {
		return TargetCheck{
			Target:       target,
			Minimum:      minimum,
			Actual:       actual,
			MeetsTarget:  actual >= target,
			MeetsMinimum: actual >= minimum,
		}
	}
	return map[string]TargetCheck{
		"success_rate":  check(stats.SuccessRate, successRateTarget, successRateMin),
		"quality_score": check(stats.AverageQualityScore, qualityTarget, qualityMin),
		"pricing_rate":  check(stats.PricingRate, pricingRateTarget, pricingRateMin),
	}
}

// MeetsMinimums reports whether the batch clears every minimum bar.
func MeetsMinimums(stats AggregateStats) bool {
	for _, c := range CheckTargets(stats) {
		if !c.MeetsMinimum {
			return false
		}
	}
	return true
}

// FormatReport renders a plain-text quality report for the batch, with
// an optional per-business-type breakdown.
func FormatReport(stats AggregateStats, byType map[model.BusinessType]AggregateStats) string {
	var b strings.Builder

	b.WriteString("QUALITY SCORE REPORT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	b.WriteString("Overall Statistics:\n")
	fmt.Fprintf(&b, "  Total URLs: %d\n", stats.TotalURLs)
	fmt.Fprintf(&b, "  Successful: %d (%.1f%%)\n", stats.SuccessfulExtractions, stats.SuccessRate)
	fmt.Fprintf(&b, "  Average Quality Score: %.1f\n", stats.AverageQualityScore)
	fmt.Fprintf(&b, "  URLs with Pricing: %d (%.1f%%)\n", stats.URLsWithPricing, stats.PricingRate)
	fmt.Fprintf(&b, "  Total Prices Found: %d\n", stats.TotalPricesFound)
	fmt.Fprintf(&b, "  Credits Used: %d\n", stats.TotalCreditsUsed)
	fmt.Fprintf(&b, "  Average Record Time: %.1fs\n\n", stats.AverageSeconds)

	b.WriteString("Success Target Assessment:\n")
	checks := CheckTargets(stats)
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := checks[name]
		status := "FAIL"
		switch {
		case c.MeetsTarget:
			status = "PASS"
		case c.MeetsMinimum:
			status = "MINIMUM"
		}
		fmt.Fprintf(&b, "  %s: %.1f (target: %.0f, min: %.0f) [%s]\n",
			name, c.Actual, c.Target, c.Minimum, status)
	}

	if len(byType) > 0 {
		b.WriteString("\nBy Business Type:\n")
		fmt.Fprintf(&b, "  %-18s %7s %9s %10s %11s\n",
			"Type", "Tested", "Success", "Avg Score", "Has Prices")

		types := make([]model.BusinessType, 0, len(byType))
		for bt := range byType {
			types = append(types, bt)
		}
		sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

		for _, bt := range types {
			ts := byType[bt]
			fmt.Fprintf(&b, "  %-18s %7d %8.1f%% %10.1f %10.1f%%\n",
				bt, ts.TotalURLs, ts.SuccessRate, ts.AverageQualityScore, ts.PricingRate)
		}
	}

	return b.String()
}
