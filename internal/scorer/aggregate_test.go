package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsight/extract-cli/internal/model"
)

func bundle(bt model.BusinessType, succeeded bool, score, prices, credits int) model.ResultBundle {
	b := model.ResultBundle{
		Record: model.BusinessRecord{BusinessType: bt},
		Score:  model.QualityScore{Total: score, PriceCount: prices},
		Meta:   model.RunMeta{CreditsUsed: credits, CaptureSeconds: 2, ExtractSeconds: 8},
	}
	if succeeded {
		b.Extraction = &model.ExtractionResult{}
	}
	return b
}

func TestAggregate_Empty(t *testing.T) {
	t.Parallel()
	stats := Aggregate(nil)
	assert.Equal(t, 0, stats.TotalURLs)
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.Equal(t, 0.0, stats.AverageQualityScore)
}

func TestAggregate(t *testing.T) {
	t.Parallel()
	bundles := []model.ResultBundle{
		bundle(model.BusinessTypeDogKennel, true, 70, 1, 5),
		bundle(model.BusinessTypeDogKennel, true, 90, 6, 7),
		bundle(model.BusinessTypeCattery, false, 0, 0, 2),
		bundle(model.BusinessTypeDogGroomer, true, 50, 0, 4),
	}

	stats := Aggregate(bundles)
	assert.Equal(t, 4, stats.TotalURLs)
	assert.Equal(t, 3, stats.SuccessfulExtractions)
	assert.InDelta(t, 75.0, stats.SuccessRate, 0.001)
	assert.Equal(t, 2, stats.URLsWithPricing)
	assert.InDelta(t, 50.0, stats.PricingRate, 0.001)
	assert.InDelta(t, 52.5, stats.AverageQualityScore, 0.001)
	assert.Equal(t, 7, stats.TotalPricesFound)
	assert.Equal(t, 18, stats.TotalCreditsUsed)
	assert.InDelta(t, 10.0, stats.AverageSeconds, 0.001)
}

func TestAggregateByType(t *testing.T) {
	t.Parallel()
	bundles := []model.ResultBundle{
		bundle(model.BusinessTypeDogKennel, true, 80, 2, 5),
		bundle(model.BusinessTypeDogKennel, false, 0, 0, 2),
		bundle(model.BusinessTypeCattery, true, 60, 1, 5),
	}

	byType := AggregateByType(bundles)
	require.Len(t, byType, 2)
	assert.Equal(t, 2, byType[model.BusinessTypeDogKennel].TotalURLs)
	assert.InDelta(t, 50.0, byType[model.BusinessTypeDogKennel].SuccessRate, 0.001)
	assert.Equal(t, 1, byType[model.BusinessTypeCattery].TotalURLs)
	assert.InDelta(t, 100.0, byType[model.BusinessTypeCattery].SuccessRate, 0.001)
}

func TestCheckTargets(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		stats        AggregateStats
		key          string
		meetsTarget  bool
		meetsMinimum bool
	}{
		{
			name:         "success rate above target",
			stats:        AggregateStats{SuccessRate: 95},
			key:          "success_rate",
			meetsTarget:  true,
			meetsMinimum: true,
		},
		{
			name:         "success rate between minimum and target",
			stats:        AggregateStats{SuccessRate: 85},
			key:          "success_rate",
			meetsTarget:  false,
			meetsMinimum: true,
		},
		{
			name:         "quality below minimum",
			stats:        AggregateStats{AverageQualityScore: 45},
			key:          "quality_score",
			meetsTarget:  false,
			meetsMinimum: false,
		},
		{
			name:         "pricing rate exactly at minimum",
			stats:        AggregateStats{PricingRate: 60},
			key:          "pricing_rate",
			meetsTarget:  false,
			meetsMinimum: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checks := CheckTargets(tt.stats)
			c, ok := checks[tt.key]
			require.True(t, ok)
			assert.Equal(t, tt.meetsTarget, c.MeetsTarget)
			assert.Equal(t, tt.meetsMinimum, c.MeetsMinimum)
		})
	}
}

func TestMeetsMinimums(t *testing.T) {
	t.Parallel()
	good := AggregateStats{SuccessRate: 85, AverageQualityScore: 55, PricingRate: 65}
	assert.True(t, MeetsMinimums(good))

	bad := good
	bad.PricingRate = 59
	assert.False(t, MeetsMinimums(bad))
}

func TestFormatReport(t *testing.T) {
	t.Parallel()
	bundles := []model.ResultBundle{
		bundle(model.BusinessTypeDogKennel, true, 80, 2, 5),
		bundle(model.BusinessTypeCattery, true, 60, 1, 5),
	}
	stats := Aggregate(bundles)
	report := FormatReport(stats, AggregateByType(bundles))

	assert.Contains(t, report, "QUALITY SCORE REPORT")
	assert.Contains(t, report, "Total URLs: 2")
	assert.Contains(t, report, "success_rate")
	assert.Contains(t, report, "By Business Type:")
	assert.Contains(t, report, string(model.BusinessTypeDogKennel))
	assert.Contains(t, report, string(model.BusinessTypeCattery))
}
