package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsight/extract-cli/internal/artifact"
	"github.com/pawsight/extract-cli/internal/model"
	"github.com/pawsight/extract-cli/internal/normalize"
	"github.com/pawsight/extract-cli/internal/pipeline"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGatherRecords_SingleURL(t *testing.T) {
	records, err := gatherRecords("", "https://example-kennels.co.uk", "dog_kennel", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.BusinessTypeDogKennel, records[0].BusinessType)
}

func TestGatherRecords_SingleURLRequiresType(t *testing.T) {
	_, err := gatherRecords("", "https://example-kennels.co.uk", "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--type")
}

func TestGatherRecords_CSVWithFilterAndLimit(t *testing.T) {
	path := writeTempCSV(t, `url,business_type
https://a.co.uk,dog_kennel
https://b.co.uk,cattery
https://c.co.uk,dog_kennel
https://d.co.uk,dog_kennel
`)

	records, err := gatherRecords(path, "", "dog_kennel", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "https://a.co.uk", records[0].URL)
	assert.Equal(t, "https://c.co.uk", records[1].URL)
}

func TestGatherRecords_NoInput(t *testing.T) {
	_, err := gatherRecords("", "", "", 0)
	require.Error(t, err)
}

func TestGatherRecords_FilterLeavesNothing(t *testing.T) {
	path := writeTempCSV(t, "https://a.co.uk,dog_kennel\n")
	_, err := gatherRecords(path, "", "cattery", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no records")
}

func TestRunBatch_ContinuesPastFailedRecord(t *testing.T) {
	fc := &fakeFirecrawl{
		failScrapeFor: "https://blocked-kennels.co.uk",
		extractData:   sizedExtraction(t),
	}
	orch := pipeline.NewOrchestrator(fc, fastOptions())

	outDir := t.TempDir()
	writer, err := artifact.NewWriter(outDir)
	require.NoError(t, err)

	records := []model.BusinessRecord{
		{URL: "https://blocked-kennels.co.uk", BusinessType: model.BusinessTypeDogKennel},
		{URL: "https://happy-paws.co.uk", BusinessType: model.BusinessTypeCattery},
	}

	bundles, err := runBatch(context.Background(), records, orch, writer, normalize.NewMapper(nil), 0)
	require.NoError(t, err)
	require.Len(t, bundles, 2)

	assert.False(t, bundles[0].Succeeded())
	assert.Equal(t, model.MethodFailed, bundles[0].Meta.Method)
	assert.Contains(t, bundles[0].Meta.Error, "capture failed")

	assert.True(t, bundles[1].Succeeded())
	assert.Equal(t, "Example Kennels", bundles[1].Extraction.BusinessName)
	assert.Equal(t, []string{"S", "XL"}, bundles[1].Extraction.Services[0].SizeBands)

	// Both records were persisted, the failure included.
	metrics, err := filepath.Glob(filepath.Join(outDir, "*_metrics.json"))
	require.NoError(t, err)
	assert.Len(t, metrics, 2)
}

func TestRunBatch_CancelledBetweenRecords(t *testing.T) {
	fc := &fakeFirecrawl{extractData: sizedExtraction(t)}
	orch := pipeline.NewOrchestrator(fc, fastOptions())

	writer, err := artifact.NewWriter(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []model.BusinessRecord{
		{URL: "https://a.co.uk", BusinessType: model.BusinessTypeDogKennel},
		{URL: "https://b.co.uk", BusinessType: model.BusinessTypeDogKennel},
	}

	bundles, err := runBatch(ctx, records, orch, writer, normalize.NewMapper(nil), time.Minute)
	require.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, len(bundles), 1)
}

func TestApplySizeBands(t *testing.T) {
	mapper := normalize.NewMapper(map[string]map[string]normalize.Band{
		"example-kennels.co.uk": {
			"toy breeds": normalize.BandXS,
		},
	})

	bundle := model.ResultBundle{
		Record: model.BusinessRecord{
			URL:          "https://www.example-kennels.co.uk/",
			BusinessType: model.BusinessTypeDogKennel,
		},
		Extraction: &model.ExtractionResult{
			Services: []model.ServicePrice{
				{
					ServiceName: "Boarding",
					Variations:  []string{"Toy breeds", "dogs up to 10kg", "unknown label"},
				},
			},
		},
	}

	applySizeBands(mapper, &bundle)

	assert.Equal(t, []string{"XS", "S"}, bundle.Extraction.Services[0].SizeBands)
}

func TestApplySizeBands_NilExtraction(t *testing.T) {
	bundle := model.ResultBundle{Record: model.BusinessRecord{URL: "https://a.co.uk"}}
	applySizeBands(normalize.NewMapper(nil), &bundle)
	assert.Nil(t, bundle.Extraction)
}

func TestAppendUnique(t *testing.T) {
	list := appendUnique(nil, "M")
	list = appendUnique(list, "L")
	list = appendUnique(list, "M")
	assert.Equal(t, []string{"M", "L"}, list)
}

func TestDurationSecs(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, durationSecs(1.5))
	assert.Equal(t, time.Duration(0), durationSecs(0))
}
