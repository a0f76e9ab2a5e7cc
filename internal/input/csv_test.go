package input

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsight/extract-cli/internal/model"
)

func TestReadRecords(t *testing.T) {
	t.Parallel()
	csv := `url,business_type,complexity,notes
https://example-kennels.co.uk/prices,dog_kennel,easy,Clear pricing table
https://happy-paws.co.uk,dog_groomer,medium,
https://city-vets.co.uk,veterinary_clinic
`

	records, err := ReadRecords(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "https://example-kennels.co.uk/prices", records[0].URL)
	assert.Equal(t, model.BusinessTypeDogKennel, records[0].BusinessType)
	assert.Equal(t, "easy", records[0].Complexity)
	assert.Equal(t, "Clear pricing table", records[0].Notes)

	assert.Equal(t, model.BusinessTypeDogGroomer, records[1].BusinessType)
	assert.Empty(t, records[1].Notes)

	assert.Equal(t, model.BusinessTypeVetClinic, records[2].BusinessType)
	assert.Empty(t, records[2].Complexity)
}

func TestReadRecords_NoHeader(t *testing.T) {
	t.Parallel()
	csv := `https://example-kennels.co.uk,dog_kennel
https://purrfect-stay.co.uk,cattery
`

	records, err := ReadRecords(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.BusinessTypeCattery, records[1].BusinessType)
}

func TestReadRecords_UnknownBusinessType(t *testing.T) {
	t.Parallel()
	csv := `https://example.co.uk,pet_shop`

	_, err := ReadRecords(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown business type")
}

func TestReadRecords_MissingColumns(t *testing.T) {
	t.Parallel()
	_, err := ReadRecords(strings.NewReader("https://example.co.uk\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs url and business_type")
}

func TestReadRecords_BusinessTypeNormalized(t *testing.T) {
	t.Parallel()
	records, err := ReadRecords(strings.NewReader("https://example.co.uk, Dog_Kennel \n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.BusinessTypeDogKennel, records[0].BusinessType)
}

func TestReadFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "urls.csv")
	require.NoError(t, os.WriteFile(path, []byte("url,business_type\nhttps://example.co.uk,cattery\n"), 0644))

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.BusinessTypeCattery, records[0].BusinessType)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestFilterByType(t *testing.T) {
	t.Parallel()
	records := []model.BusinessRecord{
		{URL: "a", BusinessType: model.BusinessTypeDogKennel},
		{URL: "b", BusinessType: model.BusinessTypeCattery},
		{URL: "c", BusinessType: model.BusinessTypeDogKennel},
	}

	kennels := FilterByType(records, model.BusinessTypeDogKennel)
	require.Len(t, kennels, 2)
	assert.Equal(t, "a", kennels[0].URL)

	all := FilterByType(records, "")
	assert.Len(t, all, 3)
}
