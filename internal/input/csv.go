// Package input reads the batch input list of business URLs.
package input

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pawsight/extract-cli/internal/model"
)

// ReadRecords parses business records from CSV. Expected columns:
// url, business_type, and optionally complexity and notes. A header
// row is detected and skipped.
func ReadRecords(r io.Reader) ([]model.BusinessRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "input: read csv")
	}

	var records []model.BusinessRecord
	for i, row := range rows {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if i == 0 && isHeader(row) {
			continue
		}
		if len(row) < 2 {
			return nil, eris.Errorf("input: row %d needs url and business_type", i+1)
		}

		url := strings.TrimSpace(row[0])
		if url == "" {
			return nil, eris.Errorf("input: row %d has empty url", i+1)
		}

		businessType, err := model.ParseBusinessType(row[1])
		if err != nil {
			return nil, eris.Wrapf(err, "input: row %d", i+1)
		}

		record := model.BusinessRecord{URL: url, BusinessType: businessType}
		if len(row) > 2 {
			record.Complexity = strings.TrimSpace(row[2])
		}
		if len(row) > 3 {
			record.Notes = strings.TrimSpace(row[3])
		}
		records = append(records, record)
	}

	return records, nil
}

func isHeader(row []string) bool {
	return strings.EqualFold(strings.TrimSpace(row[0]), "url")
}

// ReadFile reads business records from a CSV file on disk.
func ReadFile(path string) ([]model.BusinessRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "input: open file")
	}
	defer f.Close()

	return ReadRecords(f)
}

// FilterByType keeps only records of the given business type. An
// empty type keeps everything.
func FilterByType(records []model.BusinessRecord, businessType model.BusinessType) []model.BusinessRecord {
	if businessType == "" {
		return records
	}
	var out []model.BusinessRecord
	for _, r := range records {
		if r.BusinessType == businessType {
			out = append(out, r)
		}
	}
	return out
}
