// Package artifact persists extraction outputs to disk with
// deterministic, human-sortable file names.
package artifact

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pawsight/extract-cli/internal/model"
	"github.com/pawsight/extract-cli/internal/scorer"
)

const timestampLayout = "20060102_150405"

// Filename builds "{business_type}_{domain}_{timestamp}_{suffix}".
// The www prefix is stripped and dots become underscores so the name
// stays filesystem-safe.
func Filename(rawURL string, businessType model.BusinessType, at time.Time, suffix string) string {
	domain := "unknown"
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		domain = strings.TrimPrefix(u.Host, "www.")
		domain = strings.ReplaceAll(domain, ".", "_")
	}
	return fmt.Sprintf("%s_%s_%s_%s", businessType, domain, at.Format(timestampLayout), suffix)
}

// Writer persists result bundles under a single output directory.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "artifact: create output dir")
	}
	return &Writer{dir: dir, now: func() time.Time { return time.Now().UTC() }}, nil
}

// WrittenFiles lists the artifact paths produced for one bundle.
type WrittenFiles struct {
	Markdown   string
	Extraction string
	Metrics    string
}

// WriteBundle persists one record's artifacts: the captured markdown,
// the structured extraction, and the run metrics. Absent pieces are
// skipped, so a failed capture still produces a metrics file.
func (w *Writer) WriteBundle(bundle model.ResultBundle) (WrittenFiles, error) {
	var files WrittenFiles
	at := bundle.Meta.CapturedAt
	if at.IsZero() {
		at = w.now()
	}

	name := func(suffix string) string {
		return filepath.Join(w.dir, Filename(bundle.Record.URL, bundle.Record.BusinessType, at, suffix))
	}

	if bundle.Capture != nil && bundle.Capture.Markdown != "" {
		files.Markdown = name("markdown.md")
		if err := os.WriteFile(files.Markdown, []byte(bundle.Capture.Markdown), 0o644); err != nil {
			return files, eris.Wrap(err, "artifact: write markdown")
		}
	}

	if bundle.Extraction != nil {
		files.Extraction = name("extracted.json")
		if err := writeJSON(files.Extraction, bundle.Extraction); err != nil {
			return files, err
		}
	}

	files.Metrics = name("metrics.json")
	metrics := struct {
		Record model.BusinessRecord `json:"record"`
		Score  model.QualityScore   `json:"score"`
		Meta   model.RunMeta        `json:"meta"`
	}{bundle.Record, bundle.Score, bundle.Meta}
	if err := writeJSON(files.Metrics, metrics); err != nil {
		return files, err
	}

	zap.L().Debug("wrote bundle artifacts",
		zap.String("url", bundle.Record.URL),
		zap.String("metrics", files.Metrics),
	)

	return files, nil
}

// Summary is the batch-level rollup written after a run.
type Summary struct {
	Timestamp time.Time                                      `json:"timestamp"`
	Stats     scorer.AggregateStats                          `json:"stats"`
	ByType    map[model.BusinessType]scorer.AggregateStats   `json:"by_type"`
	Targets   map[string]scorer.TargetCheck                  `json:"targets"`
}

// WriteSummary persists extraction_summary.json and a readable
// report.md for the whole batch.
func (w *Writer) WriteSummary(bundles []model.ResultBundle) (Summary, error) {
	summary := Summary{
		Timestamp: w.now(),
		Stats:     scorer.Aggregate(bundles),
		ByType:    scorer.AggregateByType(bundles),
	}
	summary.Targets = scorer.CheckTargets(summary.Stats)

	if err := writeJSON(filepath.Join(w.dir, "extraction_summary.json"), summary); err != nil {
		return summary, err
	}

	report := scorer.FormatReport(summary.Stats, summary.ByType)
	if err := os.WriteFile(filepath.Join(w.dir, "report.md"), []byte(report), 0o644); err != nil {
		return summary, eris.Wrap(err, "artifact: write report")
	}

	return summary, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "artifact: encode json")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "artifact: write json")
	}
	return nil
}

// ReadMetrics loads every *_metrics.json under dir back into bundles
// (record, score, and meta only). Used by the report command.
func ReadMetrics(dir string) ([]model.ResultBundle, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*_metrics.json"))
	if err != nil {
		return nil, eris.Wrap(err, "artifact: glob metrics")
	}

	var bundles []model.ResultBundle
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "artifact: read %s", path)
		}

		var m struct {
			Record model.BusinessRecord `json:"record"`
			Score  model.QualityScore   `json:"score"`
			Meta   model.RunMeta        `json:"meta"`
		}
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, eris.Wrapf(err, "artifact: parse %s", path)
		}

		bundle := model.ResultBundle{Record: m.Record, Score: m.Score, Meta: m.Meta}
		// Metrics don't carry the extraction itself; reconstruct the
		// success flag from the recorded method.
		if m.Meta.Method == model.MethodSchema || m.Meta.Method == model.MethodFallback {
			bundle.Extraction = &model.ExtractionResult{}
		}
		bundles = append(bundles, bundle)
	}

	return bundles, nil
}

// WriteCrawlPages persists a full crawl's pages as one JSON file in
// the crawl storage directory and returns its path.
func WriteCrawlPages(dir, crawlID string, pages []model.CrawledPage) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrap(err, "artifact: create storage dir")
	}
	path := filepath.Join(dir, crawlID+".json")
	if err := writeJSON(path, pages); err != nil {
		return "", err
	}
	return path, nil
}
