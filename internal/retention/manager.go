// Package retention manages the lifecycle of stored crawl data: an
// 18-month retention window, 6-month recrawl scheduling, and a cap of
// 3 stored versions per business.
package retention

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Policy holds the retention rules.
type Policy struct {
	MaxVersions   int
	RetainMonths  int
	RecrawlMonths int
}

// DefaultPolicy returns the stock retention rules.
func DefaultPolicy() Policy {
	return Policy{MaxVersions: 3, RetainMonths: 18, RecrawlMonths: 6}
}

// CrawlRecord is one stored crawl version in the index.
type CrawlRecord struct {
	CrawlID      string    `json:"crawl_id"`
	BusinessID   string    `json:"business_id"`
	BusinessURL  string    `json:"business_url"`
	BusinessType string    `json:"business_type"`
	Version      int       `json:"version"`
	CrawlFile    string    `json:"crawl_file"`
	PagesCrawled int       `json:"pages_crawled"`
	CreditsUsed  int       `json:"credits_used"`
	CrawledAt    time.Time `json:"crawled_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// BusinessEntry tracks all crawls of one business.
type BusinessEntry struct {
	BusinessURL    string     `json:"business_url"`
	BusinessType   string     `json:"business_type"`
	BusinessName   string     `json:"business_name,omitempty"`
	CrawlIDs       []string   `json:"crawl_ids"`
	FirstCrawledAt *time.Time `json:"first_crawled_at,omitempty"`
	LastCrawledAt  *time.Time `json:"last_crawled_at,omitempty"`
	NextCrawlDue   *time.Time `json:"next_crawl_due,omitempty"`
	CrawlCount     int        `json:"crawl_count"`
}

type index struct {
	Businesses  map[string]*BusinessEntry `json:"businesses"`
	Crawls      map[string]*CrawlRecord   `json:"crawls"`
	LastCleanup *time.Time                `json:"last_cleanup,omitempty"`
}

// Manager owns the crawl index file and enforces the Policy.
type Manager struct {
	storageDir string
	indexPath  string
	policy     Policy
	idx        index
	now        func() time.Time
}

// NewManager opens (or creates) the crawl index under storageDir.
func NewManager(storageDir string, policy Policy) (*Manager, error) {
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "retention: create storage dir")
	}

	m := &Manager{
		storageDir: storageDir,
		indexPath:  filepath.Join(storageDir, "crawl_index.json"),
		policy:     policy,
		now:        func() time.Time { return time.Now().UTC() },
	}

	if err := m.loadIndex(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) loadIndex() error {
	data, err := os.ReadFile(m.indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			m.idx = index{
				Businesses: make(map[string]*BusinessEntry),
				Crawls:     make(map[string]*CrawlRecord),
			}
			return nil
		}
		return eris.Wrap(err, "retention: read index")
	}

	if err := json.Unmarshal(data, &m.idx); err != nil {
		return eris.Wrap(err, "retention: parse index")
	}
	if m.idx.Businesses == nil {
		m.idx.Businesses = make(map[string]*BusinessEntry)
	}
	if m.idx.Crawls == nil {
		m.idx.Crawls = make(map[string]*CrawlRecord)
	}
	return nil
}

func (m *Manager) saveIndex() error {
	data, err := json.MarshalIndent(m.idx, "", "  ")
	if err != nil {
		return eris.Wrap(err, "retention: encode index")
	}
	if err := os.WriteFile(m.indexPath, data, 0o644); err != nil {
		return eris.Wrap(err, "retention: write index")
	}
	return nil
}

// NormalizeURL strips protocol, www, and trailing slash so the result
// can serve as a stable business identifier.
func NormalizeURL(url string) string {
	url = strings.ToLower(url)
	for _, prefix := range []string{"https://", "http://", "www."} {
		url = strings.TrimPrefix(url, prefix)
	}
	return strings.TrimRight(url, "/")
}

// RegisterBusiness adds a business to the index if absent and returns
// its identifier.
func (m *Manager) RegisterBusiness(businessURL, businessType, businessName string) (string, error) {
	id := NormalizeURL(businessURL)
	if _, ok := m.idx.Businesses[id]; !ok {
		m.idx.Businesses[id] = &BusinessEntry{
			BusinessURL:  businessURL,
			BusinessType: businessType,
			BusinessName: businessName,
		}
		if err := m.saveIndex(); err != nil {
			return "", err
		}
	}
	return id, nil
}

// RegisterCrawl records a completed crawl: stamps its expiry, advances
// the recrawl schedule, and evicts the oldest stored version when the
// business exceeds the version cap.
func (m *Manager) RegisterCrawl(crawlID, businessURL, businessType, crawlFile string, pagesCrawled, creditsUsed int) (*CrawlRecord, error) {
	id, err := m.RegisterBusiness(businessURL, businessType, "")
	if err != nil {
		return nil, err
	}
	business := m.idx.Businesses[id]

	now := m.now()
	version := business.CrawlCount + 1

	record := &CrawlRecord{
		CrawlID:      crawlID,
		BusinessID:   id,
		BusinessURL:  businessURL,
		BusinessType: businessType,
		Version:      version,
		CrawlFile:    crawlFile,
		PagesCrawled: pagesCrawled,
		CreditsUsed:  creditsUsed,
		CrawledAt:    now,
		ExpiresAt:    now.AddDate(0, m.policy.RetainMonths, 0),
	}

	m.idx.Crawls[crawlID] = record
	business.CrawlIDs = append(business.CrawlIDs, crawlID)
	business.CrawlCount = version
	business.LastCrawledAt = &now
	due := now.AddDate(0, m.policy.RecrawlMonths, 0)
	business.NextCrawlDue = &due
	if business.FirstCrawledAt == nil {
		business.FirstCrawledAt = &now
	}

	m.enforceMaxVersions(business)

	if err := m.saveIndex(); err != nil {
		return nil, err
	}
	return record, nil
}

func (m *Manager) enforceMaxVersions(business *BusinessEntry) {
	for len(business.CrawlIDs) > m.policy.MaxVersions {
		oldest := business.CrawlIDs[0]
		business.CrawlIDs = business.CrawlIDs[1:]
		m.deleteCrawl(oldest)
		zap.L().Info("evicted oldest crawl version",
			zap.String("crawl_id", oldest),
			zap.String("business_url", business.BusinessURL),
		)
	}
}

func (m *Manager) deleteCrawl(crawlID string) {
	crawl, ok := m.idx.Crawls[crawlID]
	if !ok {
		return
	}
	if crawl.CrawlFile != "" {
		if err := os.Remove(crawl.CrawlFile); err != nil && !os.IsNotExist(err) {
			zap.L().Warn("failed to remove crawl file",
				zap.String("path", crawl.CrawlFile),
				zap.Error(err),
			)
		}
	}
	delete(m.idx.Crawls, crawlID)
}

// DueForCrawl lists businesses whose next crawl date has passed (or
// that were never crawled), longest overdue first.
func (m *Manager) DueForCrawl() []*BusinessEntry {
	now := m.now()
	var due []*BusinessEntry
	for _, b := range m.idx.Businesses {
		if b.NextCrawlDue == nil || !b.NextCrawlDue.After(now) {
			due = append(due, b)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		di, dj := due[i].NextCrawlDue, due[j].NextCrawlDue
		if di == nil {
			return dj != nil
		}
		if dj == nil {
			return false
		}
		return di.Before(*dj)
	})

	return due
}

// CleanupResult summarizes an expiry sweep.
type CleanupResult struct {
	CrawlsDeleted int       `json:"crawls_deleted"`
	BytesFreed    int64     `json:"bytes_freed"`
	CleanedAt     time.Time `json:"cleanup_timestamp"`
}

// CleanupExpired deletes crawls past their retention window.
func (m *Manager) CleanupExpired() (CleanupResult, error) {
	now := m.now()
	result := CleanupResult{CleanedAt: now}

	for crawlID, crawl := range m.idx.Crawls {
		if crawl.ExpiresAt.After(now) {
			continue
		}

		if info, err := os.Stat(crawl.CrawlFile); err == nil {
			result.BytesFreed += info.Size()
		}
		m.deleteCrawl(crawlID)
		result.CrawlsDeleted++

		if business, ok := m.idx.Businesses[crawl.BusinessID]; ok {
			business.CrawlIDs = removeString(business.CrawlIDs, crawlID)
		}
	}

	m.idx.LastCleanup = &now
	if err := m.saveIndex(); err != nil {
		return result, err
	}
	return result, nil
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// CrawlHistory returns all stored crawl records for a business,
// oldest first.
func (m *Manager) CrawlHistory(businessURL string) []*CrawlRecord {
	business, ok := m.idx.Businesses[NormalizeURL(businessURL)]
	if !ok {
		return nil
	}

	var history []*CrawlRecord
	for _, crawlID := range business.CrawlIDs {
		if crawl, ok := m.idx.Crawls[crawlID]; ok {
			history = append(history, crawl)
		}
	}
	return history
}

// LatestCrawl returns the most recent stored crawl, or nil.
func (m *Manager) LatestCrawl(businessURL string) *CrawlRecord {
	history := m.CrawlHistory(businessURL)
	if len(history) == 0 {
		return nil
	}
	return history[len(history)-1]
}

// ScheduleRecrawl moves a business's next crawl date. With priority it
// becomes due immediately; otherwise it is recomputed from the last
// crawl time.
func (m *Manager) ScheduleRecrawl(businessURL string, priority bool) (*time.Time, error) {
	business, ok := m.idx.Businesses[NormalizeURL(businessURL)]
	if !ok {
		return nil, eris.Errorf("retention: unknown business %q", businessURL)
	}

	var due time.Time
	if priority || business.LastCrawledAt == nil {
		due = m.now()
	} else {
		due = business.LastCrawledAt.AddDate(0, m.policy.RecrawlMonths, 0)
	}

	business.NextCrawlDue = &due
	if err := m.saveIndex(); err != nil {
		return nil, err
	}
	return &due, nil
}

// Stats summarizes the state of the stored corpus.
type Stats struct {
	TotalBusinesses int        `json:"total_businesses"`
	TotalCrawls     int        `json:"total_crawls"`
	ActiveCrawls    int        `json:"active_crawls"`
	ExpiringSoon    int        `json:"expiring_soon_30d"`
	DueForCrawl     int        `json:"businesses_due_for_crawl"`
	LastCleanup     *time.Time `json:"last_cleanup,omitempty"`
}

// RetentionStats computes current corpus statistics.
func (m *Manager) RetentionStats() Stats {
	now := m.now()
	stats := Stats{
		TotalBusinesses: len(m.idx.Businesses),
		TotalCrawls:     len(m.idx.Crawls),
		DueForCrawl:     len(m.DueForCrawl()),
		LastCleanup:     m.idx.LastCleanup,
	}

	soon := now.AddDate(0, 0, 30)
	for _, crawl := range m.idx.Crawls {
		if crawl.ExpiresAt.After(now) {
			stats.ActiveCrawls++
			if !crawl.ExpiresAt.After(soon) {
				stats.ExpiringSoon++
			}
		}
	}

	return stats
}
