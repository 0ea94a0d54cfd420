package storage

import (
	"time"

	"lifeos-kb/internal/knowledge"
)

// Source is a watched web page that is re-crawled periodically.
type Source struct {
	ID            int64
	URL           string
	OwnerTenant   knowledge.TenantID // SystemTenant for GLOBAL sources
	Scope         knowledge.Scope
	Title         string
	RefreshHours  int        // Minimum age before a re-crawl
	IsActive      bool
	LastCrawledAt *time.Time // nil until the first successful crawl
	ErrorCount    int
	LastError     string
	CreatedAt     time.Time
}

// Stale reports whether the source is due for a crawl at now.
func (s *Source) Stale(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.LastCrawledAt == nil {
		return true
	}
	return now.Sub(*s.LastCrawledAt) >= time.Duration(s.RefreshHours)*time.Hour
}
