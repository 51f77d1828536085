// Package dealstats keeps an in-process record of synced deals and
// summarises it for the dashboard.
package dealstats

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/google/uuid"
)

const (
	// DefaultRecentLimit bounds RecentActivity in a summary
	DefaultRecentLimit = 10
	// DefaultCapacity bounds the activity entries kept for recency
	DefaultCapacity = 1000
)

// Ledger records deals that reached at least one target. Totals are
// cumulative; only the newest Capacity entries are kept for recency.
type Ledger struct {
	mu       sync.RWMutex
	counts   models.DealCounts
	timeSec  int
	recent   []models.DealActivity
	capacity int
	now      func() time.Time
}

// NewLedger creates an empty ledger keeping at most capacity recent
// entries. A non-positive capacity uses DefaultCapacity.
func NewLedger(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ledger{capacity: capacity, now: time.Now}
}

// Record adds a sync of deal that reached the synced targets. Syncs that
// reached no target, or carry a non-positive or non-finite amount, are
// ignored.
func (l *Ledger) Record(source models.SyncSource, deal models.Deal, synced []string, timeSavedSec int) {
	if len(synced) == 0 || deal.Amount <= 0 || math.IsInf(deal.Amount, 0) || math.IsNaN(deal.Amount) {
		return
	}

	status := normalizeStatus(deal.Status)
	entry := models.DealActivity{
		ID:           uuid.New().String(),
		DealID:       deal.DealID,
		Customer:     deal.Customer,
		Amount:       deal.Amount,
		Status:       status,
		Source:       source,
		Synced:       append([]string(nil), synced...),
		TimeSavedSec: timeSavedSec,
		Timestamp:    l.now().UTC(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.counts.Total++
	l.counts.TotalAmount += deal.Amount
	switch status {
	case models.DealStatusClosed:
		l.counts.Closed++
	case models.DealStatusPending:
		l.counts.Pending++
	default:
		l.counts.Open++
	}
	l.timeSec += timeSavedSec

	l.recent = append(l.recent, entry)
	if over := len(l.recent) - l.capacity; over > 0 {
		l.recent = append(l.recent[:0:0], l.recent[over:]...)
	}
}

// Summary returns the totals and up to limit entries, newest first.
// A non-positive limit uses DefaultRecentLimit.
func (l *Ledger) Summary(limit int) models.DealSummary {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := models.DealSummary{
		Deals:          l.counts,
		SuccessRate:    100,
		TimeSavedSec:   l.timeSec,
		RecentActivity: make([]models.DealActivity, 0, min(limit, len(l.recent))),
	}
	if l.counts.Total > 0 {
		out.Deals.AvgDealSize = math.Round(l.counts.TotalAmount / float64(l.counts.Total))
		out.SuccessRate = int(math.Round(float64(l.counts.Closed) * 100 / float64(l.counts.Total)))
	}

	for i := len(l.recent) - 1; i >= 0 && len(out.RecentActivity) < limit; i-- {
		out.RecentActivity = append(out.RecentActivity, cloneActivity(l.recent[i]))
	}
	if len(out.RecentActivity) > 0 {
		last := out.RecentActivity[0]
		out.LastDeal = &last
	}
	return out
}

func normalizeStatus(s models.DealStatus) models.DealStatus {
	switch models.DealStatus(strings.ToLower(string(s))) {
	case models.DealStatusClosed:
		return models.DealStatusClosed
	case models.DealStatusPending:
		return models.DealStatusPending
	default:
		return models.DealStatusOpen
	}
}

func cloneActivity(a models.DealActivity) models.DealActivity {
	a.Synced = append([]string(nil), a.Synced...)
	return a
}
