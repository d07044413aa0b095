package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"equipviz.dev/backend/internal/constant"
	"equipviz.dev/backend/internal/model"
	"equipviz.dev/backend/internal/pkg/observability"
	"equipviz.dev/backend/internal/pkg/vzerr"
)

// MemoryRetention is a process-local RetentionStore. History is lost on restart.
type MemoryRetention struct {
	mu sync.RWMutex

	records  []*model.SummaryRecord
	lastID   int64
	capacity int
	now      func() time.Time
}

type MemoryOption func(*MemoryRetention)

// WithClock replaces the clock used to stamp UploadedAt.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryRetention) {
		m.now = now
	}
}

func NewMemoryRetention(opts ...MemoryOption) *MemoryRetention {
	m := &MemoryRetention{
		capacity: constant.MaxHistory,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryRetention) Append(ctx context.Context, record *model.SummaryRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, vzerr.ErrStorage.Wrap(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *record
	m.lastID++
	stored.ID = m.lastID
	if stored.UploadedAt.IsZero() {
		stored.UploadedAt = m.now().UTC()
	}
	m.records = append(m.records, &stored)

	if evicted := m.evictOldestIfOverCapacity(); evicted > 0 {
		observability.HistoryEvictions.Add(float64(evicted))
		log.Debug().
			Str("evt.name", "repo.retention.evicted").
			Int("evicted", evicted).
			Int64("appended_id", stored.ID).
			Msg("evicted oldest summary records")
	}

	record.ID = stored.ID
	record.UploadedAt = stored.UploadedAt
	return stored.ID, nil
}

// evictOldestIfOverCapacity must be called with mu held for writing.
func (m *MemoryRetention) evictOldestIfOverCapacity() int {
	evicted := 0
	for len(m.records) > m.capacity {
		oldest := 0
		for i, r := range m.records {
			if newestFirst(m.records[oldest], r) {
				oldest = i
			}
		}
		m.records = append(m.records[:oldest], m.records[oldest+1:]...)
		evicted++
	}
	return evicted
}

func (m *MemoryRetention) List(ctx context.Context) ([]*model.SummaryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, vzerr.ErrStorage.Wrap(err)
	}

	m.mu.RLock()
	out := make([]*model.SummaryRecord, len(m.records))
	for i, r := range m.records {
		c := *r
		out[i] = &c
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return newestFirst(out[i], out[j])
	})
	return out, nil
}
