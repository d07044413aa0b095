package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/xxh3"
	"go.uber.org/fx"
	"golang.org/x/sync/singleflight"

	"equipviz.dev/backend/internal/app/appconfig"
	"equipviz.dev/backend/internal/core/dataset"
	"equipviz.dev/backend/internal/model"
	"equipviz.dev/backend/internal/pkg/cache"
	"equipviz.dev/backend/internal/pkg/observability"
	"equipviz.dev/backend/internal/pkg/vzerr"
	"equipviz.dev/backend/internal/repo"
)

const eventPublishTimeout = time.Second * 5

type SummaryDeps struct {
	fx.In

	Store   repo.RetentionStore
	Cache   cache.Cache[[]*model.SummaryRecord]
	Config  *appconfig.Config
	Events  *Events  `optional:"true"`
	Archive *Archive `optional:"true"`
}

// Summary turns uploaded tables into summaries and keeps their history.
type Summary struct {
	Store   repo.RetentionStore
	Cache   cache.Cache[[]*model.SummaryRecord]
	Events  *Events
	Archive *Archive

	cacheTTL       time.Duration
	archiveTimeout time.Duration

	fill singleflight.Group

	sideEffects sync.WaitGroup
}

func NewSummary(deps SummaryDeps) *Summary {
	return &Summary{
		Store:          deps.Store,
		Cache:          deps.Cache,
		Events:         deps.Events,
		Archive:        deps.Archive,
		cacheTTL:       deps.Config.HistoryCacheTTL,
		archiveTimeout: deps.Config.ArchiveTimeout,
	}
}

// Submit parses, validates and aggregates payload, then appends the scalar
// part of the summary to the history. The full summary, distribution
// included, is returned. A failed submission leaves the history untouched.
func (s *Summary) Submit(ctx context.Context, payload io.Reader) (*model.Summary, error) {
	start := time.Now()

	summary, record, raw, err := s.submit(ctx, payload)
	observability.SubmissionsTotal.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		log.Warn().
			Str("evt.name", "summary.submit.rejected").
			Err(err).
			Msg("summary submission rejected")
		return nil, err
	}

	observability.SubmissionDuration.WithLabelValues().Observe(time.Since(start).Seconds())
	observability.SubmissionRows.WithLabelValues().Observe(float64(summary.TotalItems))

	hash := strconv.FormatUint(xxh3.Hash(raw), 16)
	log.Info().
		Str("evt.name", "summary.submit.succeeded").
		Int64("record_id", record.ID).
		Int("total_items", summary.TotalItems).
		Int("types", summary.TypeDistribution.Len()).
		Str("payload_hash", hash).
		Msg("summary stored")

	s.announce(ctx, record, summary, hash, raw)

	return summary, nil
}

func (s *Summary) submit(ctx context.Context, payload io.Reader) (*model.Summary, *model.SummaryRecord, []byte, error) {
	raw, err := io.ReadAll(payload)
	if err != nil {
		return nil, nil, nil, vzerr.ErrMalformedInput.Wrap(err)
	}

	table, err := dataset.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, nil, err
	}
	rows, err := dataset.Validate(table)
	if err != nil {
		return nil, nil, nil, err
	}
	summary, err := dataset.Aggregate(rows)
	if err != nil {
		return nil, nil, nil, err
	}

	record := &model.SummaryRecord{}
	if err := copier.Copy(record, summary); err != nil {
		return nil, nil, nil, vzerr.ErrInternalError.Wrap(err)
	}

	if _, err := s.Store.Append(ctx, record); err != nil {
		return nil, nil, nil, err
	}
	s.invalidateHistory(ctx)

	return summary, record, raw, nil
}

// announce runs the best-effort side effects of an accepted submission. They
// outlive the request and never affect its outcome.
func (s *Summary) announce(ctx context.Context, record *model.SummaryRecord, summary *model.Summary, hash string, raw []byte) {
	if s.Events == nil && s.Archive == nil {
		return
	}

	detached := context.WithoutCancel(ctx)
	s.sideEffects.Add(1)
	go func() {
		defer s.sideEffects.Done()

		var archiveKey string
		if s.Archive != nil {
			actx, cancel := context.WithTimeout(detached, s.archiveTimeout)
			key, err := s.Archive.Store(actx, record, hash, raw)
			cancel()
			if err != nil {
				observability.SideEffectFailures.WithLabelValues("archive").Inc()
				log.Error().
					Str("evt.name", "summary.archive.failed").
					Int64("record_id", record.ID).
					Err(err).
					Msg("failed to archive upload")
			} else {
				archiveKey = key
			}
		}

		if s.Events == nil {
			return
		}

		event := &model.SummaryCreatedEvent{
			RecordID:    record.ID,
			UploadedAt:  record.UploadedAt,
			PayloadHash: hash,
			Summary:     summary,
		}
		if archiveKey != "" {
			event.Extra = map[string]any{"archive_key": archiveKey}
		}

		ectx, cancel := context.WithTimeout(detached, eventPublishTimeout)
		defer cancel()
		if err := s.Events.SummaryCreated(ectx, event); err != nil {
			observability.SideEffectFailures.WithLabelValues("event").Inc()
			log.Error().
				Str("evt.name", "summary.event.failed").
				Int64("record_id", record.ID).
				Err(err).
				Msg("failed to publish summary event")
		}
	}()
}

// Drain waits for in-flight side effects to finish or ctx to expire.
func (s *Summary) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.sideEffects.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// History returns the retained records, newest first. The returned records
// belong to the caller.
func (s *Summary) History(ctx context.Context) ([]*model.SummaryRecord, error) {
	gen, err := s.Cache.Generation(ctx)
	if err != nil {
		observability.HistoryCacheLookups.WithLabelValues("error").Inc()
		log.Warn().
			Str("evt.name", "summary.history.cache_generation_failed").
			Err(err).
			Msg("failed to read history cache generation, listing directly")
		return s.Store.List(ctx)
	}

	var records []*model.SummaryRecord
	err = s.Cache.Get(ctx, gen, &records)
	if err == nil {
		observability.HistoryCacheLookups.WithLabelValues("hit").Inc()
		// msgpack decodes timestamps into the local zone
		for _, r := range records {
			r.UploadedAt = r.UploadedAt.UTC()
		}
		return records, nil
	}
	if errors.Is(err, cache.ErrNotFound) {
		observability.HistoryCacheLookups.WithLabelValues("miss").Inc()
	} else {
		observability.HistoryCacheLookups.WithLabelValues("error").Inc()
	}

	// keyed by generation so a caller never joins a fill that an append
	// has already superseded
	v, err, _ := s.fill.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		records, err := s.Store.List(fctx)
		if err != nil {
			return nil, err
		}
		if err := s.Cache.Set(fctx, gen, records, s.cacheTTL); err != nil {
			log.Warn().
				Str("evt.name", "summary.history.cache_fill_failed").
				Err(err).
				Msg("failed to cache history")
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}

	return cloneRecords(v.([]*model.SummaryRecord)), nil
}

func (s *Summary) invalidateHistory(ctx context.Context) {
	if err := s.Cache.Bump(ctx); err != nil {
		log.Warn().
			Str("evt.name", "summary.history.cache_invalidate_failed").
			Err(err).
			Msg("failed to invalidate history cache")
	}
}

func cloneRecords(records []*model.SummaryRecord) []*model.SummaryRecord {
	out := make([]*model.SummaryRecord, len(records))
	for i, r := range records {
		c := *r
		out[i] = &c
	}
	return out
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var e *vzerr.VizError
	if errors.As(err, &e) {
		return strings.ToLower(e.ErrorCode)
	}
	return "unknown"
}
