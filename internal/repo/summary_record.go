package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"equipviz.dev/backend/internal/constant"
	"equipviz.dev/backend/internal/model"
	"equipviz.dev/backend/internal/pkg/observability"
	"equipviz.dev/backend/internal/pkg/vzerr"
	"equipviz.dev/backend/internal/repo/selector"
)

// SummaryRecord is the PostgreSQL RetentionStore. Append runs in a single
// transaction holding a transaction-scoped advisory lock, so append+evict is
// serialized across every replica sharing the database.
type SummaryRecord struct {
	db  *bun.DB
	sel selector.S[model.SummaryRecord]
}

func NewSummaryRecord(db *bun.DB) *SummaryRecord {
	return &SummaryRecord{
		db:  db,
		sel: selector.New[model.SummaryRecord](db),
	}
}

// EnsureSchema creates the backing table and its ordering index when missing.
func (r *SummaryRecord) EnsureSchema(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*model.SummaryRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return err
	}

	_, err = r.db.NewCreateIndex().
		Model((*model.SummaryRecord)(nil)).
		Index("summary_records_uploaded_at_idx").
		IfNotExists().
		ColumnExpr("uploaded_at DESC, id DESC").
		Exec(ctx)
	return err
}

func (r *SummaryRecord) Append(ctx context.Context, record *model.SummaryRecord) (int64, error) {
	stored := *record
	stored.ID = 0
	if stored.UploadedAt.IsZero() {
		stored.UploadedAt = time.Now().UTC()
	}

	var evicted int64
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(?)", constant.HistoryAdvisoryLockKey); err != nil {
			return err
		}

		if _, err := tx.NewInsert().Model(&stored).Exec(ctx); err != nil {
			return err
		}

		n, err := r.evictOldestIfOverCapacity(ctx, tx)
		evicted = n
		return err
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("evt.name", "repo.summary_record.append_failed").
			Msg("failed to append summary record")
		return 0, vzerr.ErrStorage.Wrap(err)
	}

	if evicted > 0 {
		observability.HistoryEvictions.Add(float64(evicted))
		log.Debug().
			Str("evt.name", "repo.retention.evicted").
			Int64("evicted", evicted).
			Int64("appended_id", stored.ID).
			Msg("evicted oldest summary records")
	}

	record.ID = stored.ID
	record.UploadedAt = stored.UploadedAt
	return stored.ID, nil
}

// evictOldestIfOverCapacity deletes the oldest records until at most
// constant.MaxHistory remain. It must run inside the append transaction.
func (r *SummaryRecord) evictOldestIfOverCapacity(ctx context.Context, tx bun.Tx) (int64, error) {
	count, err := tx.NewSelect().
		Model((*model.SummaryRecord)(nil)).
		Count(ctx)
	if err != nil {
		return 0, err
	}
	if count <= constant.MaxHistory {
		return 0, nil
	}

	oldest := tx.NewSelect().
		Model((*model.SummaryRecord)(nil)).
		Column("id").
		OrderExpr("uploaded_at ASC, id ASC").
		Limit(count - constant.MaxHistory)

	res, err := tx.NewDelete().
		Model((*model.SummaryRecord)(nil)).
		Where("id IN (?)", oldest).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SummaryRecord) List(ctx context.Context) ([]*model.SummaryRecord, error) {
	records, err := r.sel.SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("uploaded_at DESC, id DESC").Limit(constant.MaxHistory)
	})
	if errors.Is(err, vzerr.ErrNotFound) {
		return []*model.SummaryRecord{}, nil
	} else if err != nil {
		return nil, vzerr.ErrStorage.Wrap(err)
	}
	return records, nil
}
