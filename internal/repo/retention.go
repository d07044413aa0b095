package repo

import (
	"context"

	"equipviz.dev/backend/internal/model"
)

// RetentionStore keeps at most constant.MaxHistory summary records.
//
// Append stores a copy of record, assigns its ID (and UploadedAt when unset),
// and evicts the record with the earliest UploadedAt (lowest ID on ties) while
// the store is over capacity. Insert and eviction form one atomic step: a
// concurrent List never observes more than constant.MaxHistory records. When
// Append fails nothing has changed.
//
// List returns the retained records ordered by UploadedAt descending, ID
// descending on ties.
type RetentionStore interface {
	Append(ctx context.Context, record *model.SummaryRecord) (int64, error)
	List(ctx context.Context) ([]*model.SummaryRecord, error)
}

// newestFirst is the List order shared by every RetentionStore.
func newestFirst(a, b *model.SummaryRecord) bool {
	if !a.UploadedAt.Equal(b.UploadedAt) {
		return a.UploadedAt.After(b.UploadedAt)
	}
	return a.ID > b.ID
}
