package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipviz.dev/backend/internal/app/appconfig"
	"equipviz.dev/backend/internal/constant"
	"equipviz.dev/backend/internal/model"
	"equipviz.dev/backend/internal/pkg/archiver"
	"equipviz.dev/backend/internal/pkg/cache"
	"equipviz.dev/backend/internal/pkg/vzerr"
	"equipviz.dev/backend/internal/repo"
)

const scenarioCSV = "Type,Flowrate,Pressure,Temperature\nA,1,2,3\nB,4,5,6\nA,7,8,9\n"

func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

type countingStore struct {
	repo.RetentionStore

	mu    sync.Mutex
	lists int
}

func (s *countingStore) List(ctx context.Context) ([]*model.SummaryRecord, error) {
	s.mu.Lock()
	s.lists++
	s.mu.Unlock()
	return s.RetentionStore.List(ctx)
}

type failingStore struct{}

func (failingStore) Append(context.Context, *model.SummaryRecord) (int64, error) {
	return 0, vzerr.ErrStorage.Wrap(errors.New("connection refused"))
}

func (failingStore) List(context.Context) ([]*model.SummaryRecord, error) {
	return nil, vzerr.ErrStorage.Wrap(errors.New("connection refused"))
}

func newTestSummary(store repo.RetentionStore) *Summary {
	return NewSummary(SummaryDeps{
		Store: store,
		Cache: cache.NewSingular[[]*model.SummaryRecord](constant.HistoryCacheKey),
		Config: &appconfig.Config{ConfigSpec: appconfig.ConfigSpec{
			HistoryCacheTTL: time.Minute,
			ArchiveTimeout:  time.Second,
		}},
	})
}

func TestSubmitScenario(t *testing.T) {
	s := newTestSummary(repo.NewMemoryRetention())

	summary, err := s.Submit(context.Background(), strings.NewReader(scenarioCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalItems)
	assert.InDelta(t, 4.0, summary.AvgFlowrate, 1e-9)
	assert.InDelta(t, 5.0, summary.AvgPressure, 1e-9)
	assert.InDelta(t, 6.0, summary.AvgTemperature, 1e-9)
	assert.Equal(t, []string{"A", "B"}, summary.TypeDistribution.Labels())
	assert.Equal(t, 2, summary.TypeDistribution.Count("A"))

	history, err := s.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 3, history[0].TotalItems)
	assert.InDelta(t, 4.0, history[0].AvgFlowrate, 1e-9)
	assert.NotZero(t, history[0].ID)
	assert.False(t, history[0].UploadedAt.IsZero())
}

func TestRejectedSubmissionPersistsNothing(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    error
	}{
		{"missing pressure", "Type,Flowrate,Temperature\nA,1,3\n", vzerr.ErrSchema},
		{"header only", "Type,Flowrate,Pressure,Temperature\n", vzerr.ErrEmptyDataset},
		{"not a table", "Type,Flowrate\n\"unterminated\n", vzerr.ErrMalformedInput},
		{"empty", "", vzerr.ErrMalformedInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSummary(repo.NewMemoryRetention())

			_, err := s.Submit(context.Background(), strings.NewReader(tc.payload))
			assert.True(t, errors.Is(err, tc.want), "got %v", err)

			history, err := s.History(context.Background())
			require.NoError(t, err)
			assert.Empty(t, history)
		})
	}
}

func TestSubmitSurfacesStorageFailure(t *testing.T) {
	s := newTestSummary(failingStore{})

	_, err := s.Submit(context.Background(), strings.NewReader(scenarioCSV))
	assert.True(t, errors.Is(err, vzerr.ErrStorage))

	_, err = s.History(context.Background())
	assert.True(t, errors.Is(err, vzerr.ErrStorage))
}

func TestHistoryKeepsFiveNewest(t *testing.T) {
	s := newTestSummary(repo.NewMemoryRetention(repo.WithClock(tickingClock())))

	for i := 1; i <= 7; i++ {
		payload := "Type,Flowrate,Pressure,Temperature\n"
		for j := 0; j < i; j++ {
			payload += fmt.Sprintf("T%d,1,1,1\n", j)
		}
		_, err := s.Submit(context.Background(), strings.NewReader(payload))
		require.NoError(t, err)

		// fills the cache, which the next submit must invalidate
		_, err = s.History(context.Background())
		require.NoError(t, err)
	}

	history, err := s.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, constant.MaxHistory)
	for i, record := range history {
		assert.Equal(t, 7-i, record.TotalItems)
	}
}

func TestHistoryIsServedFromCache(t *testing.T) {
	store := &countingStore{RetentionStore: repo.NewMemoryRetention()}
	s := newTestSummary(store)

	_, err := s.Submit(context.Background(), strings.NewReader(scenarioCSV))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		history, err := s.History(context.Background())
		require.NoError(t, err)
		require.Len(t, history, 1)
	}
	assert.Equal(t, 1, store.lists)

	_, err = s.Submit(context.Background(), strings.NewReader(scenarioCSV))
	require.NoError(t, err)
	history, err := s.History(context.Background())
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, 2, store.lists)
}

// pausingCache holds the first Set until released, leaving room for an append
// to land between the fill's List and its Set.
type pausingCache struct {
	cache.Cache[[]*model.SummaryRecord]

	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (c *pausingCache) Set(ctx context.Context, gen uint64, value []*model.SummaryRecord, expire time.Duration) error {
	c.once.Do(func() {
		close(c.entered)
		<-c.release
	})
	return c.Cache.Set(ctx, gen, value, expire)
}

func TestHistoryFillRacingAppendIsNotServed(t *testing.T) {
	pausing := &pausingCache{
		Cache:   cache.NewSingular[[]*model.SummaryRecord](constant.HistoryCacheKey),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newTestSummary(repo.NewMemoryRetention(repo.WithClock(tickingClock())))
	s.Cache = pausing

	_, err := s.Submit(context.Background(), strings.NewReader(scenarioCSV))
	require.NoError(t, err)

	filled := make(chan []*model.SummaryRecord, 1)
	go func() {
		history, err := s.History(context.Background())
		assert.NoError(t, err)
		filled <- history
	}()
	<-pausing.entered

	_, err = s.Submit(context.Background(), strings.NewReader(scenarioCSV))
	require.NoError(t, err)

	close(pausing.release)
	assert.Len(t, <-filled, 1)

	for i := 0; i < 2; i++ {
		history, err := s.History(context.Background())
		require.NoError(t, err)
		assert.Len(t, history, 2)
	}
}

func TestReplicasSharingCacheSeeEachOthersAppends(t *testing.T) {
	store := repo.NewMemoryRetention(repo.WithClock(tickingClock()))
	shared := cache.NewSingular[[]*model.SummaryRecord](constant.HistoryCacheKey)

	a := newTestSummary(store)
	a.Cache = shared
	b := newTestSummary(store)
	b.Cache = shared

	_, err := a.Submit(context.Background(), strings.NewReader(scenarioCSV))
	require.NoError(t, err)
	history, err := b.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)

	_, err = a.Submit(context.Background(), strings.NewReader(scenarioCSV))
	require.NoError(t, err)
	history, err = b.History(context.Background())
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestHistoryRecordsBelongToCaller(t *testing.T) {
	s := newTestSummary(repo.NewMemoryRetention())

	_, err := s.Submit(context.Background(), strings.NewReader(scenarioCSV))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		history, err := s.History(context.Background())
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, 3, history[0].TotalItems)
		assert.InDelta(t, 4.0, history[0].AvgFlowrate, 1e-9)

		history[0].TotalItems = 999
		history[0].AvgFlowrate = -1
	}
}

type ackedFuture struct {
	ok  chan *nats.PubAck
	err chan error
}

func (f *ackedFuture) Ok() <-chan *nats.PubAck { return f.ok }
func (f *ackedFuture) Err() <-chan error       { return f.err }
func (f *ackedFuture) Msg() *nats.Msg          { return nil }

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	bodies   [][]byte
}

func (p *recordingPublisher) PublishAsync(subj string, data []byte, _ ...nats.PubOpt) (nats.PubAckFuture, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subj)
	p.bodies = append(p.bodies, data)

	f := &ackedFuture{ok: make(chan *nats.PubAck, 1), err: make(chan error, 1)}
	f.ok <- &nats.PubAck{Stream: constant.SummaryStreamName}
	return f, nil
}

type memoryBucket struct {
	mu   sync.Mutex
	keys []string
}

func (b *memoryBucket) HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return nil, &smithy.GenericAPIError{Code: "NotFound"}
}

func (b *memoryBucket) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if _, err := io.Copy(io.Discard, params.Body); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keys = append(b.keys, aws.ToString(params.Key))
	return &s3.PutObjectOutput{}, nil
}

func TestAcceptedSubmissionIsArchivedAndAnnounced(t *testing.T) {
	publisher := &recordingPublisher{}
	bucket := &memoryBucket{}

	s := newTestSummary(repo.NewMemoryRetention())
	s.Events = &Events{JetStream: publisher}
	s.Archive = &Archive{Archiver: &archiver.Archiver{S3Client: bucket, S3Bucket: "uploads", S3Prefix: constant.ArchiveKeyPrefix}}

	_, err := s.Submit(context.Background(), strings.NewReader(scenarioCSV))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	require.NoError(t, s.Drain(ctx))

	require.Len(t, bucket.keys, 1)
	assert.True(t, strings.HasPrefix(bucket.keys[0], constant.ArchiveKeyPrefix))
	assert.True(t, strings.HasSuffix(bucket.keys[0], archiver.FileExt))

	require.Equal(t, []string{constant.SummaryCreatedSubject}, publisher.subjects)
	var event model.SummaryCreatedEvent
	require.NoError(t, json.Unmarshal(publisher.bodies[0], &event))
	assert.Equal(t, int64(1), event.RecordID)
	assert.NotEmpty(t, event.PayloadHash)
	assert.Equal(t, 3, event.Summary.TotalItems)
	assert.Equal(t, 2, event.Summary.TypeDistribution.Count("A"))
	assert.Equal(t, bucket.keys[0], event.Extra["archive_key"])
}
