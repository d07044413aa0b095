package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipviz.dev/backend/internal/client/api"
	"equipviz.dev/backend/internal/model"
)

type gatedSubmitter struct {
	gate  chan struct{}
	calls atomic.Int32
}

func (s *gatedSubmitter) Submit(ctx context.Context, _ string, r io.Reader) (*model.Summary, error) {
	s.calls.Add(1)
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	select {
	case <-s.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	d := model.NewDistribution()
	d.Add("A", 1)
	return &model.Summary{TotalItems: 1, TypeDistribution: d}, nil
}

func csvFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "equipment.csv")
	require.NoError(t, os.WriteFile(path, []byte("Type,Flowrate,Pressure,Temperature\nA,1,2,3\n"), 0o600))
	return path
}

func next(t *testing.T, c *Coordinator) Event {
	t.Helper()
	select {
	case ev := <-c.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("no event")
		return Event{}
	}
}

// settles waits for the coordinator to leave Uploading once the terminal
// event has been received.
func settles(t *testing.T, c *Coordinator, want State) {
	t.Helper()
	assert.Eventually(t, func() bool { return c.State() == want }, 5*time.Second, time.Millisecond)
}

func TestSubmitWhileUploadingIsIgnored(t *testing.T) {
	s := &gatedSubmitter{gate: make(chan struct{})}
	c := New(s)
	path := csvFile(t)

	require.True(t, c.Submit(path))
	started := next(t, c)
	assert.Equal(t, EventStarted, started.Kind)
	assert.Equal(t, MessageUploading, started.Message)
	assert.Equal(t, Uploading, c.State())

	assert.False(t, c.Submit(path))

	close(s.gate)
	done := next(t, c)
	assert.Equal(t, EventSucceeded, done.Kind)
	assert.Equal(t, MessageSucceeded, done.Message)
	assert.Equal(t, 1, done.Summary.TotalItems)
	settles(t, c, Succeeded)
	assert.Equal(t, int32(1), s.calls.Load())

	// re-armed
	require.True(t, c.Submit(path))
	assert.Equal(t, EventStarted, next(t, c).Kind)
	assert.Equal(t, EventSucceeded, next(t, c).Kind)
	assert.Equal(t, int32(2), s.calls.Load())
}

type stuckSubmitter struct {
	release chan struct{}
}

func (s *stuckSubmitter) Submit(context.Context, string, io.Reader) (*model.Summary, error) {
	<-s.release
	return nil, errors.New("released")
}

func TestTimeoutFailsAndRearms(t *testing.T) {
	s := &stuckSubmitter{release: make(chan struct{})}
	defer close(s.release)

	c := New(s, WithTimeout(50*time.Millisecond))
	path := csvFile(t)

	require.True(t, c.Submit(path))
	assert.Equal(t, EventStarted, next(t, c).Kind)

	failed := next(t, c)
	assert.Equal(t, EventFailed, failed.Kind)
	var timeout *api.TimeoutError
	require.True(t, errors.As(failed.Err, &timeout))
	assert.Equal(t, "Upload timed out after 50ms", failed.Message)
	settles(t, c, Failed)

	assert.True(t, c.Submit(path))
	assert.Equal(t, EventStarted, next(t, c).Kind)
}

func TestMissingFileFails(t *testing.T) {
	c := New(&gatedSubmitter{gate: make(chan struct{})})

	require.True(t, c.Submit(filepath.Join(t.TempDir(), "missing.csv")))
	assert.Equal(t, EventStarted, next(t, c).Kind)
	failed := next(t, c)
	assert.Equal(t, EventFailed, failed.Kind)
	assert.True(t, errors.Is(failed.Err, os.ErrNotExist))
	assert.Contains(t, failed.Message, "Error: ")
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&api.ConnectivityError{BaseURL: "http://127.0.0.1:8000/api"}, "Cannot connect to server. Make sure the backend is running at http://127.0.0.1:8000/api"},
		{&api.ServerRejectedError{StatusCode: 400, Message: "Invalid CSV file"}, "Server error: 400: Invalid CSV file"},
		{&api.ProtocolMismatchError{Reason: "body is not JSON"}, "Unexpected response from server: body is not JSON"},
		{&api.TimeoutError{After: 30 * time.Second}, "Upload timed out after 30s"},
		{errors.New("boom"), "Error: boom"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Describe(tc.err))
	}
}

func TestStaysBusyUntilTerminalEventIsTaken(t *testing.T) {
	s := &gatedSubmitter{gate: make(chan struct{})}
	close(s.gate)
	c := New(s)
	// unbuffered, so every send waits for the reader
	c.events = make(chan Event)
	path := csvFile(t)

	require.True(t, c.Submit(path))
	assert.Equal(t, EventStarted, next(t, c).Kind)

	// the upload has finished but its result is still undelivered
	require.Eventually(t, func() bool { return s.calls.Load() == 1 }, 5*time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, Uploading, c.State())
	assert.False(t, c.Submit(path))

	assert.Equal(t, EventSucceeded, next(t, c).Kind)
	settles(t, c, Succeeded)

	require.True(t, c.Submit(path))
	assert.Equal(t, EventStarted, next(t, c).Kind)
	assert.Equal(t, EventSucceeded, next(t, c).Kind)
	assert.Equal(t, int32(2), s.calls.Load())
}
