// Package upload runs file submissions off the interaction loop and reports
// their progress as events.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"equipviz.dev/backend/internal/client/api"
	"equipviz.dev/backend/internal/model"
)

const (
	DefaultTimeout = 30 * time.Second

	MessageUploading = "Uploading file..."
	MessageSucceeded = "File uploaded successfully!"

	eventBuffer = 8
)

type State int

const (
	Idle State = iota
	Uploading
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Uploading:
		return "uploading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type EventKind int

const (
	EventStarted EventKind = iota
	EventSucceeded
	EventFailed
)

type Event struct {
	Kind    EventKind
	Path    string
	Message string

	// Summary is set on EventSucceeded.
	Summary *model.Summary
	// Err is set on EventFailed.
	Err error
}

// Submitter is the part of *api.Client the coordinator uses.
type Submitter interface {
	Submit(ctx context.Context, filename string, r io.Reader) (*model.Summary, error)
}

var _ Submitter = (*api.Client)(nil)

// Coordinator accepts one submission at a time. Submit returns immediately;
// the upload runs on its own goroutine and reports a started event followed
// by exactly one succeeded or failed event. The coordinator is re-armed only
// after the terminal event has been handed to the channel, so the events of
// one upload never interleave with those of the next.
//
// Events must be drained by the caller, otherwise a finished upload cannot
// report back and the coordinator stays busy.
type Coordinator struct {
	client  Submitter
	timeout time.Duration

	mu    sync.Mutex
	state State

	events chan Event
}

type Option func(*Coordinator)

// WithTimeout bounds each upload. Non-positive values keep DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func New(client Submitter, opts ...Option) *Coordinator {
	c := &Coordinator{
		client:  client,
		timeout: DefaultTimeout,
		events:  make(chan Event, eventBuffer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) Events() <-chan Event {
	return c.events
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit starts uploading path unless an upload is already in flight, in
// which case the request is dropped and false is returned.
func (c *Coordinator) Submit(path string) bool {
	c.mu.Lock()
	if c.state == Uploading {
		c.mu.Unlock()
		log.Debug().
			Str("evt.name", "upload.submit.ignored").
			Str("path", path).
			Msg("upload already in progress")
		return false
	}
	c.state = Uploading
	c.mu.Unlock()

	go c.run(path)
	return true
}

func (c *Coordinator) run(path string) {
	c.events <- Event{Kind: EventStarted, Path: path, Message: MessageUploading}

	summary, err := c.upload(path)
	if err != nil {
		log.Warn().
			Str("evt.name", "upload.failed").
			Str("path", path).
			Err(err).
			Msg("upload failed")

		c.finish(Failed, Event{Kind: EventFailed, Path: path, Message: Describe(err), Err: err})
		return
	}

	c.finish(Succeeded, Event{Kind: EventSucceeded, Path: path, Message: MessageSucceeded, Summary: summary})
}

// finish delivers the terminal event and only then leaves Uploading.
func (c *Coordinator) finish(s State, ev Event) {
	c.events <- ev
	c.setState(s)
}

type result struct {
	summary *model.Summary
	err     error
}

func (c *Coordinator) upload(path string) (*model.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		summary, err := c.client.Submit(ctx, filepath.Base(path), f)
		done <- result{summary, err}
	}()

	select {
	case r := <-done:
		return r.summary, r.err
	case <-ctx.Done():
		return nil, &api.TimeoutError{After: c.timeout, Err: ctx.Err()}
	}
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Describe turns an upload error into the message shown to the user.
func Describe(err error) string {
	var (
		conn     *api.ConnectivityError
		rejected *api.ServerRejectedError
		mismatch *api.ProtocolMismatchError
		timeout  *api.TimeoutError
	)
	switch {
	case errors.As(err, &timeout):
		if timeout.After > 0 {
			return fmt.Sprintf("Upload timed out after %s", timeout.After)
		}
		return "Upload timed out"
	case errors.As(err, &conn):
		return fmt.Sprintf("Cannot connect to server. Make sure the backend is running at %s", conn.BaseURL)
	case errors.As(err, &rejected):
		return fmt.Sprintf("Server error: %d: %s", rejected.StatusCode, rejected.Message)
	case errors.As(err, &mismatch):
		return "Unexpected response from server: " + mismatch.Reason
	}
	return "Error: " + err.Error()
}
