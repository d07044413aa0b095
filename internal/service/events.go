package service

import (
	"context"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"equipviz.dev/backend/internal/constant"
	"equipviz.dev/backend/internal/model"
)

type jetStreamPublisher interface {
	PublishAsync(subj string, data []byte, opts ...nats.PubOpt) (nats.PubAckFuture, error)
}

// Events announces accepted summaries on NATS JetStream for downstream
// consumers such as report generation.
type Events struct {
	JetStream jetStreamPublisher
}

func NewEvents(js nats.JetStreamContext) *Events {
	return &Events{
		JetStream: js,
	}
}

func (s *Events) SummaryCreated(ctx context.Context, event *model.SummaryCreatedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal summary event")
	}

	msgID := strconv.FormatInt(event.RecordID, 10) + ":" + event.PayloadHash
	pub, err := s.JetStream.PublishAsync(constant.SummaryCreatedSubject, body, nats.MsgId(msgID))
	if err != nil {
		return errors.Wrap(err, "failed to publish summary event")
	}

	select {
	case err := <-pub.Err():
		return err
	case <-pub.Ok():
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "timeout waiting for NATS ack")
	}
}
