package notify

import (
	"context"

	"github.com/pitabwire/frame"
	"github.com/pkg/errors"
)

// PublisherSink forwards envelopes to a frame publisher, NATS or an in memory queue
// depending on the registered publisher URL.
type PublisherSink struct {
	Service   *frame.Service
	Reference string
}

func (s *PublisherSink) Publish(ctx context.Context, kind string, _ string, payload []byte) error {
	err := s.Service.Publish(ctx, s.Reference, payload)
	return errors.Wrapf(err, "could not publish %s notification", kind)
}
