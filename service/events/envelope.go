package events

import (
	"context"
	"encoding/json"
	"time"

	commonv1 "github.com/antinvestor/apis/go/common/v1"
	"github.com/google/uuid"

	"github.com/taibogaston/admininmo-sub000/service/business"
)

// NotificationEnvelope is the queued and published form of a business notification.
type NotificationEnvelope struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	EntityID   string          `json:"entityId"`
	EntityType string          `json:"entityType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

func NewNotificationEnvelope(n business.Notification, at time.Time) (*NotificationEnvelope, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return &NotificationEnvelope{
		ID:         uuid.NewString(),
		Kind:       string(n.Kind()),
		EntityID:   n.EntityID(),
		EntityType: n.EntityType(),
		OccurredAt: at.UTC(),
		Payload:    payload,
	}, nil
}

// lifecycleOf maps a notification onto the shared STATE/STATUS vocabulary of audit rows.
func lifecycleOf(kind string) (commonv1.STATE, commonv1.STATUS) {
	switch business.NotificationKind(kind) {
	case business.KindProofRegistered:
		return commonv1.STATE_ACTIVE, commonv1.STATUS_QUEUED
	case business.KindProofReviewed, business.KindTransferVerified:
		return commonv1.STATE_ACTIVE, commonv1.STATUS_IN_PROCESS
	case business.KindTransferApproved, business.KindPaymentApproved:
		return commonv1.STATE_ACTIVE, commonv1.STATUS_SUCCESSFUL
	case business.KindTransferRejected, business.KindPaymentRejected:
		return commonv1.STATE_INACTIVE, commonv1.STATUS_FAILED
	}
	return commonv1.STATE_CREATED, commonv1.STATUS_UNKNOWN
}

// Emitter queues an internal event. *frame.Service satisfies it.
type Emitter interface {
	Emit(ctx context.Context, name string, payload any) error
}

// Dispatcher hands business notifications to the frame event queue.
type Dispatcher struct {
	Emitter Emitter
	now     func() time.Time
}

func NewDispatcher(emitter Emitter) *Dispatcher {
	return &Dispatcher{Emitter: emitter, now: time.Now}
}

func (d *Dispatcher) Notify(ctx context.Context, n business.Notification) error {
	envelope, err := NewNotificationEnvelope(n, d.now())
	if err != nil {
		return err
	}
	event := NotificationDispatch{}
	return d.Emitter.Emit(ctx, event.Name(), envelope)
}
