package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/pitabwire/frame"

	"github.com/taibogaston/admininmo-sub000/service/business"
	"github.com/taibogaston/admininmo-sub000/service/models"
	"github.com/taibogaston/admininmo-sub000/service/repository"
)

// Sink delivers a notification envelope outside the service.
type Sink interface {
	Publish(ctx context.Context, kind string, key string, payload []byte) error
}

// NotificationDispatch records an audit status for the notification and forwards it to the sink.
type NotificationDispatch struct {
	Statuses repository.StatusRepository
	Sink     Sink
	Logger   business.Logger
}

func (e *NotificationDispatch) Name() string {
	return "notification.dispatch"
}

func (e *NotificationDispatch) PayloadType() any {
	return &NotificationEnvelope{}
}

func (e *NotificationDispatch) Validate(_ context.Context, payload any) error {
	envelope, ok := payload.(*NotificationEnvelope)
	if !ok {
		return errors.New(" payload is not of type events.NotificationEnvelope")
	}
	if envelope.ID == "" || envelope.Kind == "" {
		return errors.New(" notification id and kind should already have been set ")
	}
	if envelope.EntityID == "" {
		return errors.New(" notification entity is missing ")
	}
	return nil
}

func (e *NotificationDispatch) Execute(ctx context.Context, payload any) error {
	envelope := payload.(*NotificationEnvelope)

	e.Logger.Debug(ctx, "handling event", "type", e.Name(), "kind", envelope.Kind, "entity_id", envelope.EntityID)

	var details map[string]any
	if len(envelope.Payload) > 0 {
		if err := json.Unmarshal(envelope.Payload, &details); err != nil {
			e.Logger.Warn(ctx, err, "could not decode notification payload", "kind", envelope.Kind)
			return err
		}
	}

	state, status := lifecycleOf(envelope.Kind)
	auditRow := &models.Status{
		EntityID:   envelope.EntityID,
		EntityType: envelope.EntityType,
		Kind:       envelope.Kind,
		State:      int32(state),
		Status:     int32(status),
		Extra:      frame.DBPropertiesFromMap(stringify(details)),
	}
	auditRow.ID = envelope.ID

	if err := e.Statuses.Save(ctx, auditRow); err != nil {
		e.Logger.Warn(ctx, err, "could not save notification status", "kind", envelope.Kind)
		return err
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	if err = e.Sink.Publish(ctx, envelope.Kind, envelope.EntityID, body); err != nil {
		e.Logger.Warn(ctx, err, "could not publish notification", "kind", envelope.Kind)
		return err
	}

	e.Logger.Debug(ctx, "notification dispatched", "kind", envelope.Kind, "entity_id", envelope.EntityID)
	return nil
}

func stringify(details map[string]any) map[string]string {
	out := make(map[string]string, len(details))
	for k, v := range details {
		switch val := v.(type) {
		case string:
			out[k] = val
		default:
			raw, _ := json.Marshal(val)
			out[k] = string(raw)
		}
	}
	return out
}
