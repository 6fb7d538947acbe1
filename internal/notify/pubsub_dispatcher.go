package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	pkgerrors "github.com/ventaflow/dispatch-backend/pkg/errors"
)

const publishTimeout = 15 * time.Second

var validate = validator.New()

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

// PubSubDispatcher publishes notification messages to the delivery topic.
// The actual SMS/email delivery worker consumes that topic; from the
// engine's point of view a successful publish is a successful send.
type PubSubDispatcher struct {
	pub publisher
}

// NewPubSubDispatcher wraps the notification topic publisher.
func NewPubSubDispatcher(pub *gcppubsub.Publisher) (*PubSubDispatcher, error) {
	if pub == nil {
		return nil, errors.New("notification publisher required")
	}
	return &PubSubDispatcher{pub: &gcpPublisher{pub: pub}}, nil
}

// Send publishes the message and returns the broker-assigned message id.
func (d *PubSubDispatcher) Send(ctx context.Context, msg Message) (string, error) {
	if err := validate.Struct(msg); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification message")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode notification")
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	result := d.pub.Publish(publishCtx, &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_id":    uuid.NewString(),
			"event_type":  "notification.dispatch",
			"destination": msg.Destination,
			"order_id":    msg.OrderID,
		},
	})
	id, err := result.Get(publishCtx)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish notification")
	}
	return id, nil
}

type gcpPublisher struct {
	pub *gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.pub.Publish(ctx, msg)
}
