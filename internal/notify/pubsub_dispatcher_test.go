package notify

import (
	"context"
	"errors"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	messages []*gcppubsub.Message
	result   fakePublishResult
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	return f.result
}

type fakePublishResult struct {
	id  string
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return f.id, f.err
}

func TestSendPublishesWithRoutingAttributes(t *testing.T) {
	pub := &fakePublisher{result: fakePublishResult{id: "msg-1"}}
	dispatcher := &PubSubDispatcher{pub: pub}

	id, err := dispatcher.Send(context.Background(), Message{
		OrderID:     "o-1",
		Destination: DestinationCustomer,
		Recipient:   "+5215512345678",
		Body:        CustomerPendingBody(),
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	require.Len(t, pub.messages, 1)
	attrs := pub.messages[0].Attributes
	assert.Equal(t, "notification.dispatch", attrs["event_type"])
	assert.Equal(t, DestinationCustomer, attrs["destination"])
	assert.Equal(t, "o-1", attrs["order_id"])
	assert.NotEmpty(t, attrs["event_id"])
}

func TestSendRejectsIncompleteMessage(t *testing.T) {
	dispatcher := &PubSubDispatcher{pub: &fakePublisher{}}

	_, err := dispatcher.Send(context.Background(), Message{Destination: DestinationAgent})
	require.Error(t, err)
}

func TestSendSurfacesPublishFailure(t *testing.T) {
	pub := &fakePublisher{result: fakePublishResult{err: errors.New("broker down")}}
	dispatcher := &PubSubDispatcher{pub: pub}

	_, err := dispatcher.Send(context.Background(), Message{
		OrderID:     "o-1",
		Destination: DestinationAgent,
		Body:        AgentAssignedBody("o-1", "Maria"),
	})
	require.Error(t, err)
}
