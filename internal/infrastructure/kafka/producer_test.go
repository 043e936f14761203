package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type fixedIdentity struct {
	userID string
	ok     bool
}

func (i fixedIdentity) UserID() (string, bool) { return i.userID, i.ok }

func newTestProducer() (*Producer, *fakeWriter) {
	w := &fakeWriter{}
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &Producer{writer: w, now: func() time.Time { return fixed }}, w
}

func TestPublish(t *testing.T) {
	p, w := newTestProducer()

	err := p.Publish(context.Background(), "key-1", "Something", map[string]int{"n": 1})
	require.NoError(t, err)

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "key-1", string(msg.Key))
	assert.JSONEq(t, `{"n":1}`, string(msg.Value))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, "Something", string(msg.Headers[0].Value))
}

func TestPublish_WriterError(t *testing.T) {
	p, w := newTestProducer()
	w.err = errors.New("broker unavailable")

	err := p.Publish(context.Background(), "k", "E", struct{}{})
	assert.EqualError(t, err, "broker unavailable")
}

func TestPublish_Unmarshalable(t *testing.T) {
	p, w := newTestProducer()

	err := p.Publish(context.Background(), "k", "E", func() {})
	assert.Error(t, err)
	assert.Empty(t, w.messages)
}

func TestClose(t *testing.T) {
	p, w := newTestProducer()
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestCartMirror_PublishesSnapshot(t *testing.T) {
	p, w := newTestProducer()
	mirror := NewCartMirror(p, fixedIdentity{userID: "user-1", ok: true})

	state := cart.State{
		Items:         []cart.LineItem{{ProductID: "p1", Title: "Phone", UnitPrice: 10, Quantity: 3}},
		TotalQuantity: 3,
		TotalPrice:    30,
	}
	require.NoError(t, mirror.MirrorCart(context.Background(), state))

	require.Len(t, w.messages, 1)
	assert.Equal(t, "cart-user-1", string(w.messages[0].Key))

	var event cart.CartSnapshotted
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &event))
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "user-1", event.UserID)
	assert.Equal(t, 3, event.TotalQuantity)
	assert.Equal(t, "kafka", mirror.Name())
}

func TestCartMirror_Anonymous(t *testing.T) {
	p, w := newTestProducer()
	mirror := NewCartMirror(p, fixedIdentity{})

	require.NoError(t, mirror.MirrorCart(context.Background(), cart.State{}))
	assert.Equal(t, "cart-anonymous", string(w.messages[0].Key))
}
