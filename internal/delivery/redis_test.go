package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/entrealas/orderdesk/pkg/errors"
)

type fakePublisher struct {
	keys       map[string]time.Duration
	values     map[string]string
	published  []string
	receivers  int64
	publishErr error
	setErr     error
}

func newFakePublisher(receivers int64) *fakePublisher {
	return &fakePublisher{keys: map[string]time.Duration{}, values: map[string]string{}, receivers: receivers}
}

func (f *fakePublisher) Publish(_ context.Context, _ string, payload any) (int64, error) {
	if f.publishErr != nil {
		return 0, f.publishErr
	}
	f.published = append(f.published, payload.(string))
	return f.receivers, nil
}

func (f *fakePublisher) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.setErr != nil {
		return false, f.setErr
	}
	if _, ok := f.keys[key]; ok {
		return false, nil
	}
	f.keys[key] = ttl
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakePublisher) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakePublisher) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.keys, k)
		delete(f.values, k)
	}
	return nil
}

func (f *fakePublisher) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

func envelope() Envelope {
	return Envelope{
		OrderID:  "5f0c7a1e-3f2b-4a55-9a51-0d6c1f1b2a10",
		Code:     "EA-1026-1234",
		Message:  "pedido",
		Total:    decimal.NewFromInt(170),
		Prepared: time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestRedisSendPublishesOncePerCode(t *testing.T) {
	t.Parallel()

	pub := newFakePublisher(1)
	ch := NewRedis(pub, "orders", time.Hour)

	require.NoError(t, ch.Send(context.Background(), envelope()))
	require.NoError(t, ch.Send(context.Background(), envelope()))
	require.Len(t, pub.published, 1)
	assert.Equal(t, time.Hour, pub.keys["test:delivery:EA-1026-1234"])

	assert.Equal(t, envelope().OrderID, pub.values["test:delivery:EA-1026-1234"])

	var decoded Envelope
	require.NoError(t, json.Unmarshal([]byte(pub.published[0]), &decoded))
	assert.Equal(t, "EA-1026-1234", decoded.Code)
	assert.Equal(t, envelope().OrderID, decoded.OrderID)
	assert.True(t, decoded.Total.Equal(decimal.NewFromInt(170)))

	other := envelope()
	other.OrderID = "9d3e2b44-0c1a-4f6e-8b7d-2a5c6e8f9011"
	other.Message = "otro pedido"
	other.Client = "Luis"
	err := ch.Send(context.Background(), other)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	assert.ErrorIs(t, err, ErrCodeInUse)
	assert.Len(t, pub.published, 1)
	assert.Equal(t, envelope().OrderID, pub.values["test:delivery:EA-1026-1234"])
}

func TestRedisSendWithoutListenersReleasesKey(t *testing.T) {
	t.Parallel()

	pub := newFakePublisher(0)
	ch := NewRedis(pub, "", 0)

	err := ch.Send(context.Background(), envelope())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDeliveryFailed))
	assert.Empty(t, pub.keys)

	pub.receivers = 1
	require.NoError(t, ch.Send(context.Background(), envelope()))
	assert.Len(t, pub.published, 2)
}

func TestRedisSendPublishError(t *testing.T) {
	t.Parallel()

	pub := newFakePublisher(1)
	pub.publishErr = errors.New("connection reset")

	err := NewRedis(pub, "orders", time.Minute).Send(context.Background(), envelope())
	require.Error(t, err)
	assert.ErrorIs(t, err, pub.publishErr)
	assert.Empty(t, pub.keys)
}

func TestRedisSendRequiresCode(t *testing.T) {
	t.Parallel()

	err := NewRedis(newFakePublisher(1), "orders", time.Minute).Send(context.Background(), Envelope{})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	env := envelope()
	env.OrderID = ""
	err = NewRedis(newFakePublisher(1), "orders", time.Minute).Send(context.Background(), env)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, ProtocolRedis, NewRedis(nil, "", 0).Protocol())
}
