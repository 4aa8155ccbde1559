package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func newTestProducer(w *mockWriter) *Producer {
	return NewProducer(pkgkafka.NewProducerWithWriter(w, nil, logger.Discard()), logger.Discard())
}

func TestProducer_PublishCartUpdated(t *testing.T) {
	w := new(mockWriter)
	p := newTestProducer(w)

	var captured kafka.Message
	w.On("WriteMessages", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).([]kafka.Message)[0]
	}).Return(nil)

	ctx := logger.WithCorrelationID(context.Background(), "corr-9")
	err := p.PublishCartUpdated(ctx, CartUpdatedData{
		UserID: "u1", LineID: "l1", ProductID: "cotton-tee", Quantity: 2, Action: CartActionIncremented,
	})
	require.NoError(t, err)

	assert.Equal(t, TopicCartUpdated, captured.Topic)
	assert.Equal(t, "u1", string(captured.Key))

	var ev pkgkafka.Event
	require.NoError(t, json.Unmarshal(captured.Value, &ev))
	assert.Equal(t, AggregateTypeCart, ev.AggregateType)
	assert.Equal(t, SourceStorefront, ev.Source)
	assert.Equal(t, "corr-9", ev.CorrelationID)
	assert.Equal(t, CartActionIncremented, ev.Metadata["action"])

	var data CartUpdatedData
	require.NoError(t, ev.UnmarshalData(&data))
	assert.Equal(t, 2, data.Quantity)
	assert.Equal(t, CartActionIncremented, data.Action)
	w.AssertExpectations(t)
}

func TestProducer_PublishWishlistUpdated_WriterError(t *testing.T) {
	w := new(mockWriter)
	p := newTestProducer(w)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	err := p.PublishWishlistUpdated(context.Background(), WishlistUpdatedData{UserID: "u1", ProductID: "p", Action: WishlistActionAdded})
	require.Error(t, err)
	assert.Contains(t, err.Error(), TopicWishlistUpdated)
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.PublishCartUpdated(context.Background(), CartUpdatedData{}))
	assert.NoError(t, p.PublishWishlistUpdated(context.Background(), WishlistUpdatedData{}))
}
