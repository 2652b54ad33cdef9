package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
)

type fakeSession struct {
	sarama.ConsumerGroupSession
	marked []int64
}

func (s *fakeSession) Context() context.Context { return context.Background() }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, metadata string) {
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	ch chan *sarama.ConsumerMessage
}

func (c fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.ch }

type handlerFunc func(context.Context, *sarama.ConsumerMessage) error

func (f handlerFunc) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error { return f(ctx, msg) }

func TestConsumeClaimMarksOnlyHandledMessages(t *testing.T) {
	ch := make(chan *sarama.ConsumerMessage, 3)
	for i := int64(0); i < 3; i++ {
		ch <- &sarama.ConsumerMessage{Offset: i, Value: []byte("x")}
	}
	close(ch)

	var seen []int64
	h := consumerGroupHandler{handler: handlerFunc(func(_ context.Context, msg *sarama.ConsumerMessage) error {
		seen = append(seen, msg.Offset)
		return nil
	})}

	sess := &fakeSession{}
	assert.NoError(t, h.ConsumeClaim(sess, fakeClaim{ch: ch}))
	assert.Equal(t, []int64{0, 1, 2}, seen)
	assert.Equal(t, []int64{0, 1, 2}, sess.marked)
}

func TestConsumeClaimStopsAtFailedMessage(t *testing.T) {
	ch := make(chan *sarama.ConsumerMessage, 3)
	for i := int64(0); i < 3; i++ {
		ch <- &sarama.ConsumerMessage{Offset: i, Value: []byte("x")}
	}
	close(ch)

	var seen []int64
	h := consumerGroupHandler{handler: handlerFunc(func(_ context.Context, msg *sarama.ConsumerMessage) error {
		seen = append(seen, msg.Offset)
		if msg.Offset == 1 {
			return errors.New("store unavailable")
		}
		return nil
	})}

	sess := &fakeSession{}
	err := h.ConsumeClaim(sess, fakeClaim{ch: ch})

	assert.EqualError(t, err, "store unavailable")
	// Offset 2 must not be handled or marked, otherwise the commit would
	// move past the failed message.
	assert.Equal(t, []int64{0, 1}, seen)
	assert.Equal(t, []int64{0}, sess.marked)
}
