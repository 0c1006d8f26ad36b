package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/crashtracker"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

func Test_EventConsumer_Consume(t *testing.T) {
	// setup mocks
	consumerMock := &MockConsumer{}
	crashTrackerMock := &crashtracker.MockCrashTrackerClient{}
	producerMock := &MockProducer{}

	msg := &Message{Key: "key-1", Topic: "test.test_topic"}
	unexpectedErr := errors.New("unexpected error")

	ec := NewEventConsumer(consumerMock, producerMock, crashTrackerMock)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(time.Second*8))
	defer cancel()

	crashTrackerMock.
		On("LogAndReportErrors", ctx, unexpectedErr, "consuming messages for topic test.test_topic").Return()

	consumerMock.
		On("Topic").Return("test.test_topic").
		On("ReadMessage", ctx).Return(nil, unexpectedErr).Twice().
		On("ReadMessage", ctx).Return(msg, nil).Once().
		On("ReadMessage", ctx).Return(nil, unexpectedErr).Once().
		On("ReadMessage", ctx).Return(msg, nil).
		On("Handlers").Return([]EventHandler{})

	getEntries := log.DefaultLogger.StartTest(log.WarnLevel)

	ec.Consume(ctx)

	entries := getEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, "Waiting 2s before retrying reading new messages", entries[0].Message)
	assert.Equal(t, "Waiting 4s before retrying reading new messages", entries[1].Message)
	assert.Equal(t, "Waiting 2s before retrying reading new messages", entries[2].Message) // backoffManager.ResetBackoff() was called

	consumerMock.AssertExpectations(t)
	crashTrackerMock.AssertExpectations(t)
}

func Test_EventConsumer_Consume_SendDLQ(t *testing.T) {
	// setup mocks
	consumerMock := &MockConsumer{}
	crashTrackerMock := &crashtracker.MockCrashTrackerClient{}
	producerMock := &MockProducer{}
	failedEventHandlerMock := &MockEventHandler{}

	handlingErr := errors.New("handling message for topic test.test_topic")
	msg := &Message{Key: "key-1", Topic: "test.test_topic"}

	ec := NewEventConsumer(consumerMock, producerMock, crashTrackerMock)
	ec.maxBackoff = 1

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(time.Second*3))
	defer cancel()

	crashTrackerMock.
		On("LogAndReportErrors", mock.Anything, mock.Anything, handlingErr.Error()).Return()

	consumerMock.
		On("Topic").Return("test.test_topic").
		On("ReadMessage", ctx).Return(msg, nil).
		On("Handlers").Return([]EventHandler{failedEventHandlerMock})

	failedEventHandlerMock.
		On("Handle", ctx, msg).Return(handlingErr).
		On("CanHandleMessage", ctx, msg).Return(true).
		On("Name").Return("FailedEventHandler")

	producerMock.
		On("WriteMessages", ctx, mock.Anything).Return(nil)

	getEntries := log.DefaultLogger.StartTest(log.WarnLevel)

	ec.Consume(ctx)

	entries := getEntries()
	assert.Equal(t, "Waiting 2s before retrying handling message with key key-1", entries[0].Message)
	assert.Equal(t, "Max backoff reached for topic test.test_topic.", entries[1].Message)
	assert.Equal(t, "Sending message with key key-1 to DLQ for topic test.test_topic", entries[2].Message)

	consumerMock.AssertExpectations(t)
	crashTrackerMock.AssertExpectations(t)
	producerMock.AssertExpectations(t)
	failedEventHandlerMock.AssertExpectations(t)
}

func Test_EventConsumer_finalizeConsumer_replaysInFlightMessage(t *testing.T) {
	consumerMock := &MockConsumer{}
	crashTrackerMock := &crashtracker.MockCrashTrackerClient{}
	producerMock := &MockProducer{}

	ec := NewEventConsumer(consumerMock, producerMock, crashTrackerMock)
	ctx := context.Background()

	msg := &Message{Key: "key-1", Topic: "test.test_topic"}
	producerMock.
		On("WriteMessages", ctx, []Message{*msg}).Return(nil).Once()

	ec.finalizeConsumer(ctx, msg)

	producerMock.AssertExpectations(t)
}

func Test_ShouldHandleMessage(t *testing.T) {
	ctx := context.Background()
	msg := &Message{Key: "key-1", Topic: "test.test_topic"}

	t.Run("skips when the handler cannot handle the message", func(t *testing.T) {
		handlerMock := &MockEventHandler{}
		handlerMock.On("CanHandleMessage", ctx, msg).Return(false).Once()

		assert.False(t, ShouldHandleMessage(ctx, handlerMock, msg))
		handlerMock.AssertExpectations(t)
	})

	t.Run("skips when the handler already executed successfully", func(t *testing.T) {
		handlerMock := &MockEventHandler{}
		handlerMock.
			On("CanHandleMessage", ctx, msg).Return(true).Once().
			On("Name").Return("MyHandler")

		executedMsg := &Message{Key: "key-1", Topic: "test.test_topic"}
		executedMsg.RecordSuccess("MyHandler")

		assert.False(t, ShouldHandleMessage(ctx, handlerMock, executedMsg))
		handlerMock.AssertExpectations(t)
	})

	t.Run("🎉 handles when the handler can handle and did not run yet", func(t *testing.T) {
		handlerMock := &MockEventHandler{}
		handlerMock.On("CanHandleMessage", ctx, msg).Return(true).Once()

		assert.True(t, ShouldHandleMessage(ctx, handlerMock, msg))
		handlerMock.AssertExpectations(t)
	})
}
