package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewMessage(t *testing.T) {
	t.Run("returns an error when a required field is missing", func(t *testing.T) {
		msg, err := NewMessage(TenantLifecycleTopic, "key-1", "", TenantCreatedType, "data")
		assert.Nil(t, msg)
		assert.EqualError(t, err, "validating new message: message tenant ID is required")
	})

	t.Run("🎉 successfully builds a valid message", func(t *testing.T) {
		msg, err := NewMessage(TenantLifecycleTopic, "key-1", "tenant-1", TenantCreatedType, "data")
		require.NoError(t, err)
		assert.Equal(t, &Message{
			Topic:    TenantLifecycleTopic,
			Key:      "key-1",
			TenantID: "tenant-1",
			Type:     TenantCreatedType,
			Data:     "data",
		}, msg)
	})
}

func Test_Message_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		message Message
		wantErr string
	}{
		{name: "topic is required", message: Message{}, wantErr: "message topic is required"},
		{name: "key is required", message: Message{Topic: "topic"}, wantErr: "message key is required"},
		{name: "tenant ID is required", message: Message{Topic: "topic", Key: "key"}, wantErr: "message tenant ID is required"},
		{name: "type is required", message: Message{Topic: "topic", Key: "key", TenantID: "tenant"}, wantErr: "message type is required"},
		{name: "data is required", message: Message{Topic: "topic", Key: "key", TenantID: "tenant", Type: "type"}, wantErr: "message data is required"},
		{name: "🎉 valid message", message: Message{Topic: "topic", Key: "key", TenantID: "tenant", Type: "type", Data: "data"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.message.Validate()
			if tc.wantErr != "" {
				assert.EqualError(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func Test_Message_RecordError_and_RecordSuccess(t *testing.T) {
	msg := Message{Topic: "topic", Key: "key", TenantID: "tenant", Type: "type", Data: "data"}

	handlerErr := errors.New("handler exploded")
	msg.RecordError("MyHandler", handlerErr)
	require.Len(t, msg.Errors, 1)
	assert.Equal(t, "MyHandler", msg.Errors[0].HandlerName)
	assert.Equal(t, "handler exploded", msg.Errors[0].ErrorMessage)
	assert.Equal(t, handlerErr, msg.Errors[0].Err)
	assert.False(t, msg.Errors[0].FailedAt.IsZero())

	msg.RecordSuccess("MyHandler")
	require.Len(t, msg.SuccessfulExecutions, 1)
	assert.Equal(t, "MyHandler", msg.SuccessfulExecutions[0].HandlerName)
	assert.False(t, msg.SuccessfulExecutions[0].ExecutedAt.IsZero())
}
