package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

func Test_ParseEventBrokerType(t *testing.T) {
	testCases := []struct {
		ebTypeStr          string
		expectedBrokerType EventBrokerType
		wantErr            string
	}{
		{ebTypeStr: "", wantErr: `invalid event broker type ""`},
		{ebTypeStr: "RABBITMQ", wantErr: `invalid event broker type "RABBITMQ"`},
		{ebTypeStr: "kafka", expectedBrokerType: KafkaEventBrokerType},
		{ebTypeStr: "KAFKA", expectedBrokerType: KafkaEventBrokerType},
		{ebTypeStr: "none", expectedBrokerType: NoneEventBrokerType},
		{ebTypeStr: "NONE", expectedBrokerType: NoneEventBrokerType},
	}

	for _, tc := range testCases {
		t.Run("brokerType: "+tc.ebTypeStr, func(t *testing.T) {
			ebType, err := ParseEventBrokerType(tc.ebTypeStr)
			if tc.wantErr != "" {
				assert.EqualError(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expectedBrokerType, ebType)
			}
		})
	}
}

func Test_ProduceEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("logs and returns nil when the producer is nil", func(t *testing.T) {
		getEntries := log.DefaultLogger.StartTest(log.ErrorLevel)
		err := ProduceEvents(ctx, nil, &Message{Topic: "topic", Key: "key", TenantID: "tenant", Type: "type", Data: "data"})
		assert.NoError(t, err)

		entries := getEntries()
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].Message, "event producer is nil")
	})

	t.Run("🎉 writes messages through the producer", func(t *testing.T) {
		producerMock := NewMockProducer(t)
		msg := Message{Topic: "topic", Key: "key", TenantID: "tenant", Type: "type", Data: "data"}
		producerMock.On("WriteMessages", ctx, []Message{msg}).Return(nil).Once()

		err := ProduceEvents(ctx, producerMock, &msg)
		assert.NoError(t, err)
	})

	t.Run("skips nil messages", func(t *testing.T) {
		producerMock := NewMockProducer(t)
		msg := Message{Topic: "topic", Key: "key", TenantID: "tenant", Type: "type", Data: "data"}
		producerMock.On("WriteMessages", ctx, []Message{msg}).Return(nil).Once()

		err := ProduceEvents(ctx, producerMock, nil, &msg)
		assert.NoError(t, err)
	})
}
