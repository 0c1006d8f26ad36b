package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

type KafkaSecurityProtocol string

const (
	KafkaProtocolPlaintext     KafkaSecurityProtocol = "PLAINTEXT"
	KafkaProtocolSASLPlaintext KafkaSecurityProtocol = "SASL_PLAINTEXT"
)

func ParseKafkaSecurityProtocol(protocol string) (KafkaSecurityProtocol, error) {
	switch KafkaSecurityProtocol(strings.ToUpper(protocol)) {
	case KafkaProtocolPlaintext:
		return KafkaProtocolPlaintext, nil
	case KafkaProtocolSASLPlaintext:
		return KafkaProtocolSASLPlaintext, nil
	default:
		return "", fmt.Errorf("invalid kafka security protocol %q", protocol)
	}
}

type KafkaConfig struct {
	Brokers          []string
	SecurityProtocol KafkaSecurityProtocol
	SASLUsername     string
	SASLPassword     string
}

func (kc KafkaConfig) Validate() error {
	if len(kc.Brokers) == 0 {
		return fmt.Errorf("brokers cannot be empty")
	}

	switch kc.SecurityProtocol {
	case KafkaProtocolPlaintext:
	case KafkaProtocolSASLPlaintext:
		if kc.SASLUsername == "" {
			return fmt.Errorf("SASL username is required when the security protocol is %q", kc.SecurityProtocol)
		}
		if kc.SASLPassword == "" {
			return fmt.Errorf("SASL password is required when the security protocol is %q", kc.SecurityProtocol)
		}
	default:
		return fmt.Errorf("invalid kafka security protocol %q", kc.SecurityProtocol)
	}

	return nil
}

type KafkaProducer struct {
	writer  *kafka.Writer
	brokers []string
	dialer  *kafka.Dialer
}

var _ Producer = new(KafkaProducer)

func NewKafkaProducer(kafkaConfig KafkaConfig) (*KafkaProducer, error) {
	if err := kafkaConfig.Validate(); err != nil {
		return nil, fmt.Errorf("validating kafka config: %w", err)
	}

	// The Hash balancer routes every message with the same key to the same
	// partition, which is what preserves per-tenant event order.
	writer := &kafka.Writer{
		Addr:         kafka.TCP(kafkaConfig.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}

	dialer := kafka.DefaultDialer
	if kafkaConfig.SecurityProtocol == KafkaProtocolSASLPlaintext {
		mechanism := plain.Mechanism{
			Username: kafkaConfig.SASLUsername,
			Password: kafkaConfig.SASLPassword,
		}
		writer.Transport = &kafka.Transport{SASL: mechanism}
		dialer = &kafka.Dialer{DualStack: true, SASLMechanism: mechanism}
	}

	return &KafkaProducer{
		writer:  writer,
		brokers: kafkaConfig.Brokers,
		dialer:  dialer,
	}, nil
}

func (k *KafkaProducer) WriteMessages(ctx context.Context, messages ...Message) error {
	kafkaMessages := make([]kafka.Message, 0, len(messages))
	for _, msg := range messages {
		if err := msg.Validate(); err != nil {
			return fmt.Errorf("validating message %s: %w", msg, err)
		}

		msgJSON, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshalling message %s: %w", msg, err)
		}

		kafkaMessages = append(kafkaMessages, kafka.Message{
			Topic: msg.Topic,
			Key:   []byte(msg.Key),
			Value: msgJSON,
		})
	}

	if err := k.writer.WriteMessages(ctx, kafkaMessages...); err != nil {
		return fmt.Errorf("writing messages on kafka: %w", err)
	}

	return nil
}

// Ping dials the first broker to verify the cluster is reachable.
func (k *KafkaProducer) Ping(ctx context.Context) error {
	conn, err := k.dialer.DialContext(ctx, "tcp", k.brokers[0])
	if err != nil {
		return fmt.Errorf("dialing kafka broker %s: %w", k.brokers[0], err)
	}
	defer conn.Close()

	if _, err = conn.Brokers(); err != nil {
		return fmt.Errorf("listing kafka brokers: %w", err)
	}

	return nil
}

func (k *KafkaProducer) BrokerType() EventBrokerType {
	return KafkaEventBrokerType
}

func (k *KafkaProducer) Close(ctx context.Context) {
	log.Ctx(ctx).Info("closing kafka producer")
	if err := k.writer.Close(); err != nil {
		log.Ctx(ctx).Errorf("closing kafka producer: %v", err)
	}
}

type KafkaConsumer struct {
	handlers []EventHandler
	topic    string
	reader   *kafka.Reader
}

var _ Consumer = new(KafkaConsumer)

func NewKafkaConsumer(kafkaConfig KafkaConfig, topic string, consumerGroupID string, eventHandlers ...EventHandler) (*KafkaConsumer, error) {
	if err := kafkaConfig.Validate(); err != nil {
		return nil, fmt.Errorf("validating kafka config: %w", err)
	}

	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	if consumerGroupID == "" {
		return nil, fmt.Errorf("consumer group ID is required")
	}

	if len(eventHandlers) == 0 {
		return nil, fmt.Errorf("at least one event handler is required")
	}

	readerConfig := kafka.ReaderConfig{
		Brokers: kafkaConfig.Brokers,
		GroupID: consumerGroupID,
		Topic:   topic,
	}

	if kafkaConfig.SecurityProtocol == KafkaProtocolSASLPlaintext {
		readerConfig.Dialer = &kafka.Dialer{
			DualStack: true,
			SASLMechanism: plain.Mechanism{
				Username: kafkaConfig.SASLUsername,
				Password: kafkaConfig.SASLPassword,
			},
		}
	}

	k := KafkaConsumer{
		topic:  topic,
		reader: kafka.NewReader(readerConfig),
	}

	if err := k.RegisterEventHandler(context.Background(), eventHandlers...); err != nil {
		return nil, fmt.Errorf("registering event handlers: %w", err)
	}

	return &k, nil
}

func (k *KafkaConsumer) RegisterEventHandler(ctx context.Context, eventHandlers ...EventHandler) error {
	for _, handler := range eventHandlers {
		log.Ctx(ctx).Infof("registering event handler %s for topic %s", handler.Name(), k.topic)
		k.handlers = append(k.handlers, handler)
	}
	return nil
}

// ReadMessage fetches and commits the next message from the topic. Failure
// recovery does not rely on redelivery from the broker: the consumer loop
// holds the message through backoff retries, replays it to the topic on
// shutdown, and diverts it to the DLQ when retries are exhausted.
func (k *KafkaConsumer) ReadMessage(ctx context.Context) (*Message, error) {
	kafkaMessage, err := k.reader.FetchMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching message from kafka: %w", err)
	}

	var msg Message
	if err = json.Unmarshal(kafkaMessage.Value, &msg); err != nil {
		return nil, fmt.Errorf("unmarshaling message: %w", err)
	}

	// Committing before the handlers run means a hard crash mid-handling
	// drops the in-flight message. That is acceptable for these topics: the
	// write-path EnsureSchemaReady safety net and the pending-provisioning
	// retry job re-derive the same outcome from the tenant catalog, and the
	// graceful-shutdown path replays in-flight messages through the producer.
	if err = k.reader.CommitMessages(ctx, kafkaMessage); err != nil {
		return nil, fmt.Errorf("committing message: %w", err)
	}

	return &msg, nil
}

func (k *KafkaConsumer) Topic() string {
	return k.topic
}

func (k *KafkaConsumer) Handlers() []EventHandler {
	return k.handlers
}

func (k *KafkaConsumer) BrokerType() EventBrokerType {
	return KafkaEventBrokerType
}

func (k *KafkaConsumer) Close() error {
	log.Info("closing kafka consumer")
	if err := k.reader.Close(); err != nil {
		return fmt.Errorf("closing kafka reader: %w", err)
	}
	return nil
}
