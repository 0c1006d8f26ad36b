package events

import (
	"errors"
	"fmt"
	"time"
)

type Message struct {
	Topic                string            `json:"topic"`
	Key                  string            `json:"key"`
	TenantID             string            `json:"tenant_id"`
	Type                 string            `json:"type"`
	Data                 any               `json:"data"`
	Errors               []*HandlerError   `json:"errors,omitempty"`
	SuccessfulExecutions []*HandlerSuccess `json:"successful_executions,omitempty"`
}

type HandlerError struct {
	// FailedAt timestamp for the time of failure.
	FailedAt time.Time `json:"failed_at"`
	// ErrorMessage detailed error message. Used for displaying.
	ErrorMessage string `json:"error_message"`
	// HandlerName name of the handler where the error occurred.
	HandlerName string `json:"handler_name"`
	// Err full handler error.
	Err error `json:"-"`
}

// HandlerSuccess represents a successful handling of a message
type HandlerSuccess struct {
	// ExecutedAt timestamp for the time of successful handling
	ExecutedAt time.Time `json:"executed_at"`
	// HandlerName name of the handler that succeeded
	HandlerName string `json:"handler_name"`
}

// NewMessage returns a new message with the values passed by parameters. The
// tenant ID is explicit because producer-side messages originate from the
// admin outbox, where the tenant is a column rather than a context binding.
func NewMessage(topic, key, tenantID, messageType string, data any) (*Message, error) {
	m := &Message{
		Topic:    topic,
		Key:      key,
		TenantID: tenantID,
		Type:     messageType,
		Data:     data,
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("validating new message: %w", err)
	}

	return m, nil
}

func (m Message) String() string {
	return fmt.Sprintf("Message{Topic: %s, Key: %s, Type: %s, TenantID: %s, Data: %v}", m.Topic, m.Key, m.Type, m.TenantID, m.Data)
}

func (m Message) Validate() error {
	if m.Topic == "" {
		return errors.New("message topic is required")
	}

	if m.Key == "" {
		return errors.New("message key is required")
	}

	if m.TenantID == "" {
		return errors.New("message tenant ID is required")
	}

	if m.Type == "" {
		return errors.New("message type is required")
	}

	if m.Data == nil {
		return errors.New("message data is required")
	}

	return nil
}

func (m *Message) RecordError(handlerName string, hError error) {
	m.Errors = append(m.Errors, &HandlerError{
		FailedAt:     time.Now(),
		ErrorMessage: hError.Error(),
		HandlerName:  handlerName,
		Err:          hError,
	})
}

func (m *Message) RecordSuccess(handlerName string) {
	m.SuccessfulExecutions = append(m.SuccessfulExecutions, &HandlerSuccess{
		ExecutedAt:  time.Now(),
		HandlerName: handlerName,
	})
}
