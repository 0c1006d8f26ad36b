package events

import (
	"time"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/utils"
)

const DefaultMaxBackoffExponent = 8

// ConsumerBackoffManager paces consumer retries and holds on to the message
// being retried so the consumer loop can replay or dead-letter it.
type ConsumerBackoffManager struct {
	backoffCounter int
	maxBackoff     int
	backoff        time.Duration
	backoffChan    chan<- struct{}
	message        *Message
}

func NewBackoffManager(backoffChan chan<- struct{}, maxBackoff int) *ConsumerBackoffManager {
	if maxBackoff <= 0 || maxBackoff > DefaultMaxBackoffExponent {
		maxBackoff = DefaultMaxBackoffExponent
	}

	return &ConsumerBackoffManager{
		backoffChan: backoffChan,
		maxBackoff:  maxBackoff,
	}
}

func (bm *ConsumerBackoffManager) TriggerBackoff() {
	bm.backoffCounter++
	if bm.backoffCounter > bm.maxBackoff {
		bm.backoffCounter = bm.maxBackoff
	}
	// No need to handle this error since it only returns error when retry > 32, < 0
	bm.backoff, _ = utils.ExponentialBackoffInSeconds(bm.backoffCounter)
	bm.backoffChan <- struct{}{}
}

// TriggerBackoffWithMessage keeps the message so it is retried after the
// backoff elapses instead of a new one being read.
func (bm *ConsumerBackoffManager) TriggerBackoffWithMessage(msg *Message) {
	bm.message = msg
	bm.TriggerBackoff()
}

func (bm *ConsumerBackoffManager) IsMaxBackoffReached() bool {
	return bm.backoffCounter >= bm.maxBackoff
}

func (bm *ConsumerBackoffManager) GetBackoffDuration() time.Duration {
	return bm.backoff
}

func (bm *ConsumerBackoffManager) GetMessage() *Message {
	return bm.message
}

func (bm *ConsumerBackoffManager) ResetBackoff() {
	bm.backoffCounter = 0
	bm.backoff = 0
	bm.message = nil
}
