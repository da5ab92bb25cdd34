package utils

import (
	"sync"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// MessageTracker remembers which Kafka message a buffered item came from, so the offset is committed only
// after the item has been written.
type MessageTracker struct {
	messages sync.Map
}

func (t *MessageTracker) Track(id string, msg *kafka.Message) {
	t.messages.Store(id, msg)
}

// Take returns and forgets the message tracked for id.
func (t *MessageTracker) Take(id string) (*kafka.Message, bool) {
	msg, ok := t.messages.LoadAndDelete(id)
	if !ok {
		return nil, false
	}
	return msg.(*kafka.Message), true
}
