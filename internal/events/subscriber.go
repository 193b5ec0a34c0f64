package events

import "time"

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers raw event payloads on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan Message, func(), error)
	Close() error
}

// Message is a raw event payload and the topic it arrived on. Sent is the
// publisher's timestamp, zero when the message carried none.
type Message struct {
	Topic string
	Data  []byte
	Sent  time.Time
}
