package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Headers carried by every published event.
const (
	HeaderSentAt      = "Pbq-Sent-At"
	headerContentType = "Content-Type"
)

const (
	// maxFlushWait bounds how long Publish waits for the server to take an
	// event when ctx has no earlier deadline.
	maxFlushWait = 2 * time.Second

	// deliveryBuffer is the channel depth of each subscription.
	deliveryBuffer = 64
)

// dial connects to url under a client name visible in server monitoring.
func dial(url, name string, opts ...nats.Option) (*nats.Conn, error) {
	nc, err := nats.Connect(url, append([]nats.Option{nats.Name(name)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher publishes events as JSON messages on NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
	now  func() time.Time
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := dial(url, "pbq")
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc, now: time.Now}, nil
}

// Publish sends event on topic stamped with its send time, then waits for
// the server to take it: pbq usually exits right after a command publishes.
func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}

	msg := nats.NewMsg(topic)
	msg.Data = data
	msg.Header.Set(headerContentType, "application/json")
	msg.Header.Set(HeaderSentAt, p.now().UTC().Format(time.RFC3339Nano))
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	wait := maxFlushWait
	if deadline, ok := ctx.Deadline(); ok {
		wait = min(wait, time.Until(deadline))
	}
	if wait <= 0 {
		return fmt.Errorf("flush %s: %w", topic, context.DeadlineExceeded)
	}
	if err := p.conn.FlushTimeout(wait); err != nil {
		return fmt.Errorf("flush %s: %w", topic, err)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber streams events from NATS subjects. The connection retries
// forever, so a watch survives server restarts.
type NATSSubscriber struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATSSubscriber connects to url. opts are applied after the reconnect
// defaults, so callers can add connection handlers or override them. A nil
// logger discards the subscriber's warnings.
func NewNATSSubscriber(url string, logger *slog.Logger, opts ...nats.Option) (*NATSSubscriber, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	defaults := []nats.Option{nats.MaxReconnects(-1), nats.ReconnectWait(time.Second)}
	nc, err := dial(url, "pbq-watch", append(defaults, opts...)...)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: nc, logger: logger}, nil
}

// Subscribe streams events matching topic, which may use NATS wildcards
// such as TopicAll. The subscription is registered on the server before
// Subscribe returns. cancel unsubscribes and closes the channel; it may be
// called more than once.
func (s *NATSSubscriber) Subscribe(topic string) (<-chan Message, func(), error) {
	st := &stream{out: make(chan Message, deliveryBuffer)}
	sub, err := s.conn.Subscribe(topic, st.deliver)
	if err != nil {
		return nil, nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	st.sub = sub

	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, nil, fmt.Errorf("register subscription to %s: %w", topic, err)
	}

	cancel := func() {
		if dropped := st.stop(); dropped > 0 {
			s.logger.Warn("events dropped by a slow reader", "topic", topic, "dropped", dropped)
		}
	}
	return st.out, cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}

// stream feeds one NATS subscription into a buffered channel. When the
// reader falls behind, new events are counted and dropped so the NATS read
// loop never blocks.
type stream struct {
	sub *nats.Subscription
	out chan Message

	mu      sync.Mutex
	stopped bool
	dropped int
}

func (st *stream) deliver(m *nats.Msg) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.stopped {
		return
	}
	select {
	case st.out <- messageFromNATS(m):
	default:
		st.dropped++
	}
}

// stop unsubscribes, discards buffered events and closes the channel. It
// returns the number of dropped events on the first call and 0 afterwards.
func (st *stream) stop() int {
	if st.sub != nil {
		_ = st.sub.Unsubscribe()
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.stopped {
		return 0
	}
	st.stopped = true
	for len(st.out) > 0 {
		<-st.out
	}
	close(st.out)
	return st.dropped
}

func messageFromNATS(m *nats.Msg) Message {
	msg := Message{Topic: m.Subject, Data: m.Data}
	if v := m.Header.Get(HeaderSentAt); v != "" {
		if sent, err := time.Parse(time.RFC3339Nano, v); err == nil {
			msg.Sent = sent
		}
	}
	return msg
}
