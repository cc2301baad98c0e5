package bus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Capacity is the fixed per-subscriber buffer size of the bus. Once a
// subscriber's buffer is full, the oldest unread message is overwritten and
// the subscriber's next recv reports how many messages it missed.
const Capacity = 256

// ErrClosed is returned by Send when there are no live subscribers, and by
// Recv once Bus.Close has run and the subscriber's buffer has drained.
var ErrClosed = errors.New("bus: closed")

// LaggedError is returned by Recv when the subscriber fell behind and the
// bus overwrote n unread messages. The subscriber resumes with the next
// message after this notification; lagging never blocks the sender.
type LaggedError struct{ N int }

func (e *LaggedError) Error() string { return fmt.Sprintf("bus: lagged %d messages", e.N) }

// Bus is a multi-producer, multi-consumer broadcast channel with bounded
// per-subscriber buffering. Construction is cheap; Sender and subscriptions
// share the same underlying state by reference.
type Bus struct {
	mu          sync.Mutex
	subscribers map[uint64]*subscription
	nextID      uint64
	logger      *slog.Logger
}

type subscription struct {
	ch     chan Message
	lagged int32 // atomic: messages dropped since the last successful recv
}

// New creates an empty bus. logger may be nil.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[uint64]*subscription),
		logger:      logger.With("component", "bus"),
	}
}

// Sender is a cheap, cloneable publishing handle into a Bus.
type Sender struct{ bus *Bus }

// Sender returns a publishing handle for this bus.
func (b *Bus) Sender() Sender { return Sender{bus: b} }

// IsZero reports whether s is the unconfigured zero value (Sender{}), as
// opposed to a handle obtained from Bus.Sender. Sending on a zero Sender
// would panic, so callers that accept a Sender from outside should check
// this before using it.
func (s Sender) IsZero() bool { return s.bus == nil }

// Receiver observes messages sent to a Bus after the moment of subscription.
type Receiver struct {
	bus *Bus
	id  uint64
	sub *subscription
}

// Subscribe registers a new receiver that sees only messages sent after this
// call returns.
func (b *Bus) Subscribe() *Receiver {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	sub := &subscription{ch: make(chan Message, Capacity)}
	b.subscribers[id] = sub
	return &Receiver{bus: b, id: id, sub: sub}
}

// Unsubscribe removes the receiver from the bus. Safe to call more than
// once.
func (r *Receiver) Unsubscribe() {
	r.bus.mu.Lock()
	defer r.bus.mu.Unlock()
	delete(r.bus.subscribers, r.id)
}

// Send broadcasts msg to every live subscriber. Sending never blocks: a
// subscriber whose buffer is full has its oldest unread message dropped and
// its lag counter incremented instead of backpressuring the sender. Send
// fails with ErrClosed only when there are zero live subscribers.
func (s Sender) Send(msg Message) error {
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.subscribers) == 0 {
		return ErrClosed
	}

	for _, sub := range b.subscribers {
		select {
		case sub.ch <- msg:
		default:
			// Buffer full: drop the oldest message to make room, counting
			// the drop against this subscriber's lag.
			select {
			case <-sub.ch:
				atomic.AddInt32(&sub.lagged, 1)
			default:
			}
			select {
			case sub.ch <- msg:
			default:
				atomic.AddInt32(&sub.lagged, 1)
			}
		}
	}
	return nil
}

// sendIgnoreClosed is the log-style helper used by SendInfo/SendSuccess/etc:
// a Closed bus (no subscribers) is not an error worth surfacing to callers
// that merely want to log.
func (s Sender) sendIgnoreClosed(msg Message) {
	if err := s.Send(msg); err != nil && !errors.Is(err, ErrClosed) {
		s.bus.logger.Warn("bus send failed", "error", err)
	}
}

func (s Sender) SendInfo(text string)    { s.sendIgnoreClosed(NewTextInfo(text)) }
func (s Sender) SendSuccess(text string) { s.sendIgnoreClosed(NewTextSuccess(text)) }
func (s Sender) SendWarning(text string) { s.sendIgnoreClosed(NewTextWarning(text)) }
func (s Sender) SendError(text string)   { s.sendIgnoreClosed(NewTextError(text)) }
func (s Sender) SendDebug(text string)   { s.sendIgnoreClosed(NewTextDebug(text)) }

// Recv blocks until a message is available. It returns a *LaggedError if
// this subscriber missed messages since its previous Recv/TryRecv call, and
// ErrClosed once Bus.Close has run and the buffer has drained.
// Recv does not take a context; callers that need cancellation should race
// it against ctx.Done() themselves, matching the executor's ownership of
// suspension points.
func (r *Receiver) Recv() (Message, error) {
	if n := atomic.SwapInt32(&r.sub.lagged, 0); n > 0 {
		return Message{}, &LaggedError{N: int(n)}
	}
	msg, ok := <-r.sub.ch
	if !ok {
		return Message{}, ErrClosed
	}
	return msg, nil
}

// TryRecv is the non-blocking variant of Recv. It returns ok=false when the
// buffer is currently empty (which is not distinguishable here from
// "closed"; callers needing that distinction should use Recv).
func (r *Receiver) TryRecv() (msg Message, ok bool) {
	if n := atomic.SwapInt32(&r.sub.lagged, 0); n > 0 {
		return Message{}, false
	}
	select {
	case msg, ok = <-r.sub.ch:
		return msg, ok
	default:
		return Message{}, false
	}
}

// Close removes every subscriber, causing their next Recv to observe
// ErrClosed once buffered messages are drained.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}
}

// SubscriberCount reports the number of live subscribers, useful for tests
// and diagnostics.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
