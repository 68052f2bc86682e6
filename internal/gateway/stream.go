package gateway

import "sync"

// Subscription is an active listener registration.
type Subscription interface {
	Cancel()
}

// Stream fans events out to registered handlers. Handlers run on the
// publishing goroutine and must not cancel their own subscription.
type Stream[T any] struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(T)
}

// Listen registers handler until the returned subscription is cancelled.
func (s *Stream[T]) Listen(handler func(T)) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handlers == nil {
		s.handlers = make(map[int]func(T))
	}
	id := s.nextID
	s.nextID++
	s.handlers[id] = handler
	return &streamSubscription[T]{stream: s, id: id}
}

// Publish delivers v to every handler. Cancel waits for an in-flight Publish,
// so no handler runs after its Cancel returns.
func (s *Stream[T]) Publish(v T) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.handlers {
		h(v)
	}
}

// Len returns the number of registered handlers.
func (s *Stream[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers)
}

// Reset drops every handler.
func (s *Stream[T]) Reset() {
	s.mu.Lock()
	s.handlers = nil
	s.mu.Unlock()
}

type streamSubscription[T any] struct {
	once   sync.Once
	stream *Stream[T]
	id     int
}

func (sub *streamSubscription[T]) Cancel() {
	sub.once.Do(func() {
		sub.stream.mu.Lock()
		delete(sub.stream.handlers, sub.id)
		sub.stream.mu.Unlock()
	})
}
