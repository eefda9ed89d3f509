package broker

import "sync"

// Broker раздаёт сообщения через буферизованные каналы по топикам. Publish не
// блокируется: при заполненном буфере сообщение отбрасывается.
type Broker[T any] struct {
	mu          sync.RWMutex
	topics      map[string]chan T
	maxSizeChan uint
}

func New[T any](maxCountMsgInTopic uint) *Broker[T] {
	return &Broker[T]{
		topics:      make(map[string]chan T),
		maxSizeChan: maxCountMsgInTopic,
	}
}

// Publish сообщает, попало ли сообщение в очередь.
func (b *Broker[T]) Publish(topic string, msg T) bool {
	b.mu.RLock()
	ch, ok := b.topics[topic]
	if ok {
		defer b.mu.RUnlock()
		return offer(ch, msg)
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	ch = b.topic(topic)
	return offer(ch, msg)
}

func offer[T any](ch chan T, msg T) bool {
	select {
	case ch <- msg:
		return true
	default:
		return false
	}
}

// topic вызывается под mu на запись.
func (b *Broker[T]) topic(name string) chan T {
	ch, ok := b.topics[name]
	if !ok {
		ch = make(chan T, b.maxSizeChan)
		b.topics[name] = ch
	}
	return ch
}

func (b *Broker[T]) CloseTopic(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if v, ok := b.topics[topic]; ok {
		close(v)
	}
	delete(b.topics, topic)
}

func (b *Broker[T]) Subscribe(topic string) <-chan T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.topic(topic)
}
