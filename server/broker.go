package server

import (
	"context"
	"log"
	"slices"
	"sync"
	"time"
)

// Subscriber receives the messages published to one topic.
type Subscriber struct {
	Channel chan []byte
	topic   string
	once    sync.Once
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.Channel) })
}

type Broker interface {
	Subscribe(ctx context.Context, topic string) *Subscriber
	Unsubscribe(ctx context.Context, sub *Subscriber)
	Publish(ctx context.Context, topic string, message []byte) error
	Close()
}

// MemoryBroker fans messages out to in-process subscribers. A subscriber that
// does not take a message within slowTimeout is dropped from the topic.
type MemoryBroker struct {
	subscribers map[string][]*Subscriber
	slowTimeout time.Duration
	mutex       sync.Mutex
}

func NewMemoryBroker() Broker {
	return &MemoryBroker{
		subscribers: make(map[string][]*Subscriber),
		slowTimeout: time.Second,
	}
}

func (b *MemoryBroker) Subscribe(ctx context.Context, topic string) *Subscriber {
	sub := &Subscriber{Channel: make(chan []byte, 16), topic: topic}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.subscribers[topic] = append(b.subscribers[topic], sub)
	return sub
}

func (b *MemoryBroker) Unsubscribe(ctx context.Context, sub *Subscriber) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.unsubscribe(sub)
}

func (b *MemoryBroker) unsubscribe(sub *Subscriber) {
	sub.close()
	subscribers := slices.DeleteFunc(b.subscribers[sub.topic], func(s *Subscriber) bool { return s == sub })
	if len(subscribers) == 0 {
		delete(b.subscribers, sub.topic)
	} else {
		b.subscribers[sub.topic] = subscribers
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, topic string, msg []byte) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	var slow []*Subscriber
	for _, sub := range b.subscribers[topic] {
		select {
		case sub.Channel <- msg:
		case <-time.After(b.slowTimeout):
			log.Printf("subscriber slow, unsubscribing from topic: %s", topic)
			slow = append(slow, sub)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for _, sub := range slow {
		b.unsubscribe(sub)
	}
	return nil
}

func (b *MemoryBroker) Close() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for _, subscribers := range b.subscribers {
		for _, subscriber := range subscribers {
			subscriber.close()
		}
	}
	b.subscribers = make(map[string][]*Subscriber)
}
