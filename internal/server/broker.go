package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/playperu/whereonearth/internal/game"
)

// Broker is an in-process pub/sub for announcements, keyed by conversation.
// Subscribers to the empty key receive every announcement.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded announcements for
// the given conversation, or for all conversations when it is empty.
func (b *Broker) Subscribe(conversation string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[conversation] == nil {
		b.subs[conversation] = make(map[chan []byte]struct{})
	}
	b.subs[conversation][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the conversation's subscribers.
func (b *Broker) Unsubscribe(conversation string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[conversation], ch)
	if len(b.subs[conversation]) == 0 {
		delete(b.subs, conversation)
	}
	b.mu.Unlock()
}

// Announce implements game.Announcer.
func (b *Broker) Announce(_ context.Context, a game.Announcement) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	b.publish(a.Conversation, data)
	return nil
}

// publish fans an encoded announcement out to the conversation's
// subscribers and to the catch-all ones.
func (b *Broker) publish(conversation string, data []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	b.send(b.subs[""], data)
	if conversation != "" {
		b.send(b.subs[conversation], data)
	}
}

func (b *Broker) send(subs map[chan []byte]struct{}, data []byte) {
	for ch := range subs {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
}
