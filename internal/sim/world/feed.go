package world

import (
	"sync"

	"moltmud.ai/internal/observerproto"
)

// Feed fans room events out to observer subscribers. Delivery is best-effort:
// a slow subscriber drops events rather than blocking the engine, and a
// failed delivery never affects the state change it describes.
type Feed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]feedSub
}

type feedSub struct {
	ch     chan observerproto.EventMsg
	roomID string // empty means all rooms
}

func NewFeed() *Feed {
	return &Feed{subs: map[int]feedSub{}}
}

// Subscribe registers a subscriber, optionally filtered to one room.
func (f *Feed) Subscribe(roomID string, buffer int) (int, <-chan observerproto.EventMsg) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan observerproto.EventMsg, buffer)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.subs[id] = feedSub{ch: ch, roomID: roomID}
	return id, ch
}

// SetRoom updates a subscriber's room filter.
func (f *Feed) SetRoom(id int, roomID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.subs[id]; ok {
		s.roomID = roomID
		f.subs[id] = s
	}
}

// Unsubscribe removes a subscriber and closes its channel.
func (f *Feed) Unsubscribe(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.subs[id]; ok {
		delete(f.subs, id)
		close(s.ch)
	}
}

// Publish offers an event to every matching subscriber without blocking.
func (f *Feed) Publish(ev observerproto.EventMsg) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if s.roomID != "" && s.roomID != ev.RoomID {
			continue
		}
		select {
		case s.ch <- ev:
		default:
		}
	}
}
