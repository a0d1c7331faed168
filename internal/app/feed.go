package app

import (
	"sync"

	"trivia-quiz-service/internal/domain"
)

const feedBuffer = 8

// Feed fans accepted scores out to live leaderboard listeners in this process.
type Feed struct {
	mu          sync.Mutex
	subscribers map[chan domain.ScoreEvent]struct{}
}

func NewFeed() *Feed {
	return &Feed{subscribers: make(map[chan domain.ScoreEvent]struct{})}
}

// Subscribe returns a channel of score events. The caller must invoke the
// returned cancel function to avoid leaks.
func (f *Feed) Subscribe() (<-chan domain.ScoreEvent, func()) {
	ch := make(chan domain.ScoreEvent, feedBuffer)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish never blocks: a full subscriber loses its oldest pending event.
func (f *Feed) Publish(ev domain.ScoreEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

// Subscribers reports how many listeners are attached.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}
