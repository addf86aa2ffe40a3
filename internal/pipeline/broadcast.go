package pipeline

import "sync"

// broadcaster fans the latest annotated JPEG out to stream subscribers.
// Slow subscribers skip frames instead of blocking the pipeline.
type broadcaster struct {
	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[chan []byte]struct{})}
}

// Subscribe returns a frame channel and a cancel function. The channel is
// closed on cancel.
func (b *broadcaster) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 1)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers a frame to every subscriber, replacing an unconsumed
// previous frame rather than waiting.
func (b *broadcaster) Publish(frame []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- frame:
		default:
			select {
			case <-ch: // drop the stale frame
			default:
			}
			select {
			case ch <- frame:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of active stream subscribers.
func (b *broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
