package usecase

import "sync"

// eventBridge is the single-threaded scheduling context that serializes all
// transcript-event handling and the finalize pipeline. Provider callbacks
// arrive on arbitrary goroutines; marshaling them through the bridge means
// session state is only ever touched from one place.
//
// The queue is unbounded: schedule never blocks the delivering goroutine.
// The loop goroutine is the sole consumer.
type eventBridge struct {
	mu    sync.Mutex
	queue []func()

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

func newEventBridge() *eventBridge {
	b := &eventBridge{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go b.loop()
	return b
}

// schedule posts fn for sequential execution and returns immediately.
func (b *eventBridge) schedule(fn func()) {
	b.mu.Lock()
	b.queue = append(b.queue, fn)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// call runs fn on the bridge and blocks the calling goroutine until it
// returns. Everything scheduled before the call runs first. This is the one
// synchronization point where stop-time orchestration deliberately waits.
func (b *eventBridge) call(fn func()) {
	ran := make(chan struct{})
	b.schedule(func() {
		defer close(ran)
		fn()
	})
	<-ran
}

// stop drains all queued work, then terminates the loop. Work scheduled
// after stop returns is never executed, so callers must stop the bridge only
// once no producer remains.
func (b *eventBridge) stop() {
	close(b.quit)
	<-b.done
}

func (b *eventBridge) loop() {
	defer close(b.done)

	for {
		b.drain()
		select {
		case <-b.wake:
		case <-b.quit:
			b.drain()
			return
		}
	}
}

func (b *eventBridge) drain() {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.mu.Unlock()
			return
		}
		fn := b.queue[0]
		b.queue = b.queue[1:]
		b.mu.Unlock()
		fn()
	}
}
