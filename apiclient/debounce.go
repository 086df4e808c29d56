package apiclient

import (
	"context"
	"sync"
	"time"
)

// Debouncer collapses rapid successive lookups into one: each Schedule call
// resets the quiet-period timer, and only the value still current when a
// response arrives is delivered. Identical consecutive values fetch at most
// once; the cached result is replayed instead.
type Debouncer struct {
	delay time.Duration
	fetch func(ctx context.Context, value string) (interface{}, error)
	emit  func(value string, result interface{}, err error)

	mu      sync.Mutex
	current string
	fetched map[string]interface{}
	timer   *time.Timer
}

// NewDebouncer builds a debouncer. fetch runs after the quiet period; emit
// receives the result unless a newer value superseded the lookup meanwhile.
func NewDebouncer(delay time.Duration, fetch func(ctx context.Context, value string) (interface{}, error), emit func(value string, result interface{}, err error)) *Debouncer {
	return &Debouncer{
		delay:   delay,
		fetch:   fetch,
		emit:    emit,
		fetched: make(map[string]interface{}),
	}
}

// Schedule records value as the current input and arms the timer. An earlier
// pending lookup is cancelled; a lookup already in flight for an older value
// has its response dropped on arrival.
func (d *Debouncer) Schedule(ctx context.Context, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.current = value
	if d.timer != nil {
		d.timer.Stop()
	}

	if cached, ok := d.fetched[value]; ok {
		result := cached
		d.timer = time.AfterFunc(d.delay, func() {
			d.deliver(value, result, nil)
		})
		return
	}

	d.timer = time.AfterFunc(d.delay, func() {
		result, err := d.fetch(ctx, value)
		if err == nil {
			d.mu.Lock()
			d.fetched[value] = result
			d.mu.Unlock()
		}
		d.deliver(value, result, err)
	})
}

// deliver drops the response when value is no longer the current input.
func (d *Debouncer) deliver(value string, result interface{}, err error) {
	d.mu.Lock()
	stale := d.current != value
	d.mu.Unlock()
	if stale {
		return
	}
	d.emit(value, result, err)
}

// Flush cancels any pending lookup without delivering it.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.current = ""
}
