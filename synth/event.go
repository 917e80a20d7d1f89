package synth

import "sync/atomic"

// EventKind discriminates decoded MIDI events.
type EventKind uint8

const (
	// EventNoteOn starts a note. Velocity is always > 0; a wire-level
	// note-on with velocity 0 is decoded as EventNoteOff.
	EventNoteOn EventKind = iota
	// EventNoteOff releases a note.
	EventNoteOff
	// EventControlChange carries a controller number and value.
	EventControlChange
	// EventOther covers well-formed channel messages the engine does not act on.
	EventOther
)

// Event is one decoded MIDI event.
type Event struct {
	Kind       EventKind
	Channel    uint8
	Note       uint8
	Velocity   uint8
	Controller uint8
	Value      uint8
}

// EventRing is a bounded single-producer/single-consumer event queue.
// The producer (MIDI input context) never blocks: when the ring is full the
// oldest unread event is dropped in favor of the new one. The consumer is the
// audio tick, which drains the ring once per tick.
//
// Head advancement is a CAS from both sides so the drop-oldest path cannot
// lose a concurrent pop. No operation waits.
type EventRing struct {
	buf     []Event
	mask    uint64
	head    atomic.Uint64
	tail    atomic.Uint64
	dropped atomic.Uint64
}

// NewEventRing creates a ring holding at least capacity events.
// Capacity is rounded up to a power of two, minimum 2.
func NewEventRing(capacity int) *EventRing {
	size := 2
	for size < capacity {
		size *= 2
	}
	return &EventRing{
		buf:  make([]Event, size),
		mask: uint64(size - 1),
	}
}

// Push enqueues ev, dropping the oldest unread event if the ring is full.
func (r *EventRing) Push(ev Event) {
	t := r.tail.Load()
	h := r.head.Load()
	if t-h >= uint64(len(r.buf)) {
		// Full: advance head past the oldest event. If the CAS fails the
		// consumer just popped it and there is room anyway.
		if r.head.CompareAndSwap(h, h+1) {
			r.dropped.Add(1)
		}
	}
	r.buf[t&r.mask] = ev
	r.tail.Store(t + 1)
}

// Pop dequeues the oldest event, reporting false when the ring is empty.
func (r *EventRing) Pop() (Event, bool) {
	for {
		h := r.head.Load()
		if h == r.tail.Load() {
			return Event{}, false
		}
		ev := r.buf[h&r.mask]
		if r.head.CompareAndSwap(h, h+1) {
			return ev, true
		}
	}
}

// Len reports the number of unread events.
func (r *EventRing) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Dropped reports how many events have been discarded due to overflow.
func (r *EventRing) Dropped() uint64 {
	return r.dropped.Load()
}
