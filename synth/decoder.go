package synth

// MIDI status byte groups.
const (
	statusNoteOff       = 0x80
	statusNoteOn        = 0x90
	statusPolyPressure  = 0xA0
	statusControlChange = 0xB0
	statusProgramChange = 0xC0
	statusChanPressure  = 0xD0
	statusPitchBend     = 0xE0
	statusSysExStart    = 0xF0
	statusSysExEnd      = 0xF7
	statusRealtimeMin   = 0xF8
)

// Decoder is an incremental MIDI 1.0 byte-stream parser. It is fed one byte
// at a time and emits at most one event per byte. Running status is supported:
// after a complete channel message the status byte may be omitted on
// consecutive messages of the same type.
//
// Malformed or unsupported bytes are discarded and counted; the decoder
// resynchronizes on the next status byte. The lookahead buffer is fixed at
// three bytes, the longest supported message.
type Decoder struct {
	status    byte // current running status, 0 when none
	buf       [3]byte
	n         int // data bytes collected for the pending message
	inSysEx   bool
	discarded uint64
}

// dataLength returns the number of data bytes for a channel status byte.
func dataLength(status byte) int {
	switch status & 0xF0 {
	case statusProgramChange, statusChanPressure:
		return 1
	default:
		return 2
	}
}

// Feed consumes one raw byte and reports a decoded event when the byte
// completes a message.
func (d *Decoder) Feed(b byte) (Event, bool) {
	switch {
	case b >= statusRealtimeMin:
		// Real-time bytes may appear anywhere, including inside a message,
		// and must not disturb the parse state.
		return Event{}, false

	case b >= statusSysExStart:
		switch b {
		case statusSysExStart:
			d.abortPending()
			d.inSysEx = true
			d.status = 0
		case statusSysExEnd:
			d.inSysEx = false
		case 0xF4, 0xF5:
			// Undefined status bytes: discard, keep running status.
			d.discarded++
		default:
			// Defined system common (MTC, song position/select, tune
			// request) cancels running status per the MIDI spec.
			d.abortPending()
			d.discarded++
			d.status = 0
		}
		return Event{}, false

	case b >= statusNoteOff:
		d.abortPending()
		d.inSysEx = false
		d.status = b
		return Event{}, false
	}

	// Data byte.
	if d.inSysEx {
		d.discarded++
		return Event{}, false
	}
	if d.status == 0 {
		// Stray data with no status to attach it to.
		d.discarded++
		return Event{}, false
	}

	d.buf[d.n] = b
	d.n++
	if d.n < dataLength(d.status) {
		return Event{}, false
	}
	d.n = 0 // status persists for running status
	return d.decode(), true
}

// abortPending discards a partially collected message.
func (d *Decoder) abortPending() {
	if d.n > 0 {
		d.discarded += uint64(d.n)
		d.n = 0
	}
}

func (d *Decoder) decode() Event {
	channel := d.status & 0x0F
	switch d.status & 0xF0 {
	case statusNoteOn:
		if d.buf[1] == 0 {
			// Velocity-0 note-on is a note-off on the wire.
			return Event{Kind: EventNoteOff, Channel: channel, Note: d.buf[0]}
		}
		return Event{Kind: EventNoteOn, Channel: channel, Note: d.buf[0], Velocity: d.buf[1]}
	case statusNoteOff:
		return Event{Kind: EventNoteOff, Channel: channel, Note: d.buf[0], Velocity: d.buf[1]}
	case statusControlChange:
		return Event{Kind: EventControlChange, Channel: channel, Controller: d.buf[0], Value: d.buf[1]}
	default:
		return Event{Kind: EventOther, Channel: channel}
	}
}

// Discarded reports how many bytes have been thrown away during resync.
func (d *Decoder) Discarded() uint64 {
	return d.discarded
}
