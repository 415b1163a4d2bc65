package mqtt

import "log"

// queuedMsg stores a serialized MQTT message for replay after reconnection.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages published while the broker is unreachable.
// Bounded: once full, the oldest message is dropped for each new one.
// Not safe for concurrent use — caller must synchronize.
type outbox struct {
	msgs    []queuedMsg
	cap     int
	dropped int // messages lost since the last drain
}

func newOutbox(capacity int) *outbox {
	return &outbox{cap: capacity}
}

func (o *outbox) add(msg queuedMsg) {
	if len(o.msgs) == o.cap {
		if o.dropped == 0 {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", o.cap)
		}
		o.dropped++
		copy(o.msgs, o.msgs[1:])
		o.msgs[len(o.msgs)-1] = msg
		return
	}
	o.msgs = append(o.msgs, msg)
}

// drain returns the queued messages in publish order and empties the
// outbox.
func (o *outbox) drain() []queuedMsg {
	if len(o.msgs) == 0 {
		return nil
	}
	out := o.msgs
	o.msgs = nil
	o.dropped = 0
	return out
}

func (o *outbox) len() int {
	return len(o.msgs)
}
