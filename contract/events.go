package contract

import (
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"
)

const (
	EventRegistered    = "registered"
	EventCommitted     = "committed"
	EventGameResolved  = "gameResolved"
	EventGameAbandoned = "gameAbandoned"
)

// Event represents the common structure for all emitted events.
// Each event has a type and a set of key/value attributes.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Receipt is what an accepted call leaves behind.
type Receipt struct {
	TxID   string  `json:"txid,omitempty"`
	Events []Event `json:"events"`
}

// NewRegistered is emitted for every accepted registration.
func NewRegistered(player common.Address) Event {
	return Event{Type: EventRegistered, Attributes: map[string]string{
		"player": player.Hex(),
	}}
}

// NewCommitted is emitted when a commitment is recorded.
func NewCommitted(player common.Address) Event {
	return Event{Type: EventCommitted, Attributes: map[string]string{
		"player": player.Hex(),
	}}
}

// NewGameResolved reports both reveals in the order they arrived.
func NewGameResolved(first, second Reveal, winner common.Address, pot *uint256.Int) Event {
	return Event{Type: EventGameResolved, Attributes: map[string]string{
		"revealerA": first.Player.Hex(),
		"bitA":      strconv.FormatUint(uint64(first.Choice), 10),
		"revealerB": second.Player.Hex(),
		"bitB":      strconv.FormatUint(uint64(second.Choice), 10),
		"winner":    winner.Hex(),
		"pot":       pot.ToBig().String(),
	}}
}

// NewGameAbandoned is emitted when a deadline forfeits the pot.
func NewGameAbandoned(beneficiary common.Address, reason string, pot *uint256.Int) Event {
	return Event{Type: EventGameAbandoned, Attributes: map[string]string{
		"beneficiary": beneficiary.Hex(),
		"reason":      reason,
		"pot":         pot.ToBig().String(),
	}}
}

// dispatcher hands committed events to the feed from its own goroutine.
// Calls only append to the queue, so a subscriber that stops reading stalls
// delivery but never a call. Queue order is commit order.
type dispatcher struct {
	feed  event.Feed
	mu    sync.Mutex
	queue []Event
	done  bool
	wake  chan struct{}
	quit  chan struct{}
	start sync.Once
	stop  sync.Once
}

func newDispatcher() *dispatcher {
	return &dispatcher{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
	}
}

func (d *dispatcher) publish(evs []Event) {
	if len(evs) == 0 {
		return
	}
	d.mu.Lock()
	if d.done {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, evs...)
	d.mu.Unlock()

	d.start.Do(func() { go d.loop() })
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) loop() {
	for {
		select {
		case <-d.wake:
		case <-d.quit:
			return
		}
		for {
			d.mu.Lock()
			batch := d.queue
			d.queue = nil
			d.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, ev := range batch {
				d.feed.Send(ev)
			}
		}
	}
}

// close drops undelivered events. A Send already blocked on a stalled
// subscriber returns once that subscription is cancelled.
func (d *dispatcher) close() {
	d.stop.Do(func() {
		d.mu.Lock()
		d.done = true
		d.queue = nil
		d.mu.Unlock()
		close(d.quit)
	})
}
