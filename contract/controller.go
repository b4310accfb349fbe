package contract

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"commit-reveal-wager/sdk"
)

// Archive keeps a record of settled games. Archiving happens after the
// settling transaction commits; a failing archive is logged, not fatal.
type Archive interface {
	RecordOutcome(o *Outcome) error
}

type Option func(*Controller)

// WithWinnerPolicy overrides the policy named by Config.WinnerRule.
func WithWinnerPolicy(p WinnerPolicy) Option {
	return func(c *Controller) { c.policy = p }
}

func WithArchive(a Archive) Option {
	return func(c *Controller) { c.archive = a }
}

func WithLogger(l log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller owns the single game session. Every call runs atomically in
// one state transaction; a rejected call leaves state untouched.
type Controller struct {
	mu       sync.Mutex
	store    sdk.Store
	cfg      Config
	stake    *uint256.Int
	deadline uint64 // seconds
	policy   WinnerPolicy
	archive  Archive
	events   *dispatcher
	logger   log.Logger
}

// NewController validates cfg and binds its stake to the state in store.
// Opening existing state with a different stake fails with ErrStakeMismatch.
func NewController(store sdk.Store, cfg Config, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stake, err := cfg.StakeAmount()
	if err != nil {
		return nil, err
	}
	policy, err := PolicyByName(cfg.WinnerRule)
	if err != nil {
		return nil, err
	}
	c := &Controller{
		store:    store,
		cfg:      cfg,
		stake:    stake,
		deadline: uint64(cfg.Deadline / time.Second),
		policy:   policy,
		events:   newDispatcher(),
		logger:   log.New("module", "wager"),
	}
	for _, opt := range opts {
		opt(c)
	}

	tx, err := store.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Discard()
	if err := bindStake(tx, stake); err != nil {
		return nil, err
	}
	if _, err := loadSession(tx); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing meta")
	}
	return c, nil
}

// callCtx is the scratch space of one mutating call.
type callCtx struct {
	env     sdk.Env
	tx      sdk.Tx
	session *Session
	ledger  *sdk.Ledger
	events  []Event
	outcome *Outcome
}

func (cc *callCtx) emit(ev Event) { cc.events = append(cc.events, ev) }

// call runs fn against the current session inside one transaction. Events
// are queued for subscribers and the outcome archived once it has committed.
func (c *Controller) call(env sdk.Env, fn func(cc *callCtx) error) (*Receipt, error) {
	cc, err := c.apply(env, fn)
	if err != nil {
		return nil, err
	}
	if cc.outcome != nil && c.archive != nil {
		if err := c.archive.RecordOutcome(cc.outcome); err != nil {
			c.logger.Warn("failed to archive outcome", "kind", cc.outcome.Kind, "winner", cc.outcome.Winner, "err", err)
		}
	}
	return &Receipt{TxID: env.TxID, Events: cc.events}, nil
}

func (c *Controller) apply(env sdk.Env, fn func(cc *callCtx) error) (*callCtx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.store.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Discard()

	s, err := loadSession(tx)
	if err != nil {
		return nil, err
	}
	cc := &callCtx{env: env, tx: tx, session: s, ledger: sdk.NewLedger(tx)}
	if err := fn(cc); err != nil {
		return nil, err
	}

	// The pot drains exactly when the session resets.
	if s.Phase == PhaseEmpty {
		pot, err := cc.ledger.Escrow()
		if err != nil {
			return nil, err
		}
		if !pot.IsZero() {
			return nil, errors.Wrapf(ErrCorruptState, "session reset with %s left in escrow", pot.ToBig())
		}
	}
	if err := saveSession(tx, s); err != nil {
		return nil, errors.Wrap(err, "writing session")
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing call")
	}
	c.events.publish(cc.events)
	return cc, nil
}

// view runs fn against a read-only snapshot.
func (c *Controller) view(fn func(tx sdk.Tx, s *Session) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.store.Begin()
	if err != nil {
		return err
	}
	defer tx.Discard()
	s, err := loadSession(tx)
	if err != nil {
		return err
	}
	return fn(tx, s)
}

// expiredAt reports whether the deadline, counted from the first
// commitment, has passed at the given block time.
func (c *Controller) expiredAt(s *Session, now uint64) bool {
	return now >= s.StartTime && now-s.StartTime >= c.deadline
}

// SubscribeEvents delivers every event after its call commits, in commit
// order. Delivery is asynchronous; a subscriber that stops reading delays
// later events for all subscribers but never blocks the controller.
func (c *Controller) SubscribeEvents(ch chan<- Event) event.Subscription {
	return c.events.feed.Subscribe(ch)
}

// Close stops event delivery. State remains with the store.
func (c *Controller) Close() {
	c.events.close()
}

// ---------- Queries ----------

func (c *Controller) Stake() *uint256.Int { return new(uint256.Int).Set(c.stake) }

func (c *Controller) Deadline() time.Duration { return c.cfg.Deadline }

func (c *Controller) Phase() (Phase, error) {
	var p Phase
	err := c.view(func(_ sdk.Tx, s *Session) error {
		p = s.Phase
		return nil
	})
	return p, err
}

func (c *Controller) Stage() (Stage, error) {
	p, err := c.Phase()
	return p.Stage(), err
}

// Players returns the registered players in slot order.
func (c *Controller) Players() ([]common.Address, error) {
	var out []common.Address
	err := c.view(func(_ sdk.Tx, s *Session) error {
		out = registered(s)
		return nil
	})
	return out, err
}

// Payments returns how many actions addr has had accepted this game.
func (c *Controller) Payments(addr common.Address) (uint64, error) {
	var n uint64
	err := c.view(func(_ sdk.Tx, s *Session) error {
		if slot := s.slotOf(addr); slot >= 0 {
			n = s.Payments[slot]
		}
		return nil
	})
	return n, err
}

// Commitment returns the pending commitment of addr, zero when none.
func (c *Controller) Commitment(addr common.Address) (common.Hash, error) {
	var h common.Hash
	err := c.view(func(_ sdk.Tx, s *Session) error {
		if slot := s.slotOf(addr); slot >= 0 {
			h = s.Commitments[slot]
		}
		return nil
	})
	return h, err
}

func (c *Controller) StartTime() (uint64, error) {
	var ts uint64
	err := c.view(func(_ sdk.Tx, s *Session) error {
		ts = s.StartTime
		return nil
	})
	return ts, err
}

func (c *Controller) FirstCommitter() (common.Address, error) {
	var addr common.Address
	err := c.view(func(_ sdk.Tx, s *Session) error {
		addr = s.FirstCommitter
		return nil
	})
	return addr, err
}

// ElapsedMinutes returns whole minutes since the first commitment, or 0
// when no commitment phase is running.
func (c *Controller) ElapsedMinutes(now uint64) (uint64, error) {
	var m uint64
	err := c.view(func(_ sdk.Tx, s *Session) error {
		if s.StartTime != 0 && now > s.StartTime {
			m = (now - s.StartTime) / 60
		}
		return nil
	})
	return m, err
}

// Pot returns the value held in escrow for the current game.
func (c *Controller) Pot() (*uint256.Int, error) {
	var pot *uint256.Int
	err := c.view(func(tx sdk.Tx, _ *Session) error {
		var err error
		pot, err = sdk.NewLedger(tx).Escrow()
		return err
	})
	return pot, err
}

// Snapshot is a JSON friendly view of the whole session. Addresses are
// rendered checksummed, as everywhere else in the output.
type Snapshot struct {
	Phase          Phase                  `json:"phase"`
	Stage          Stage                  `json:"stage"`
	Players        []string               `json:"players"`
	Payments       map[string]uint64      `json:"payments"`
	Commitments    map[string]common.Hash `json:"commitments"`
	StartTime      uint64                 `json:"startTime"`
	FirstCommitter string                 `json:"firstCommitter"`
	Pot            string                 `json:"pot"`
	Stake          string                 `json:"stake"`
}

func (c *Controller) Snapshot() (*Snapshot, error) {
	var snap *Snapshot
	err := c.view(func(tx sdk.Tx, s *Session) error {
		pot, err := sdk.NewLedger(tx).Escrow()
		if err != nil {
			return err
		}
		snap = &Snapshot{
			Phase:          s.Phase,
			Stage:          s.Phase.Stage(),
			Players:        hexAddresses(registered(s)),
			Payments:       make(map[string]uint64),
			Commitments:    make(map[string]common.Hash),
			StartTime:      s.StartTime,
			FirstCommitter: s.FirstCommitter.Hex(),
			Pot:            pot.ToBig().String(),
			Stake:          c.stake.ToBig().String(),
		}
		for i, p := range s.Players {
			if p == (common.Address{}) {
				continue
			}
			snap.Payments[p.Hex()] = s.Payments[i]
			snap.Commitments[p.Hex()] = s.Commitments[i]
		}
		return nil
	})
	return snap, err
}

func registered(s *Session) []common.Address {
	out := make([]common.Address, 0, 2)
	for _, p := range s.Players {
		if p != (common.Address{}) {
			out = append(out, p)
		}
	}
	return out
}

func hexAddresses(addrs []common.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.Hex()
	}
	return out
}
