package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"commit-reveal-wager/contract"
	"commit-reveal-wager/history"
	"commit-reveal-wager/sdk"
)

func main() {
	os.Exit(mainImpl(os.Args[1:]))
}

// Returns the exit code
func mainImpl(args []string) int {
	cfg, rest, err := ParseWager(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Print(usageText())
			return 0
		}
		fmt.Fprintf(os.Stderr, "%v\n\n%s", err, usageText())
		return 1
	}
	closeLog, err := InitLog(cfg.LogType, cfg.LogLevel, &cfg.FileLogging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		return 1
	}
	defer func() { _ = closeLog() }()

	if len(rest) == 0 {
		fmt.Fprint(os.Stderr, usageText())
		return 1
	}
	action := rest[0]
	payload := strings.Join(rest[1:], "|")

	app, err := openApp(cfg)
	if err != nil {
		log.Error("failed to open state", "err", err)
		return 1
	}
	defer app.Close()

	out, err := app.run(action, payload)
	if err != nil {
		log.Error("action failed", "action", action, "err", err)
		return 2
	}
	fmt.Println(out)
	return 0
}

func usageText() string {
	f := flag.NewFlagSet("wager", flag.ContinueOnError)
	WagerConfigAddOptions(f)
	return usage(f)
}

// app bundles what a single invocation works against.
type app struct {
	cfg     *WagerConfig
	store   sdk.Store
	archive *history.SqliteDatabase
	ctl     *contract.Controller
}

func openApp(cfg *WagerConfig) (*app, error) {
	a := &app{cfg: cfg}
	if dir := cfg.Persistent.DataDir; dir != "" {
		store, err := sdk.OpenPebbleStore(dir)
		if err != nil {
			return nil, err
		}
		a.store = store
	} else {
		log.Warn("no data directory configured, state is discarded on exit")
		a.store = sdk.NewMemStore()
	}

	var opts []contract.Option
	if path := cfg.History.Path; path != "" {
		db, err := history.NewDatabase(path)
		if err != nil {
			a.Close()
			return nil, errors.Wrap(err, "opening history")
		}
		a.archive = db
		opts = append(opts, contract.WithArchive(db))
	}

	ctl, err := contract.NewController(a.store, cfg.Game, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.ctl = ctl
	return a, nil
}

func (a *app) Close() {
	if a.ctl != nil {
		a.ctl.Close()
	}
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			log.Error("closing history", "err", err)
		}
	}
	if err := a.store.Close(); err != nil {
		log.Error("closing state", "err", err)
	}
}

// env builds the call environment from the tx.* settings.
func (a *app) env(action, payload string) (sdk.Env, error) {
	tx := a.cfg.Tx
	var sender common.Address
	if tx.Sender != "" {
		if !common.IsHexAddress(tx.Sender) {
			return sdk.Env{}, errors.Errorf("invalid sender %q", tx.Sender)
		}
		sender = common.HexToAddress(tx.Sender)
	}
	value, err := uint256.FromDecimal(tx.Value)
	if err != nil {
		return sdk.Env{}, errors.Wrapf(err, "invalid value %q", tx.Value)
	}
	ts := tx.Timestamp
	if ts == 0 {
		ts = uint64(time.Now().Unix())
	}
	e := sdk.NewEnv(sender, value, ts)
	e.TxID = tx.ID
	if e.TxID == "" {
		e.TxID = crypto.Keccak256Hash(sender.Bytes(), []byte(fmt.Sprint(ts)), []byte(action), []byte(payload)).Hex()
	}
	return e, nil
}

func (a *app) run(action, payload string) (string, error) {
	e, err := a.env(action, payload)
	if err != nil {
		return "", err
	}
	if contract.IsMutating(action) && e.Sender == (common.Address{}) {
		return "", errors.Errorf("%s needs --tx.sender", action)
	}

	switch action {
	case "hash":
		in := payload
		choice, nonce := contract.NextField(&in), contract.NextField(&in)
		n, err := contract.ParseNonce(nonce)
		if err != nil {
			return "", err
		}
		var bit uint8
		switch choice {
		case "0":
		case "1":
			bit = 1
		default:
			return "", errors.Wrapf(contract.ErrInvalidChoice, "%q", choice)
		}
		return contract.CommitmentHash(bit, n).Hex(), nil

	case "fund":
		amount, err := uint256.FromDecimal(payload)
		if err != nil {
			return "", errors.Wrapf(err, "invalid amount %q", payload)
		}
		if e.Sender == (common.Address{}) {
			return "", errors.New("fund needs --tx.sender")
		}
		if err := a.ledger(func(l *sdk.Ledger) error { return l.Mint(e.Sender, amount) }, true); err != nil {
			return "", err
		}
		log.Info("account funded", "account", e.Sender, "amount", amount.ToBig())
		return a.balance(e.Sender)

	case "balance":
		addr := e.Sender
		if payload != "" {
			if !common.IsHexAddress(payload) {
				return "", errors.Errorf("invalid address %q", payload)
			}
			addr = common.HexToAddress(payload)
		}
		return a.balance(addr)

	case "history":
		if a.archive == nil {
			return "", errors.New("history needs --history.path")
		}
		records, err := a.archive.Outcomes(a.cfg.History.Limit)
		if err != nil {
			return "", err
		}
		return contract.ToJSON(records, "history")

	case "wins":
		if a.archive == nil {
			return "", errors.New("wins needs --history.path")
		}
		if !common.IsHexAddress(payload) {
			return "", errors.Errorf("invalid address %q", payload)
		}
		n, err := a.archive.Wins(common.HexToAddress(payload))
		if err != nil {
			return "", err
		}
		return fmt.Sprint(n), nil
	}

	out, err := a.ctl.Execute(e, action, payload)
	if err != nil {
		return "", err
	}
	return *out, nil
}

func (a *app) ledger(fn func(l *sdk.Ledger) error, write bool) error {
	tx, err := a.store.Begin()
	if err != nil {
		return err
	}
	defer tx.Discard()
	if err := fn(sdk.NewLedger(tx)); err != nil {
		return err
	}
	if write {
		return tx.Commit()
	}
	return nil
}

func (a *app) balance(addr common.Address) (string, error) {
	var out string
	err := a.ledger(func(l *sdk.Ledger) error {
		bal, err := l.BalanceOf(addr)
		if err != nil {
			return err
		}
		out = bal.ToBig().String()
		return nil
	}, false)
	return out, err
}
