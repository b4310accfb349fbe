package main

import (
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"commit-reveal-wager/contract"
)

type ConfConfig struct {
	File      string `koanf:"file"`
	EnvPrefix string `koanf:"env-prefix"`
}

var DefaultConfConfig = ConfConfig{
	File:      "",
	EnvPrefix: "WAGER",
}

func ConfConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".file", DefaultConfConfig.File, "name of a JSON configuration file to load")
	f.String(prefix+".env-prefix", DefaultConfConfig.EnvPrefix, "environment variables with this prefix override the configuration file")
}

type PersistentConfig struct {
	DataDir string `koanf:"data-dir"`
}

func PersistentConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".data-dir", "", "directory of the pebble state database (empty keeps state in memory for this run)")
}

type HistoryConfig struct {
	Path  string `koanf:"path"`
	Limit int    `koanf:"limit"`
}

var DefaultHistoryConfig = HistoryConfig{
	Path:  "",
	Limit: 20,
}

func HistoryConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".path", DefaultHistoryConfig.Path, "sqlite file archiving settled games (empty disables the archive)")
	f.Int(prefix+".limit", DefaultHistoryConfig.Limit, "number of records printed by the history action (0 = all)")
}

// TxConfig describes the call environment of the action being run.
type TxConfig struct {
	Sender    string `koanf:"sender"`
	Value     string `koanf:"value"`
	Timestamp uint64 `koanf:"timestamp"`
	ID        string `koanf:"id"`
}

func TxConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".sender", "", "address of the caller")
	f.String(prefix+".value", "0", "value sent along with the call (decimal)")
	f.Uint64(prefix+".timestamp", 0, "block time in unix seconds (0 = now)")
	f.String(prefix+".id", "", "transaction id recorded with settled games (empty derives one)")
}

type WagerConfig struct {
	Conf        ConfConfig        `koanf:"conf"`
	Game        contract.Config   `koanf:"game"`
	Persistent  PersistentConfig  `koanf:"persistent"`
	History     HistoryConfig     `koanf:"history"`
	Tx          TxConfig          `koanf:"tx"`
	LogLevel    string            `koanf:"log-level"`
	LogType     string            `koanf:"log-type"`
	FileLogging FileLoggingConfig `koanf:"file-logging"`
}

func WagerConfigAddOptions(f *flag.FlagSet) {
	ConfConfigAddOptions("conf", f)
	contract.ConfigAddOptions("game", f)
	PersistentConfigAddOptions("persistent", f)
	HistoryConfigAddOptions("history", f)
	TxConfigAddOptions("tx", f)
	f.String("log-level", "info", "log level, one of trace, debug, info, warn, error, crit")
	f.String("log-type", "plaintext", "log type (plaintext or json)")
	FileLoggingConfigAddOptions("file-logging", f)
}

// ParseWager loads the configuration in increasing priority: flag defaults,
// the JSON file named by --conf.file, environment variables and finally
// flags set on the command line. It returns the remaining positional
// arguments.
func ParseWager(args []string) (*WagerConfig, []string, error) {
	f := flag.NewFlagSet("wager", flag.ContinueOnError)
	WagerConfigAddOptions(f)
	if err := f.Parse(args); err != nil {
		return nil, nil, err
	}

	k := koanf.New(".")
	if err := k.Load(posflag.Provider(f, ".", nil), nil); err != nil {
		return nil, nil, errors.Wrap(err, "error loading flag defaults")
	}
	if name := k.String("conf.file"); name != "" {
		if err := k.Load(file.Provider(name), json.Parser()); err != nil {
			return nil, nil, errors.Wrapf(err, "error loading config file %s", name)
		}
	}
	if prefix := k.String("conf.env-prefix"); prefix != "" {
		if err := k.Load(env.Provider(prefix+"_", ".", envKeyMapper(prefix)), nil); err != nil {
			return nil, nil, errors.Wrap(err, "error loading environment variables")
		}
	}
	// only flags that were explicitly set override file and environment
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, nil, errors.Wrap(err, "error loading flags")
	}

	var cfg WagerConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, nil, err
	}
	return &cfg, f.Args(), nil
}

// envKeyMapper turns WAGER_GAME_WINNER__RULE into game.winner-rule.
func envKeyMapper(prefix string) func(string) string {
	return func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, prefix+"_"))
		s = strings.ReplaceAll(s, "__", "-")
		return strings.ReplaceAll(s, "_", ".")
	}
}

func usage(f *flag.FlagSet) string {
	var b strings.Builder
	b.WriteString("usage: wager [flags] <action> [payload...]\n\n")
	b.WriteString("actions:\n")
	b.WriteString("  register                    join the game, sending --tx.value\n")
	b.WriteString("  commit <0xhash>             record a commitment\n")
	b.WriteString("  reveal <choice> <nonce>     disclose choice and nonce\n")
	b.WriteString("  hash <choice> <nonce>       print the commitment for choice and nonce\n")
	b.WriteString("  fund <amount>               credit --tx.sender (operator tooling)\n")
	b.WriteString("  balance [address]           spendable balance, defaults to --tx.sender\n")
	b.WriteString("  history                     archived games, newest first\n")
	b.WriteString("  wins <address>              number of archived games won\n")
	b.WriteString("  phase | stage | players | payments <addr> | commitment <addr>\n")
	b.WriteString("  start_time | first_committer | minutes [now] | pot | stake | status\n\n")
	b.WriteString("flags:\n")
	b.WriteString(f.FlagUsages())
	return b.String()
}
