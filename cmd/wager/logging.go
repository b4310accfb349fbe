package main

import (
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	"golang.org/x/exp/slog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type FileLoggingConfig struct {
	Enable     bool   `koanf:"enable"`
	File       string `koanf:"file"`
	MaxSize    int    `koanf:"max-size"`
	MaxAge     int    `koanf:"max-age"`
	MaxBackups int    `koanf:"max-backups"`
	LocalTime  bool   `koanf:"local-time"`
	Compress   bool   `koanf:"compress"`
}

var DefaultFileLoggingConfig = FileLoggingConfig{
	Enable:     false,
	File:       "wager.log",
	MaxSize:    5,     // 5Mb
	MaxAge:     0,     // don't remove old files based on age
	MaxBackups: 20,    // keep 20 files
	LocalTime:  false, // use UTC time
	Compress:   true,
}

func FileLoggingConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Bool(prefix+".enable", DefaultFileLoggingConfig.Enable, "enable logging to file")
	f.String(prefix+".file", DefaultFileLoggingConfig.File, "path to log file")
	f.Int(prefix+".max-size", DefaultFileLoggingConfig.MaxSize, "log file size in Mb that will trigger log file rotation (0 = trigger disabled)")
	f.Int(prefix+".max-age", DefaultFileLoggingConfig.MaxAge, "maximum number of days to retain old log files based on the timestamp encoded in their filename (0 = no limit)")
	f.Int(prefix+".max-backups", DefaultFileLoggingConfig.MaxBackups, "maximum number of old log files to retain (0 = no limit)")
	f.Bool(prefix+".local-time", DefaultFileLoggingConfig.LocalTime, "if true: local time will be used in old log filename timestamps")
	f.Bool(prefix+".compress", DefaultFileLoggingConfig.Compress, "enable compression of old log files")
}

func HandlerFromLogType(logType string, output io.Writer) (slog.Handler, error) {
	switch logType {
	case "plaintext":
		return log.NewTerminalHandler(output, false), nil
	case "json":
		return log.JSONHandler(output), nil
	}
	return nil, errors.Errorf("invalid log type %q", logType)
}

func ToSlogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	}
	return 0, errors.Errorf("invalid log level %q", level)
}

// InitLog installs the root logger. Logs go to stderr so action output on
// stdout stays machine readable. The returned func closes the log file.
func InitLog(logType string, logLevel string, fileLoggingConfig *FileLoggingConfig) (func() error, error) {
	closer := func() error { return nil }
	output := io.Writer(os.Stderr)
	if fileLoggingConfig.Enable {
		writer := &lumberjack.Logger{
			Filename:   fileLoggingConfig.File,
			MaxSize:    fileLoggingConfig.MaxSize,
			MaxBackups: fileLoggingConfig.MaxBackups,
			MaxAge:     fileLoggingConfig.MaxAge,
			LocalTime:  fileLoggingConfig.LocalTime,
			Compress:   fileLoggingConfig.Compress,
		}
		output = io.MultiWriter(os.Stderr, writer)
		closer = writer.Close
	}
	handler, err := HandlerFromLogType(logType, output)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing log type when creating handler")
	}
	slogLevel, err := ToSlogLevel(logLevel)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing log level")
	}

	glogger := log.NewGlogHandler(handler)
	glogger.Verbosity(slogLevel)
	log.SetDefault(log.NewLogger(glogger))
	return closer, nil
}
