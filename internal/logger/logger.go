// SPDX-License-Identifier: MIT

// Package logger configures zerolog for the command-line tools.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// LevelFor maps an environment name and an optional explicit level to a zerolog level.
// dev/test enable trace; prod and unknown environments log info and above.
// A parseable explicit level always wins.
func LevelFor(environment, level string) zerolog.Level {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil && level != "" {
		return lvl
	}
	switch strings.ToLower(environment) {
	case "dev", "test":
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}

// New returns a logger writing to w: human-readable console output for
// dev/test, JSON lines otherwise.
func New(w io.Writer, environment, level string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	switch strings.ToLower(environment) {
	case "dev", "test":
		_, tty := w.(*os.File)
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: !tty}
	}

	return zerolog.New(w).
		Level(LevelFor(environment, level)).
		With().Timestamp().
		Logger()
}

// Init installs New(os.Stderr, ...) as the global logger and returns it.
//
//	logger.Init(cfg.Environment, cfg.LogLevel)
func Init(environment, level string) zerolog.Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	l := New(os.Stderr, environment, level)
	log.Logger = l
	l.Debug().
		Str("environment", environment).
		Stringer("level", l.GetLevel()).
		Msg("logger initialized")

	return l
}
