package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/ttc-labs/claude-compressor/internal/config"
)

// setupLogging configures the global zerolog logger. Interactive terminals
// get the human console format; pipes and service managers get JSON. An
// optional log file receives a JSON copy of everything.
func setupLogging(cfg *config.Config, debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stderr
	if term.IsTerminal(int(os.Stderr.Fd())) {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	if cfg.Monitoring.LogFile != "" {
		f, err := os.OpenFile(cfg.Monitoring.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Monitoring.LogFile).Msg("cannot open log file")
		} else {
			out = zerolog.MultiLevelWriter(out, f)
		}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}
