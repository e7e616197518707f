// Package logger configures the global zerolog logger from command line flags.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a go-flags option group shared by every command.
type Logger struct {
	Level   string `long:"log-level"    env:"LOG_LEVEL"    description:"Log level"          choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
	Format  string `long:"log-format"   env:"LOG_FORMAT"   description:"Log output format"  choice:"console" choice:"json" default:"console"`
	NoColor bool   `long:"log-no-color" env:"LOG_NO_COLOR" description:"Disable colored console output"`
}

// Setup applies the options to the global logger. Output goes to stderr so
// commands can stream results on stdout.
func (l Logger) Setup() {
	l.SetupWriter(os.Stderr)
}

// SetupWriter is Setup with an explicit destination.
func (l Logger) SetupWriter(w io.Writer) {
	zerolog.SetGlobalLevel(ParseLevel(l.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	if strings.EqualFold(l.Format, "json") {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    l.NoColor,
		TimeFormat: time.TimeOnly,
	}).With().Timestamp().Logger()
}

// ParseLevel maps a level name to zerolog, falling back to info.
func ParseLevel(name string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
