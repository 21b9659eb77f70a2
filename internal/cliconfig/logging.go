package cliconfig

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/rtpsgroup/pkg/log"
)

// Logger returns a console logger on stderr at the named level. Unknown
// level names log at info.
func Logger(level string) zerolog.Logger {
	lvl, _ := log.ParseLevel(level)
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
}
