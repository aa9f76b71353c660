// Package logger builds the JSON line logger shared by the HTTP layer, migrations and bootstrap.
package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// TimestampField is the key of the timestamp added to every entry.
const TimestampField = "ts"

type timestampHook struct {
	loc *time.Location
}

func (h timestampHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Str(TimestampField, time.Now().In(h.loc).Format(time.RFC3339Nano))
}

// New returns a logger that writes one JSON object per line to w.
// Timestamps are rendered in loc; an unknown level falls back to info.
func New(w io.Writer, loc *time.Location, level string) zerolog.Logger {
	if loc == nil {
		loc = time.UTC
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).Hook(timestampHook{loc: loc})
}
