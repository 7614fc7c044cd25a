// Package logging builds the service logger: a console or JSON output core
// tee'd with an in-memory ring buffer that backs the debug log endpoint.
package logging

import (
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultRingSize bounds the debug panel's log history.
const DefaultRingSize = 500

// Options configure the logger construction.
type Options struct {
	Level    string // debug, info, warn, error
	JSON     bool   // machine-readable output instead of console
	RingSize int    // 0 means DefaultRingSize
}

// New builds the service logger and the ring buffer it mirrors into.
// The caller owns Sync on shutdown.
func New(opts Options) (*zap.SugaredLogger, *Ring, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "log level %q", opts.Level)
	}

	var encoder zapcore.Encoder
	if opts.JSON {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	size := opts.RingSize
	if size == 0 {
		size = DefaultRingSize
	}
	ring := NewRing(size)

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level),
		newRingCore(ring, level),
	)
	return zap.New(core).Sugar(), ring, nil
}
