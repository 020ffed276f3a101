package platform

import (
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// NewEngineFunc is set by the platform-specific packages via init(). See
// internal/platform/windows, darwin, and linux for the registrations.
var NewEngineFunc func(log *zap.Logger) (Engine, error)

// ErrUnsupportedPlatform is returned when no engine exists for the host OS.
var ErrUnsupportedPlatform = Errorf(ErrCodeUnsupportedPlatform,
	"no automation engine for %s/%s; supported: windows, darwin, linux", runtime.GOOS, runtime.GOARCH)

var (
	engineMu sync.Mutex
	engine   *Desktop
)

// Get returns the process-wide Desktop, constructing the engine for the
// host OS on first call. The engine lives for the process lifetime; there
// is no teardown or re-binding. Options apply only on the constructing
// call.
func Get(opts ...Option) (*Desktop, error) {
	engineMu.Lock()
	defer engineMu.Unlock()

	if engine != nil {
		return engine, nil
	}
	if NewEngineFunc == nil {
		return nil, ErrUnsupportedPlatform
	}

	d := &Desktop{log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}

	eng, err := NewEngineFunc(d.log)
	if err != nil {
		return nil, Errorf(ErrCodeUnsupportedPlatform,
			"engine construction failed on %s", runtime.GOOS).WithCause(err)
	}
	d.Engine = eng
	engine = d
	return engine, nil
}

// MustGet is Get for call sites that cannot proceed without an engine.
func MustGet() *Desktop {
	d, err := Get()
	if err != nil {
		panic(fmt.Sprintf("platform engine unavailable: %v", err))
	}
	return d
}
