package tool

import (
	"context"
	"reflect"
	"runtime"

	"github.com/rs/zerolog"
)

// RunInitializers invokes every distinct initializer exactly once,
// synchronously, in first-seen order. A failing initializer is logged and
// skipped; it never aborts the pass or prevents other tools from working.
// The tool whose backend failed to come up reports the problem later as a
// failure outcome on first invocation.
//
// The list is deduplicated by function identity here as well, independent of
// the shared-initializer bookkeeping done at registration time.
func RunInitializers(ctx context.Context, initializers []InitFunc, logger zerolog.Logger) int {
	seen := make(map[uintptr]bool)
	failed := 0

	for _, initializer := range initializers {
		ptr := reflect.ValueOf(initializer).Pointer()
		if seen[ptr] {
			continue
		}
		seen[ptr] = true

		name := initializerName(initializer)
		if err := initializer(ctx); err != nil {
			failed++
			logger.Error().Err(err).Str("initializer", name).Msg("Tool initializer failed")
			continue
		}
		logger.Debug().Str("initializer", name).Msg("Tool initializer completed")
	}

	return failed
}

func initializerName(fn InitFunc) string {
	rf := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if rf == nil {
		return "unknown"
	}
	return rf.Name()
}
