package templating

import (
	"fmt"
	"time"

	minijinja "github.com/mitsuhiko/minijinja/minijinja-go/v2"
	"github.com/mitsuhiko/minijinja/minijinja-go/v2/value"
)

// localtimeFilter is the filter form of localtime:
// {{ application.submitted_at|localtime }}.
func (e *Environment) localtimeFilter(state minijinja.FilterState, in minijinja.Value, args []minijinja.Value, kwargs map[string]minijinja.Value) (minijinja.Value, error) {
	return e.localtimeValue(in)
}

// localtimeGlobal is the callable form: {{ localtime(now) }}.
func (e *Environment) localtimeGlobal(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Undefined(), fmt.Errorf("localtime takes exactly 1 argument, got %d", len(args))
	}
	return e.localtimeValue(args[0])
}

// localtimeValue converts a time into the configured zone and formats it
// with the configured layout.
func (e *Environment) localtimeValue(in value.Value) (value.Value, error) {
	t, ok := in.Raw().(time.Time)
	if !ok {
		return value.Undefined(), fmt.Errorf("localtime: value is not a time")
	}
	return value.FromString(t.In(e.location).Format(e.config.TimeFormat)), nil
}
