package dispatch

import (
	"fmt"
	"strings"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
)

// Strategy selects what a Coordinator does with a value that arrives while a
// unit of work is already running. It is fixed for the life of a Coordinator.
type Strategy int

const (
	// Sequential runs one unit at a time and queues later values in arrival
	// order. Nothing is dropped.
	Sequential Strategy = iota

	// Drop runs one unit at a time and discards values that arrive while it
	// is busy.
	Drop

	// Parallel starts a unit for every value immediately. With
	// Config.MaxConcurrency set, values beyond the limit wait in a FIFO queue.
	Parallel

	// Switch cancels the running unit and starts the new value at once. The
	// canceled unit's outcome is discarded.
	Switch

	// ThrottleFirstLast runs the first value immediately and remembers only
	// the latest value that arrives while busy; it runs when the unit ends.
	ThrottleFirstLast
)

var strategyNames = map[Strategy]string{
	Sequential:        "sequential",
	Drop:              "drop",
	Parallel:          "parallel",
	Switch:            "switch",
	ThrottleFirstLast: "throttle-first-last",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// Valid reports whether s is one of the defined strategies.
func (s Strategy) Valid() bool {
	_, ok := strategyNames[s]
	return ok
}

// ParseStrategy returns the Strategy named by name, ignoring case.
func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, rxerrors.NewValidationError("dispatch", "strategy", name, "unknown strategy").
		WithHint("use sequential, drop, parallel, switch or throttle-first-last")
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, rxerrors.NewValidationError("dispatch", "strategy", int(s), "unknown strategy")
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
