// internal/writer/multi.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/rower-bridge/internal/telemetry"
)

// Multi delivers to every sink in order. A failing sink does not stop the others.
type Multi []Broadcaster

func (m Multi) Broadcast(s telemetry.Snapshot) error {
	var errs []string
	for i, b := range m {
		if err := b.Broadcast(s); err != nil {
			errs = append(errs, fmt.Sprintf("sink[%d]: %v", i, err))
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}

// Fault forwards to every sink that implements Faulter.
func (m Multi) Fault() error {
	var errs []string
	for i, b := range m {
		f, ok := b.(Faulter)
		if !ok {
			continue
		}
		if err := f.Fault(); err != nil {
			errs = append(errs, fmt.Sprintf("sink[%d]: %v", i, err))
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}
