// Package loadctl drives the load, refresh and failure lifecycle of a view.
//
// A Controller owns a fixed set of slots. Each slot is one independently
// tracked fetch whose result is shaped and stored only in that slot; the
// view status is merged from the slots when read, so the order in which
// fetches settle never matters.
package loadctl

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state of a slot or a whole view.
type Status int

const (
	Idle Status = iota
	Loading
	Ready
	Failed
)

var statusNames = [...]string{"idle", "loading", "ready", "failed"}

func (s Status) String() string {
	if s < Idle || s > Failed {
		return "unknown"
	}
	return statusNames[s]
}

// MarshalJSON renders the status by name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a status name written by MarshalJSON.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range statusNames {
		if n == name {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("loadctl: unknown status %q", name)
}

// Merge folds slot statuses into one view status: loading while any slot is
// loading, idle before anything ran, failed only when every slot failed and
// ready otherwise.
func Merge(statuses ...Status) Status {
	if len(statuses) == 0 {
		return Idle
	}
	idle, failed := 0, 0
	for _, st := range statuses {
		switch st {
		case Loading:
			return Loading
		case Idle:
			idle++
		case Failed:
			failed++
		}
	}
	switch {
	case idle == len(statuses):
		return Idle
	case failed == len(statuses):
		return Failed
	default:
		return Ready
	}
}
