package relay

import (
	"encoding/json"
	"time"
)

// Trigger names what started a relay.
type Trigger int

const (
	TriggerWebhook Trigger = iota
	TriggerCommand
	TriggerCLI
)

func (t Trigger) String() string {
	switch t {
	case TriggerWebhook:
		return "webhook"
	case TriggerCommand:
		return "command"
	case TriggerCLI:
		return "cli"
	default:
		return "unknown"
	}
}

type Status int

const (
	StatusFailed Status = iota
	// StatusDelivered: at least one photo went out.
	StatusDelivered
	// StatusSuppressed: the run was skipped because the system is armed.
	StatusSuppressed
	// StatusNoMonitors: the group is empty and Options.AllowEmpty is set.
	StatusNoMonitors
)

func (s Status) String() string {
	switch s {
	case StatusDelivered:
		return "delivered"
	case StatusSuppressed:
		return "suppressed"
	case StatusNoMonitors:
		return "no_monitors"
	default:
		return "failed"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Failure is a camera that was dropped from the batch.
type Failure struct {
	MonitorID string
	Err       error
}

func (f Failure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		MonitorID string `json:"monitor_id"`
		Error     string `json:"error"`
	}{f.MonitorID, msg})
}

// Outcome summarises one relay invocation.
type Outcome struct {
	ID        string        `json:"id"`
	Trigger   Trigger       `json:"-"`
	Status    Status        `json:"status"`
	Monitors  int           `json:"monitors"`
	Delivered []string      `json:"delivered,omitempty"`
	Failed    []Failure     `json:"failed,omitempty"`
	Sent      int           `json:"sent"`
	Duration  time.Duration `json:"duration_ns"`
	Err       error         `json:"-"`
}

// OK reports whether the trigger should treat the run as handled.
func (o Outcome) OK() bool {
	return o.Status != StatusFailed
}
