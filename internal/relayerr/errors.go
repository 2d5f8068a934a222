// Package relayerr defines the failure kinds shared by the Shinobi client,
// the Telegram sink and the relay pipeline.
//
// Callers branch on the kind rather than the message:
//
//	if relayerr.Is(err, relayerr.UpstreamUnavailable) { ... }
package relayerr

import (
	"errors"
	"fmt"
)

// Kind classifies a relay failure.
type Kind int

const (
	Unknown Kind = iota
	// UpstreamUnavailable means the Shinobi server could not be reached
	// (connection refused, DNS, timeout).
	UpstreamUnavailable
	// UpstreamProtocolError means Shinobi answered with a non-2xx status or a
	// body that is not the expected JSON.
	UpstreamProtocolError
	// SnapshotUnavailable means one camera's JPEG could not be fetched.
	SnapshotUnavailable
	// ChatDeliveryError means Telegram rejected or never received a send.
	ChatDeliveryError
	// NothingToSend means the batch ended up empty.
	NothingToSend
)

func (k Kind) String() string {
	switch k {
	case UpstreamUnavailable:
		return "upstream unavailable"
	case UpstreamProtocolError:
		return "upstream protocol error"
	case SnapshotUnavailable:
		return "snapshot unavailable"
	case ChatDeliveryError:
		return "chat delivery error"
	case NothingToSend:
		return "nothing to send"
	default:
		return "unknown"
	}
}

// Error carries a Kind alongside the operation that failed.
type Error struct {
	Kind Kind
	// Op names the failing operation, e.g. "list monitors".
	Op string
	// MonitorID is set when the failure belongs to a single camera.
	MonitorID string
	Err       error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.MonitorID != "" {
		msg += " " + e.MonitorID
	}
	msg += ": " + e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// ForMonitor wraps err with the given kind and the monitor it belongs to.
func ForMonitor(kind Kind, op, monitorID string, err error) *Error {
	return &Error{Kind: kind, Op: op, MonitorID: monitorID, Err: err}
}

// Errorf is New with a formatted cause.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var relayErr *Error
	if errors.As(err, &relayErr) {
		return relayErr.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
