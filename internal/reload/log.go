// Package reload implements the live state reconciliation engine: given the
// previous and the freshly loaded project snapshots, it applies the minimal
// set of in-place mutations that bring the paused runtime into alignment with
// the new snapshot, preserving instance identity and transient runtime state
// wherever the declarations did not change.
package reload

import (
	"context"
	"fmt"

	"lantern/server/logging"
	"lantern/server/logging/hotreload"
)

// EntryKind classifies one reconciliation log entry.
type EntryKind string

const (
	// KindFatal marks a failure that aborted the remaining reconciliation
	// work: a module failed to load, or an unexpected panic. The simulation
	// still resumes.
	KindFatal EntryKind = "fatal"
	// KindError marks a specific entity that failed to create, update or
	// destroy, or a structural change that is not hot-reloadable.
	// Reconciliation continues with the next entity.
	KindError EntryKind = "error"
	// KindWarning marks informational losses, e.g. a behavior type that is no
	// longer registered.
	KindWarning EntryKind = "warning"
	// KindInfo marks routine additions and changes.
	KindInfo EntryKind = "info"
)

// Entry is one ordered reconciliation log line returned to the caller.
type Entry struct {
	Message string    `json:"message"`
	Kind    EntryKind `json:"kind"`
}

// Log accumulates ordered entries during one reload and mirrors each one to
// the event publisher.
type Log struct {
	entries   []Entry
	publisher logging.Publisher
	frame     uint64
}

// NewLog builds an accumulator mirroring to the given publisher. The frame
// stamps every mirrored event.
func NewLog(publisher logging.Publisher, frame uint64) *Log {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Log{publisher: publisher, frame: frame}
}

// Fatalf records a fatal entry.
func (l *Log) Fatalf(format string, args ...any) {
	l.append(KindFatal, fmt.Sprintf(format, args...))
}

// Errorf records an error entry.
func (l *Log) Errorf(format string, args ...any) {
	l.append(KindError, fmt.Sprintf(format, args...))
}

// Warningf records a warning entry.
func (l *Log) Warningf(format string, args ...any) {
	l.append(KindWarning, fmt.Sprintf(format, args...))
}

// Infof records an info entry.
func (l *Log) Infof(format string, args ...any) {
	l.append(KindInfo, fmt.Sprintf(format, args...))
}

func (l *Log) append(kind EntryKind, message string) {
	l.entries = append(l.entries, Entry{Message: message, Kind: kind})
	hotreload.Entry(context.Background(), l.publisher, l.frame, severityFor(kind), hotreload.EntryPayload{
		Message: message,
		Kind:    string(kind),
	})
}

// Entries returns the accumulated entries in order.
func (l *Log) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// HasFatal reports whether a fatal entry was recorded.
func (l *Log) HasFatal() bool {
	for _, entry := range l.entries {
		if entry.Kind == KindFatal {
			return true
		}
	}
	return false
}

// Counts returns the number of fatal, error and warning entries.
func (l *Log) Counts() (fatals, errors, warnings int) {
	for _, entry := range l.entries {
		switch entry.Kind {
		case KindFatal:
			fatals++
		case KindError:
			errors++
		case KindWarning:
			warnings++
		}
	}
	return fatals, errors, warnings
}

func severityFor(kind EntryKind) logging.Severity {
	switch kind {
	case KindFatal, KindError:
		return logging.SeverityError
	case KindWarning:
		return logging.SeverityWarn
	default:
		return logging.SeverityInfo
	}
}
