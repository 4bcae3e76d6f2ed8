package alert

import (
	"context"

	"github.com/securedep/watchdog/internal/store"
)

// LogFile appends dispatched alerts to the alert log.
// Write failures surface through the store's Errors, not through Send,
// so a full disk never looks like a dispatch failure to the caller.
type LogFile struct {
	Store *store.Store
}

func (l LogFile) Name() string {
	return "logfile"
}

func (l LogFile) Send(_ context.Context, a Dispatched) error {
	l.Store.Append(store.Entry{
		Timestamp: a.Timestamp,
		Level:     string(a.Type),
		Message:   a.Message,
		Data:      a,
		Source:    "securedep-watchdog",
	})
	return nil
}
