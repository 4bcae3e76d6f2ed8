package alert

import (
	"context"
	"sync/atomic"
)

// Email is the email notification channel.
//
// Delivery is not implemented yet: the channel records intent so that
// dispatch accounting stays correct once a mailer is wired in.
// TODO: hand the alert off to the platform mailer service.
type Email struct {
	to       string
	accepted atomic.Int64
}

func NewEmail(to string) *Email {
	return &Email{to: to}
}

func (e *Email) Name() string {
	return "email"
}

func (e *Email) Send(_ context.Context, _ Dispatched) error {
	e.accepted.Add(1)
	return nil
}

// Accepted returns how many alerts this channel has taken.
func (e *Email) Accepted() int64 {
	return e.accepted.Load()
}
