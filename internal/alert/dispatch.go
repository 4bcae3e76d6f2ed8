package alert

import (
	"context"
	"log/slog"
	"sync"
)

// Channel is a delivery mechanism for a dispatched alert.
type Channel interface {
	// Name returns the channel identifier used in results and logs.
	// It should not change during the lifetime of the instance.
	Name() string

	// Send delivers one alert to the channel.
	Send(ctx context.Context, a Dispatched) error
}

// ChannelResult is the outcome of one channel attempt during a dispatch.
type ChannelResult struct {
	Channel string
	Err     error
}

func (r ChannelResult) OK() bool {
	return r.Err == nil
}

// Dispatcher fans an alert out to every configured channel.
type Dispatcher struct {
	channels []Channel
	logger   *slog.Logger
}

func NewDispatcher(logger *slog.Logger, channels ...Channel) *Dispatcher {
	return &Dispatcher{
		channels: channels,
		logger:   logger,
	}
}

// Dispatch sends the alert to all channels in parallel and blocks until
// every attempt settled. One channel's failure never cancels its
// siblings and never propagates to the caller; failures are logged and
// reported in the returned per-channel results.
func (d *Dispatcher) Dispatch(ctx context.Context, a Dispatched) []ChannelResult {
	results := make([]ChannelResult, len(d.channels))

	wg := &sync.WaitGroup{}
	for i, ch := range d.channels {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			results[i] = ChannelResult{
				Channel: ch.Name(),
				Err:     ch.Send(ctx, a),
			}
		}(i, ch)
	}
	wg.Wait()

	for _, r := range results {
		if r.Err != nil {
			d.logger.Error("alert delivery failed",
				"channel", r.Channel,
				"alert", a.ID,
				"error", r.Err)
		}
	}

	return results
}
