// Package probe issues timed requests against the monitored system's
// health endpoint and decodes the result into a Snapshot.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/securedep/watchdog/internal/wderr"
)

var (
	// UserAgent is sent with every probe request.
	UserAgent = "securedep-watchdog health check"

	ErrMissingHost       = errors.New("missing target host")
	ErrUnsupportedScheme = errors.New("unsupported scheme")
)

const DefaultTimeout = 10 * time.Second

// Prober issues GET {target}/health with a hard deadline.
type Prober struct {
	target  *url.URL
	request *http.Request
	client  *http.Client
	timeout time.Duration
}

// New creates a Prober for the base URL of the monitored system.
// A zero timeout means DefaultTimeout.
func New(target string, timeout time.Duration) (*Prober, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}

	u.Host = strings.ToLower(u.Host)

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrUnsupportedScheme
	}
	if u.Hostname() == "" {
		return nil, ErrMissingHost
	}

	requrl := *u
	requrl.Path = strings.TrimSuffix(requrl.Path, "/") + "/health"

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Prober{
		target: &requrl,
		request: &http.Request{
			Method: http.MethodGet,
			URL:    &requrl,
			Header: http.Header{
				"User-Agent": {UserAgent},
				"Accept":     {"application/json"},
			},
		},
		client: &http.Client{
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
		},
		timeout: timeout,
	}, nil
}

// Target returns the health endpoint URL this prober requests.
func (p *Prober) Target() *url.URL {
	return p.target
}

// Probe requests the health endpoint once.
// The returned error is one of wderr.ErrTimeout, wderr.ErrTransport, or
// wderr.ErrMalformedResponse.
func (p *Prober) Probe(ctx context.Context) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req := p.request.Clone(ctx)

	st := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return Snapshot{}, p.transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	d := time.Since(st)
	if err != nil {
		return Snapshot{}, p.transportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, wderr.New(wderr.ErrMalformedResponse, nil, "%s: unexpected status %s", p.target, strings.ReplaceAll(resp.Status, " ", "_"))
	}

	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return Snapshot{}, wderr.New(wderr.ErrMalformedResponse, err, "%s: body is not a health payload", p.target)
	}
	if !snap.Status.Known() {
		return Snapshot{}, wderr.New(wderr.ErrMalformedResponse, nil, "%s: unknown status %q", p.target, string(snap.Status))
	}

	snap.ResponseTime = d
	return snap, nil
}

// transportError classifies a network level failure, in the same way the
// probe reports timeouts and refused connections separately.
func (p *Prober) transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return wderr.New(wderr.ErrTimeout, nil, "%s: no response within %s", p.target, p.timeout)
	}

	message := err.Error()

	dnsErr := &net.DNSError{}
	opErr := &net.OpError{}

	if errors.As(err, &dnsErr) {
		message = fmt.Sprintf("%s: name resolution failed", dnsErr.Name)
	} else if errors.As(err, &opErr) && opErr.Op == "dial" {
		message = fmt.Sprintf("%s: connection refused", opErr.Addr)
	}

	return wderr.New(wderr.ErrTransport, nil, "%s", message)
}
