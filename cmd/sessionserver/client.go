package sessionserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	joinPath      = "/session/minecraft/join"
	hasJoinedPath = "/session/minecraft/hasJoined"
)

// Outcome classifies a finished call for observers.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeRejected       Outcome = "rejected"
	OutcomeUnverified     Outcome = "unverified"
	OutcomeTransportError Outcome = "transport_error"
)

// Observer receives one event per outbound call.
type Observer interface {
	ObserveCall(op string, outcome Outcome, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveCall(string, Outcome, time.Duration) {}

// Client performs join and hasJoined calls against one identity service.
// It is safe for concurrent use.
type Client struct {
	base *url.URL
	http *http.Client
	ua   string
	max  int64

	log *slog.Logger
	obs Observer
	now func() time.Time
}

// Option configures optional Client dependencies.
type Option func(*Client)

// WithLogger sets the logger used for per-call debug events.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithObserver sets the call observer (metrics).
func WithObserver(obs Observer) Option {
	return func(c *Client) {
		if obs != nil {
			c.obs = obs
		}
	}
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()

	base, err := parseHost(cfg.Host)
	if err != nil {
		return nil, err
	}

	c := &Client{
		base: base,
		http: cfg.HTTPClient,
		ua:   cfg.UserAgent,
		max:  cfg.MaxResponseBytes,
		log:  slog.Default(),
		obs:  nopObserver{},
		now:  time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

// Host returns the configured identity service origin.
func (c *Client) Host() string { return c.base.String() }

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends req and converts network failures into TransportError.
func (c *Client) do(op string, req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.ua)
	res, err := c.http.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, &TransportError{Op: op, Err: err}
	}
	return res, nil
}

func (c *Client) finish(op string, start time.Time, err error) {
	outcome := outcomeOf(err)
	elapsed := c.now().Sub(start)
	c.obs.ObserveCall(op, outcome, elapsed)

	if err != nil {
		c.log.Debug(op+".fail", "outcome", string(outcome), "duration_ms", elapsed.Milliseconds(), "err", err)
		return
	}
	c.log.Debug(op+".ok", "duration_ms", elapsed.Milliseconds())
}

func outcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case IsVerification(err):
		return OutcomeUnverified
	case IsAuthentication(err):
		return OutcomeRejected
	default:
		return OutcomeTransportError
	}
}

func isSuccess(code int) bool { return code >= 200 && code <= 299 }

// readBody reads at most c.max bytes of the response body.
func (c *Client) readBody(res *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(res.Body, c.max))
}

// closeBody drains a bounded amount so the connection can be reused.
func (c *Client) closeBody(res *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, c.max))
	_ = res.Body.Close()
}

// statusError builds an AuthenticationError from a non-2xx response.
func (c *Client) statusError(op string, res *http.Response) error {
	ae := &AuthenticationError{
		Op:         op,
		StatusCode: res.StatusCode,
		Status:     statusText(res),
	}

	if body, err := c.readBody(res); err == nil && len(body) > 0 {
		var ue upstreamError
		if json.Unmarshal(body, &ue) == nil {
			ae.Upstream = ue.Error
			ae.Message = ue.ErrorMessage
		}
	}
	return ae
}

// statusText returns the reason phrase, e.g. "Forbidden" for "403 Forbidden".
func statusText(res *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode)))
	if text == "" {
		text = http.StatusText(res.StatusCode)
	}
	return text
}

// ctxError reports an already-done context as a transport failure.
func ctxError(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return &TransportError{Op: op, Err: err}
	}
	return nil
}
