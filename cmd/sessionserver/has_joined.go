package sessionserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"mcauth/cmd/security/serverhash"
)

// HasJoinedOption adds optional query parameters to a hasJoined call.
type HasJoinedOption func(url.Values)

// WithClientIP asks the identity service to also check the client's address
// (the "prevent proxy connections" setting).
func WithClientIP(ip string) HasJoinedOption {
	return func(q url.Values) {
		if ip = strings.TrimSpace(ip); ip != "" {
			q.Set("ip", ip)
		}
	}
}

// HasJoined asks the identity service whether username has joined the server identified by
// (serverID, sharedSecret, publicKey) and returns the authoritative profile.
//
// username is case-sensitive. A 2xx answer without an "id" (including an empty body)
// yields *VerificationError; a non-2xx answer yields *AuthenticationError.
func (c *Client) HasJoined(ctx context.Context, username, serverID string, sharedSecret, publicKey []byte, opts ...HasJoinedOption) (p Profile, err error) {
	const op = "sessionserver.has_joined"

	start := c.now()
	defer func() { c.finish(op, start, err) }()

	if err := ctxError(ctx, op); err != nil {
		return Profile{}, err
	}

	q := url.Values{}
	q.Set("username", username)
	q.Set("serverId", serverhash.Digest(serverID, sharedSecret, publicKey))
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(hasJoinedPath, q), nil)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.do(op, req)
	if err != nil {
		return Profile{}, err
	}
	defer c.closeBody(res)

	if !isSuccess(res.StatusCode) {
		return Profile{}, c.statusError(op, res)
	}

	body, err := c.readBody(res)
	if err != nil {
		return Profile{}, &TransportError{Op: op, Err: err}
	}
	return decodeProfile(op, username, body)
}

func decodeProfile(op, username string, body []byte) (Profile, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Profile{}, &VerificationError{Op: op, Username: username, Reason: "empty response"}
	}

	var wire hasJoinedResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return Profile{}, &VerificationError{Op: op, Username: username, Reason: "malformed response", Err: err}
	}
	if wire.ID == nil {
		return Profile{}, &VerificationError{Op: op, Username: username, Reason: "response has no id"}
	}

	return Profile{
		ID:             *wire.ID,
		Name:           wire.Name,
		Properties:     wire.Properties,
		ProfileActions: wire.ProfileActions,
	}, nil
}
