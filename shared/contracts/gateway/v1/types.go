// Package v1 defines the mcauth gateway HTTP contract v1.
//
// It is shared between the gateway and its clients (game servers, smoke tools)
// to keep the wire format authoritative. Binary handshake inputs travel as
// standard base64.
package v1

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Version is the contract version embedded in the route prefix.
const Version = "v1"

// Routes.
const (
	PathJoin      = "/v1/session/join"
	PathHasJoined = "/v1/session/has-joined"
)

// Error codes (wire-stable).
const (
	CodeInvalidJSON         = "invalid_json"
	CodeInvalidRequest      = "invalid_request"
	CodeMethodNotAllowed    = "method_not_allowed"
	CodeRateLimited         = "rate_limited"
	CodeSessionRejected     = "session_rejected"
	CodeVerificationFailed  = "verification_failed"
	CodeUpstreamUnavailable = "upstream_unavailable"
	CodeUpstreamTimeout     = "upstream_timeout"
	CodeInternal            = "internal"
)

// MaxUsernameLen bounds the username accepted by the gateway.
const MaxUsernameLen = 64

// HandshakeInputs are the three values the verification digest is derived from.
type HandshakeInputs struct {
	ServerID        string `json:"serverId"`
	SharedSecret    string `json:"sharedSecret"`
	ServerPublicKey string `json:"serverPublicKey"`
}

// Decode returns the base64-decoded secret and key.
func (h HandshakeInputs) Decode() (secret, key []byte, err error) {
	secret, err = base64.StdEncoding.DecodeString(strings.TrimSpace(h.SharedSecret))
	if err != nil {
		return nil, nil, fmt.Errorf("sharedSecret: %w", err)
	}
	key, err = base64.StdEncoding.DecodeString(strings.TrimSpace(h.ServerPublicKey))
	if err != nil {
		return nil, nil, fmt.Errorf("serverPublicKey: %w", err)
	}
	return secret, key, nil
}

// EncodeBytes is the inverse of Decode for one value.
func EncodeBytes(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// JoinRequest is the body of POST /v1/session/join.
type JoinRequest struct {
	AccessToken     string `json:"accessToken"`
	SelectedProfile string `json:"selectedProfile"`
	HandshakeInputs
}

// Validate performs structural validation.
func (r JoinRequest) Validate() error {
	if strings.TrimSpace(r.AccessToken) == "" {
		return errors.New("missing field: accessToken")
	}
	if strings.TrimSpace(r.SelectedProfile) == "" {
		return errors.New("missing field: selectedProfile")
	}
	_, _, err := r.Decode()
	return err
}

// HasJoinedRequest is the body of POST /v1/session/has-joined.
type HasJoinedRequest struct {
	Username string `json:"username"`
	IP       string `json:"ip,omitempty"`
	HandshakeInputs
}

// Validate performs structural validation. Username is not normalized: it is case-sensitive.
func (r HasJoinedRequest) Validate() error {
	if r.Username == "" {
		return errors.New("missing field: username")
	}
	if len(r.Username) > MaxUsernameLen {
		return errors.New("username too long")
	}
	if strings.TrimSpace(r.Username) != r.Username {
		return errors.New("username has surrounding whitespace")
	}
	if ip := strings.TrimSpace(r.IP); ip != "" && net.ParseIP(ip) == nil {
		return errors.New("invalid ip")
	}
	_, _, err := r.Decode()
	return err
}

// Property is a signed profile property.
type Property struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Signature string `json:"signature,omitempty"`
}

// ProfileResponse is returned by a successful has-joined call.
type ProfileResponse struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Properties     []Property `json:"properties,omitempty"`
	ProfileActions []string   `json:"profileActions,omitempty"`
}

// APIError is the error body.
type APIError struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
}

// ErrorResponse wraps APIError.
type ErrorResponse struct {
	Error APIError `json:"error"`
}
