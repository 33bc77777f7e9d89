// Package main provides a CI-friendly smoke test for the mcauth gateway.
//
// It validates:
//   - /healthz and /readyz
//   - request id echo
//   - invalid body and wrong method error envelopes
//   - has-joined for a handshake nobody joined (verification_failed)
//   - optionally, a full join -> has-joined round trip with real credentials
//
// The digest for the generated inputs is printed so it can be compared with
// what the identity service logs.
package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"mcauth/cmd/security/serverhash"
	v1 "mcauth/shared/contracts/gateway/v1"
)

const maxReadBytes = 1 << 20 // 1MiB

func main() {
	var (
		baseURL     = flag.String("url", "http://127.0.0.1:8080", "mcauth base URL")
		username    = flag.String("username", "Notch", "Username for the has-joined check")
		accessToken = flag.String("access-token", "", "Access token for a full join round trip (optional)")
		profile     = flag.String("profile", "", "Selected profile id for a full join round trip (optional)")
		timeout     = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
		verbose     = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}
	base := strings.TrimRight(*baseURL, "/")
	client := &http.Client{Timeout: *timeout}
	root := context.Background()

	mustStatus(root, client, http.MethodGet, base+"/healthz", nil, http.StatusOK, *timeout)
	mustStatus(root, client, http.MethodGet, base+"/readyz", nil, http.StatusOK, *timeout)

	res, body := do(root, client, http.MethodPost, base+v1.PathHasJoined, []byte("{"), *timeout)
	if res.StatusCode != http.StatusBadRequest {
		fatalf("invalid json: status=%d want=400 body=%s", res.StatusCode, body)
	}
	mustErrorCode(body, v1.CodeInvalidJSON)
	if res.Header.Get("X-Request-ID") == "" {
		fatalf("invalid json: missing X-Request-ID header")
	}

	res, body = do(root, client, http.MethodGet, base+v1.PathHasJoined, nil, *timeout)
	if res.StatusCode != http.StatusMethodNotAllowed {
		fatalf("wrong method: status=%d want=405 body=%s", res.StatusCode, body)
	}

	in := randomInputs()
	secret, key, err := in.Decode()
	if err != nil {
		fatalf("decode inputs: %v", err)
	}
	digest := serverhash.Digest(in.ServerID, secret, key)
	if *verbose {
		fmt.Printf("inputs: serverId=%q digest=%s\n", in.ServerID, digest)
	}

	if *accessToken != "" && *profile != "" {
		join := v1.JoinRequest{AccessToken: *accessToken, SelectedProfile: *profile, HandshakeInputs: in}
		res, body = do(root, client, http.MethodPost, base+v1.PathJoin, mustJSON(join), *timeout)
		if res.StatusCode != http.StatusNoContent {
			fatalf("join: status=%d want=204 body=%s", res.StatusCode, body)
		}

		hj := v1.HasJoinedRequest{Username: *username, HandshakeInputs: in}
		res, body = do(root, client, http.MethodPost, base+v1.PathHasJoined, mustJSON(hj), *timeout)
		if res.StatusCode != http.StatusOK {
			fatalf("has-joined: status=%d want=200 body=%s", res.StatusCode, body)
		}
		var p v1.ProfileResponse
		if err := json.Unmarshal(body, &p); err != nil {
			fatalf("has-joined: decode profile: %v", err)
		}
		if p.ID == "" {
			fatalf("has-joined: empty profile id")
		}
		fmt.Printf("OK: joined profile=%s name=%s digest=%s\n", p.ID, p.Name, digest)
		return
	}

	hj := v1.HasJoinedRequest{Username: *username, HandshakeInputs: in}
	res, body = do(root, client, http.MethodPost, base+v1.PathHasJoined, mustJSON(hj), *timeout)
	switch res.StatusCode {
	case http.StatusForbidden:
		mustErrorCode(body, v1.CodeVerificationFailed)
	case http.StatusTooManyRequests:
		fatalf("has-joined: rate limited (retry after %ss)", res.Header.Get("Retry-After"))
	default:
		fatalf("has-joined: status=%d want=403 body=%s", res.StatusCode, body)
	}

	fmt.Printf("OK: username=%s digest=%s verification_failed as expected\n", *username, digest)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func randomInputs() v1.HandshakeInputs {
	secret := make([]byte, 16)
	key := make([]byte, 162)
	if _, err := rand.Read(secret); err != nil {
		fatalf("rand: %v", err)
	}
	if _, err := rand.Read(key); err != nil {
		fatalf("rand: %v", err)
	}
	return v1.HandshakeInputs{
		ServerID:        "",
		SharedSecret:    v1.EncodeBytes(secret),
		ServerPublicKey: v1.EncodeBytes(key),
	}
}

func do(parent context.Context, client *http.Client, method, target string, body []byte, stepTimeout time.Duration) (*http.Response, []byte) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		fatalf("%s %s: build request: %v", method, target, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := client.Do(req)
	if err != nil {
		fatalf("%s %s: %v", method, target, err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxReadBytes))
	if err != nil {
		fatalf("%s %s: read body: %v", method, target, err)
	}
	return res, raw
}

func mustStatus(parent context.Context, client *http.Client, method, target string, body []byte, want int, stepTimeout time.Duration) {
	res, raw := do(parent, client, method, target, body, stepTimeout)
	if res.StatusCode != want {
		fatalf("%s %s: status=%d want=%d body=%s", method, target, res.StatusCode, want, raw)
	}
}

func mustErrorCode(body []byte, want string) {
	var er v1.ErrorResponse
	if err := json.Unmarshal(body, &er); err != nil {
		fatalf("decode error body: %v (%s)", err, body)
	}
	if er.Error.Code != want {
		fatalf("error code=%q want=%q", er.Error.Code, want)
	}
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		fatalf("marshal: %v", err)
	}
	return b
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
