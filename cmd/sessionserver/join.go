package sessionserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"mcauth/cmd/security/serverhash"
)

// Join tells the identity service that the holder of accessToken is connecting to the
// server identified by (serverID, sharedSecret, publicKey).
//
// Any 2xx answer is success. A non-2xx answer yields *AuthenticationError.
func (c *Client) Join(ctx context.Context, accessToken, selectedProfile, serverID string, sharedSecret, publicKey []byte) (err error) {
	const op = "sessionserver.join"

	start := c.now()
	defer func() { c.finish(op, start, err) }()

	if err := ctxError(ctx, op); err != nil {
		return err
	}

	body, err := json.Marshal(joinRequest{
		AccessToken:     accessToken,
		SelectedProfile: selectedProfile,
		ServerID:        serverhash.Digest(serverID, sharedSecret, publicKey),
	})
	if err != nil {
		return fmt.Errorf("%s: encode: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(joinPath, nil), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.do(op, req)
	if err != nil {
		return err
	}
	defer c.closeBody(res)

	if !isSuccess(res.StatusCode) {
		return c.statusError(op, res)
	}
	return nil
}
