// Package sessionserver is the server side of the session handshake against the
// identity service.
//
// A game server first reports a connecting client with Join (normally done by the
// client itself) and then confirms the claimed username with HasJoined. Both calls
// send the verification digest from package serverhash as "serverId"; each call
// recomputes it from the same three handshake inputs.
//
// The client keeps no state between calls and never retries. Timeouts, pooling and
// TLS belong to the injected *http.Client; cancellation flows through the context.
package sessionserver
