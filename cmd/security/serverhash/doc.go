// Package serverhash derives the server-id hash used by the session handshake.
//
// The identity service does not accept a plain hex dump of the SHA-1 digest.
// The digest is read as a signed big-endian integer and rendered the way a
// big-integer toString(16) would:
//   - negative values are negated and prefixed with "-"
//   - leading zero nibbles are dropped
//
// Example values (SHA-1 of the name only):
//
//	Notch -> 4ed1f46bbe04bc756bcb17c0c7ce3e4632f06a48
//	jeb_  -> -7c9d5b0044c130109a5d7b5fb5c317c02b4e28c1
//	simon -> 88e16a1019277b15d58faf0541e11910eb756f6
package serverhash
