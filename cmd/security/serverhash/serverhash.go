package serverhash

import (
	"crypto/sha1" // #nosec G505 -- SHA-1 is fixed by the wire protocol.
	"math/big"
)

// Size is the length in bytes of a raw digest.
const Size = sha1.Size

// Sum returns the SHA-1 digest of serverID, sharedSecret and publicKey fed in that order.
func Sum(serverID string, sharedSecret, publicKey []byte) [Size]byte {
	h := sha1.New() // #nosec G401
	_, _ = h.Write([]byte(serverID))
	_, _ = h.Write(sharedSecret)
	_, _ = h.Write(publicKey)

	var out [Size]byte
	h.Sum(out[:0])
	return out
}

// Digest returns the verification digest sent as "serverId" to the identity service.
func Digest(serverID string, sharedSecret, publicKey []byte) string {
	sum := Sum(serverID, sharedSecret, publicKey)
	return Encode(sum[:])
}

// Encode renders sum as a two's-complement signed integer in lowercase hex.
// An empty or all-zero input renders "0".
func Encode(sum []byte) string {
	n := new(big.Int).SetBytes(sum)
	if len(sum) > 0 && sum[0]&0x80 != 0 {
		// n - 2^(8*len) is the signed value; big.Int.Text adds the "-".
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(len(sum))*8))
	}
	return n.Text(16)
}
