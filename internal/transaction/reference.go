package transaction

import (
	"crypto/rand"
)

const (
	referencePrefix  = "TXN-"
	referenceLength  = 10
	referenceCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateReference produces a short transaction reference. Uniqueness is not
// guaranteed here; the unique index on transactions.reference is the real
// check, and callers retry generation on collision.
func GenerateReference() string {
	buf := make([]byte, referenceLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	for i, b := range buf {
		buf[i] = referenceCharset[int(b)%len(referenceCharset)]
	}
	return referencePrefix + string(buf)
}
