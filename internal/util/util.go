package util

import (
	"crypto/sha1"
	"encoding/hex"
)

// HashString returns the hex sha1 of str, used for share-page ETags.
func HashString(str string) string {
	hasher := sha1.New()
	hasher.Write([]byte(str))

	return hex.EncodeToString(hasher.Sum(nil))
}
