package usecase

import (
	"crypto/md5"
	"encoding/hex"
)

// maxShortCodeLength is the length of a hex encoded MD5 sum.
const maxShortCodeLength = md5.Size * 2

// GenerateCode derives a short code from originalURL and salt: the hex encoded MD5 sum of
// their concatenation, truncated to length characters. With an empty salt the same URL
// always yields the same code.
func GenerateCode(originalURL, salt string, length int) string {
	sum := md5.Sum([]byte(originalURL + salt))
	code := hex.EncodeToString(sum[:])

	if length <= 0 || length > maxShortCodeLength {
		length = maxShortCodeLength
	}

	return code[:length]
}
