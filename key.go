package imageimport

import (
	"crypto/md5"
	"encoding/base64"
	"fmt"
)

// DeriveKey builds the content-addressed cache key for one import
// request. It is a pure function of its arguments, so identical
// requests always map to the same key.
func DeriveKey(ref string, width, height, quality int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%d|%d|%d", ref, width, height, quality)))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
