// Package crypto derives non-reversible fingerprints of session credentials
// so they can be shown and logged without exposing the credential itself.
package crypto

import (
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// fingerprintSize is the number of digest bytes kept in a fingerprint.
const fingerprintSize = 16

// CredentialFingerprint returns a truncated BLAKE2b-256 hex digest of the
// credential triple. An empty userSig yields "".
func CredentialFingerprint(appID int, userID, userSig string) string {
	if userSig == "" {
		return ""
	}

	var buf []byte
	buf = strconv.AppendInt(buf, int64(appID), 10)
	buf = append(buf, 0)
	buf = append(buf, userID...)
	buf = append(buf, 0)
	buf = append(buf, userSig...)

	sum := blake2b.Sum256(buf)
	return hex.EncodeToString(sum[:fingerprintSize])
}

// FormatFingerprint returns fingerprint text grouped in chunks of 4 uppercase chars.
func FormatFingerprint(fingerprint string) string {
	clean := strings.ToUpper(strings.ReplaceAll(fingerprint, " ", ""))
	if clean == "" {
		return ""
	}

	var b strings.Builder
	for i := 0; i < len(clean); i += 4 {
		if i > 0 {
			b.WriteByte(' ')
		}

		end := i + 4
		if end > len(clean) {
			end = len(clean)
		}
		b.WriteString(clean[i:end])
	}

	return b.String()
}
