package crypto

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"strconv"
)

// CodeKeyLen is the per-code signing key length in bytes (160 bits).
const CodeKeyLen = 20

// CodeSigner issues and verifies authorization codes bound to a client id and
// redirect URI. The zero value is ready to use.
type CodeSigner struct{}

// Issue returns a fresh signing key and the code it produces for (clientID, redirectURI).
func (CodeSigner) Issue(clientID int64, redirectURI string) (string, []byte, error) {
	key, err := RandBytes(CodeKeyLen)
	if err != nil {
		return "", nil, err
	}
	return signCode(key, clientID, redirectURI), key, nil
}

// Verify recomputes the code with key and compares it to candidate in constant time.
func (CodeSigner) Verify(clientID int64, redirectURI string, key []byte, candidate string) bool {
	want := signCode(key, clientID, redirectURI)
	return hmac.Equal([]byte(want), []byte(candidate))
}

// signCode is lowercase hex HMAC-SHA1(key, "<client_id>.<redirect_uri>").
func signCode(key []byte, clientID int64, redirectURI string) string {
	mac := hmac.New(sha1.New, key)
	mac.Write([]byte(strconv.FormatInt(clientID, 10) + "." + redirectURI))
	return hex.EncodeToString(mac.Sum(nil))
}
