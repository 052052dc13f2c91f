// Package signer produces the authentication header set required by the
// record backend. The scheme is OAuth-flavoured but not OAuth: the canonical
// string embeds the secret as a signed field and is digested with plain SHA1,
// even though the advertised signature method is HMAC-SHA1. The backend
// verifies exactly this construction, so it is replicated bit for bit.
package signer

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	signatureMethod = "HMAC-SHA1"
	oauthVersion    = "1.0"
)

// Credentials selects the token and secret that go into a signature.
// Device credentials take precedence; the server shared secret and raw
// device token are the fallback for devices that have not logged in yet.
type Credentials struct {
	DeviceToken  string
	UserToken    string
	UserSecret   string
	ServerSecret string
}

// Token returns the value carried in OAuth-Token.
func (c Credentials) Token() string {
	if c.UserToken != "" {
		return c.UserToken
	}
	return c.DeviceToken
}

// Secret returns the value signed as user_secret.
func (c Credentials) Secret() string {
	if c.UserSecret != "" {
		return c.UserSecret
	}
	return c.ServerSecret
}

// Request is the signing context for one outbound call. It is built fresh
// per request; nonce and timestamp must never be reused.
type Request struct {
	Method string
	// URL is the server authority concatenated with the request path,
	// without any query string.
	URL   string
	Query map[string]any
	Form  map[string]any
	// Body, when non-nil, is serialized as JSON and folded into the
	// canonical string as a lowercase hex MD5 digest.
	Body      any
	Timestamp int64
	Nonce     string
}

// Sign computes the base64 signature for req.
func Sign(creds Credentials, req Request) (string, error) {
	params := map[string]string{
		encodeComponent("method"):                 encodeComponent(req.Method),
		encodeComponent("url"):                    encodeComponent(req.URL),
		encodeComponent("OAuth-Nonce"):            encodeComponent(req.Nonce),
		encodeComponent("OAuth-Timestamp"):        encodeComponent(strconv.FormatInt(req.Timestamp, 10)),
		encodeComponent("OAuth-Token"):            encodeComponent(creds.Token()),
		encodeComponent("OAuth-Signature-Method"): encodeComponent(signatureMethod),
		encodeComponent("OAuth-Version"):          encodeComponent(oauthVersion),
		encodeComponent("user_secret"):            encodeComponent(creds.Secret()),
	}

	for _, m := range []map[string]any{req.Query, req.Form} {
		for k, v := range m {
			s, ok := v.(string)
			if !ok {
				continue // non-string values are not signed
			}
			params[encodeComponent(k)] = encodeComponent(s)
		}
	}

	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return "", fmt.Errorf("marshal body: %w", err)
		}
		// The MD5 digest is hex already; it is deliberately not re-encoded.
		params[encodeComponent("body")] = fmt.Sprintf("%x", md5.Sum(raw))
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}

	sum := sha1.Sum([]byte(sb.String()))
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

// Headers returns the full OAuth header set for req.
func Headers(creds Credentials, req Request) (map[string]string, error) {
	sig, err := Sign(creds, req)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"OAuth-Version":          oauthVersion,
		"OAuth-Token":            creds.Token(),
		"OAuth-Nonce":            req.Nonce,
		"OAuth-Timestamp":        strconv.FormatInt(req.Timestamp, 10),
		"OAuth-Signature-Method": signatureMethod,
		"OAuth-Signature":        sig,
	}, nil
}

const upperhex = "0123456789ABCDEF"

// encodeComponent matches JavaScript's encodeURIComponent except that '!'
// is escaped as well; the backend's decoder requires it.
func encodeComponent(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		if isComponentSafe(b) {
			sb.WriteByte(b)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[b>>4])
		sb.WriteByte(upperhex[b&0x0f])
	}
	return sb.String()
}

func isComponentSafe(b byte) bool {
	switch {
	case 'A' <= b && b <= 'Z', 'a' <= b && b <= 'z', '0' <= b && b <= '9':
		return true
	}
	switch b {
	case '-', '_', '.', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
