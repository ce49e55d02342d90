// Package sigv4 implements the AWS Signature Version 4 request-signing scheme.
// It supports two attachment modes: an Authorization header for direct API calls
// and query parameters for presigned retrieval URLs. The signer is a pure
// function of credentials, request, and clock; it performs no validation of
// region or service legality, only structure.
package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	algorithm       = "AWS4-HMAC-SHA256"
	terminator      = "aws4_request"
	timestampLayout = "20060102T150405Z"
	dateLayout      = "20060102"
	unsignedPayload = "UNSIGNED-PAYLOAD"
)

// Static errors for signer construction and signing.
var (
	// ErrCredentialsRequired is returned when the access key or secret is empty.
	ErrCredentialsRequired = errors.New("sigv4: access key ID and secret access key are required")
	// ErrRegionRequired is returned when the region is empty.
	ErrRegionRequired = errors.New("sigv4: region is required")
	// ErrServiceRequired is returned when the service is empty.
	ErrServiceRequired = errors.New("sigv4: service is required")
)

// Credentials holds the key pair used to derive signatures.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string // Optional, attached as x-amz-security-token when set
}

// Signer signs outbound HTTP requests for a fixed region and service.
type Signer struct {
	creds   Credentials
	region  string
	service string
	now     func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock overrides the signing clock. Used in tests to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// NewSigner creates a Signer for the given credentials, region, and service.
// Region and service are checked for presence only; a structurally valid but
// bogus value produces a deterministic signature the provider will reject.
func NewSigner(creds Credentials, region, service string, opts ...Option) (*Signer, error) {
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return nil, ErrCredentialsRequired
	}
	if region == "" {
		return nil, ErrRegionRequired
	}
	if service == "" {
		return nil, ErrServiceRequired
	}

	s := &Signer{
		creds:   creds,
		region:  region,
		service: service,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sign computes a signature over the request and attaches it as an
// Authorization header. The body must be passed explicitly so the request
// body reader is never consumed; GET and HEAD requests always sign the
// empty-body hash regardless of what is passed.
func (s *Signer) Sign(req *http.Request, body []byte) error {
	t := s.now().UTC()
	timestamp := t.Format(timestampLayout)
	date := t.Format(dateLayout)

	req.Header.Set("host", req.URL.Host)
	req.Header.Set("x-amz-date", timestamp)
	if s.creds.SessionToken != "" {
		req.Header.Set("x-amz-security-token", s.creds.SessionToken)
	}

	if req.Method == http.MethodGet || req.Method == http.MethodHead {
		body = nil
	}
	payloadHash := hashHex(body)

	headerNames, canonicalHeaders := canonicalizeHeaders(req.Header)
	signedHeaders := strings.Join(headerNames, ";")

	canonical := strings.Join([]string{
		strings.ToUpper(req.Method),
		encodePath(req.URL.Path),
		canonicalQuery(req.URL.Query()),
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := strings.Join([]string{date, s.region, s.service, terminator}, "/")
	signature := s.signature(timestamp, date, scope, canonical)

	req.Header.Set("Authorization", algorithm+
		" Credential="+s.creds.AccessKeyID+"/"+scope+
		", SignedHeaders="+signedHeaders+
		", Signature="+signature)
	return nil
}

// Presign computes a signature for a bodyless request and returns a URL
// carrying the authentication material as query parameters. The URL embeds
// its own expiry; nothing server-side is needed to use it.
func (s *Signer) Presign(method, rawURL string, expires time.Duration) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	t := s.now().UTC()
	timestamp := t.Format(timestampLayout)
	date := t.Format(dateLayout)
	scope := strings.Join([]string{date, s.region, s.service, terminator}, "/")

	q := u.Query()
	q.Set("X-Amz-Algorithm", algorithm)
	q.Set("X-Amz-Credential", s.creds.AccessKeyID+"/"+scope)
	q.Set("X-Amz-Date", timestamp)
	q.Set("X-Amz-Expires", strconv.Itoa(int(expires.Seconds())))
	q.Set("X-Amz-SignedHeaders", "host")
	if s.creds.SessionToken != "" {
		q.Set("X-Amz-Security-Token", s.creds.SessionToken)
	}

	canonical := strings.Join([]string{
		strings.ToUpper(method),
		encodePath(u.Path),
		canonicalQuery(q),
		"host:" + u.Host + "\n",
		"host",
		unsignedPayload,
	}, "\n")

	signature := s.signature(timestamp, date, scope, canonical)
	q.Set("X-Amz-Signature", signature)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// signature derives the signing key and computes the final keyed hash over
// the string to sign.
func (s *Signer) signature(timestamp, date, scope, canonicalRequest string) string {
	stringToSign := strings.Join([]string{
		algorithm,
		timestamp,
		scope,
		hashHex([]byte(canonicalRequest)),
	}, "\n")

	key := []byte("AWS4" + s.creds.SecretAccessKey)
	key = hmacSHA256(key, date)
	key = hmacSHA256(key, s.region)
	key = hmacSHA256(key, s.service)
	key = hmacSHA256(key, terminator)

	return hex.EncodeToString(hmacSHA256(key, stringToSign))
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// canonicalizeHeaders returns the sorted lowercase header names and the
// canonical header block (name:value pairs, newline-joined, trailing newline).
func canonicalizeHeaders(headers http.Header) ([]string, string) {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, strings.ToLower(name))
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.TrimSpace(headers.Get(name)))
		b.WriteByte('\n')
	}
	return names, b.String()
}

// canonicalQuery sorts parameters by name (then value) and encodes them with
// the SigV4 encoding table.
func canonicalQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []string
	for _, k := range keys {
		vs := append([]string(nil), values[k]...)
		sort.Strings(vs)
		for _, v := range vs {
			pairs = append(pairs, encodeComponent(k)+"="+encodeComponent(v))
		}
	}
	return strings.Join(pairs, "&")
}

// encodePath URI-encodes the path component-wise, preserving slashes.
func encodePath(path string) string {
	if path == "" {
		return "/"
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = encodeComponent(seg)
	}
	return strings.Join(segments, "/")
}

// encodeComponent percent-encodes everything outside the SigV4 unreserved set
// (ALPHA, DIGIT, '-', '.', '_', '~'). Unlike url.QueryEscape it never emits
// '+' for spaces.
func encodeComponent(s string) string {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0xF])
		}
	}
	return b.String()
}
