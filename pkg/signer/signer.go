// Package signer builds the canonical parameter string of an authenticated
// BingX request and signs it.
//
// The canonical string is every non-empty parameter sorted by name and joined
// as name=value pairs with '&', followed by timestamp=<epoch ms>. The signature
// is the lowercase hex HMAC-SHA256 of that string keyed by the API secret.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// TimestampParam is appended to every canonical string.
	TimestampParam = "timestamp"
	// SignatureParam carries the signature on the wire.
	SignatureParam = "signature"
)

// Func turns a canonical parameter string into a signature. Integrations that
// sign outside the process (hardware keys, remote signers) provide their own.
type Func func(canonical string) string

// Signed is the derived, immutable result of signing one parameter set.
type Signed struct {
	Canonical string
	Signature string
	Timestamp int64

	pairs []pair
}

// Query returns the query string sent on the wire. It carries the same pairs
// as Canonical in the same order, with names and values percent-escaped so
// reserved characters cannot split or truncate the signed parameters.
func (s Signed) Query() string {
	return join(s.pairs, url.QueryEscape) + "&" + SignatureParam + "=" + url.QueryEscape(s.Signature)
}

type pair struct {
	name  string
	value string
}

// Signer canonicalizes parameters and signs them.
type Signer struct {
	sign Func
	now  func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithOverride replaces the HMAC step with fn. A nil fn is ignored.
func WithOverride(fn Func) Option {
	return func(s *Signer) {
		if fn != nil {
			s.sign = fn
		}
	}
}

// WithClock sets the time source used for the timestamp parameter.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Signer keyed by secret.
func New(secret string, opts ...Option) *Signer {
	s := &Signer{
		sign: HMAC(secret),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign canonicalizes params with the current time and signs the result.
func (s *Signer) Sign(params Params) Signed {
	return s.SignAt(params, s.now().UnixMilli(), nil)
}

// SignWith is Sign with a per-call override of the signing function.
func (s *Signer) SignWith(params Params, override Func) Signed {
	return s.SignAt(params, s.now().UnixMilli(), override)
}

// SignAt signs params with a fixed timestamp. When override is non-nil it is
// used instead of the signer's own function.
func (s *Signer) SignAt(params Params, timestamp int64, override Func) Signed {
	pairs := canonicalPairs(params, timestamp)
	canonical := join(pairs, nil)

	sign := s.sign
	if override != nil {
		sign = override
	}

	return Signed{
		Canonical: canonical,
		Signature: sign(canonical),
		Timestamp: timestamp,
		pairs:     pairs,
	}
}

// Canonicalize renders params in signing order and appends the timestamp.
// Caller-supplied timestamp or signature entries are ignored.
func Canonicalize(params Params, timestamp int64) string {
	return join(canonicalPairs(params, timestamp), nil)
}

func canonicalPairs(params Params, timestamp int64) []pair {
	names := make([]string, 0, len(params))
	for name := range params {
		if name == TimestampParam || name == SignatureParam {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]pair, 0, len(names)+1)
	for _, name := range names {
		value, ok := Render(params[name])
		if !ok {
			continue
		}
		pairs = append(pairs, pair{name: name, value: value})
	}
	return append(pairs, pair{name: TimestampParam, value: strconv.FormatInt(timestamp, 10)})
}

// join writes pairs as name=value joined by '&'. A nil escape leaves the text raw.
func join(pairs []pair, escape func(string) string) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		name, value := p.name, p.value
		if escape != nil {
			name, value = escape(name), escape(value)
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(value)
	}
	return b.String()
}

// HMAC returns the default signing function for secret.
func HMAC(secret string) Func {
	key := []byte(secret)
	return func(canonical string) string {
		mac := hmac.New(sha256.New, key)
		_, _ = mac.Write([]byte(canonical))
		return hex.EncodeToString(mac.Sum(nil))
	}
}
