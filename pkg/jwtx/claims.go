package jwtx

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrDecode is returned for any token whose payload cannot be read: fewer
// than two segments, bad base64 or a payload that is not exactly one JSON
// object.
var ErrDecode = errors.New("jwtx: malformed token")

// Claims is the subset of the backend token payload the front-end reads.
// ExpiresAt is nil when the token carries no usable "exp" claim.
type Claims struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	ExpiresAt *int64   `json:"exp,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	Type      string   `json:"type,omitempty"`
}

// Backend payloads are not uniform: identity arrives as "sub" or "id" and the
// display name as "nome" or "name". Candidates are tried in order, the first
// non-empty value wins.
var (
	identityFields = []string{"sub", "id"}
	nameFields     = []string{"nome", "name"}
	emailFields    = []string{"email"}
	expiryFields   = []string{"exp"}
	typeFields     = []string{"type"}
	rolesFields    = []string{"roles"}
)

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode reads the payload of token WITHOUT verifying its signature.
//
// The front-end has no signing secret, so decoded claims are display hints
// only (name, role, expiry for UX). Nothing here is a trust decision: the
// backend re-validates the bearer token on every privileged request.
func Decode(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return Claims{}, ErrDecode
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return Claims{}, ErrDecode
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return Claims{}, ErrDecode
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Claims{}, ErrDecode
	}

	return mapClaims(raw), nil
}

// decodeSegment accepts base64url (the JWT encoding) and falls back to the
// standard alphabet some backends emit.
func decodeSegment(seg string) ([]byte, error) {
	if b, err := segmentParser.DecodeSegment(seg); err == nil {
		return b, nil
	}

	if b, err := base64.StdEncoding.DecodeString(seg); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(seg, "="))
}

func mapClaims(raw map[string]any) Claims {
	c := Claims{
		ID:    firstString(raw, identityFields),
		Email: firstString(raw, emailFields),
		Name:  firstString(raw, nameFields),
		Type:  firstString(raw, typeFields),
		Roles: firstStringSet(raw, rolesFields),
	}
	if exp, ok := firstEpoch(raw, expiryFields); ok {
		c.ExpiresAt = &exp
	}
	return c
}

func firstString(raw map[string]any, fields []string) string {
	for _, f := range fields {
		switch v := raw[f].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func firstEpoch(raw map[string]any, fields []string) (int64, bool) {
	for _, f := range fields {
		n, ok := raw[f].(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		fl, err := n.Float64()
		if err != nil || math.IsNaN(fl) {
			continue
		}
		// Saturate; int64 conversion of an out-of-range float is undefined.
		switch {
		case fl >= math.MaxInt64:
			return math.MaxInt64, true
		case fl <= math.MinInt64:
			return math.MinInt64, true
		default:
			return int64(fl), true
		}
	}
	return 0, false
}

func firstStringSet(raw map[string]any, fields []string) []string {
	for _, f := range fields {
		list, ok := raw[f].([]any)
		if !ok {
			continue
		}

		out := make([]string, 0, len(list))
		seen := make(map[string]struct{}, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok || s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// HasExpiry reports whether the token carried an "exp" claim.
func (c Claims) HasExpiry() bool { return c.ExpiresAt != nil }

// Expired reports whether exp is present and not after now. A token without
// exp never expires on the client side.
func (c Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return *c.ExpiresAt <= now.Unix()
}
