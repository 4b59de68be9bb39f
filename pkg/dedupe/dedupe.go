// Package dedupe computes canonical content fingerprints for scheduled
// posts. Same inputs always produce the same key, so near-identical posts
// for one account can be rejected at insert time and older rows can be
// backfilled later.
package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// trackingParams are dropped entirely during canonicalization.
var trackingParams = map[string]struct{}{
	"gclid":  {},
	"fbclid": {},
	"igshid": {},
	"mc_cid": {},
	"mc_eid": {},
}

const trailingPunctuation = `)]}.,!?;:"'`

// ExtractFirstURL returns the first http(s) URL in text with trailing
// punctuation stripped, or "" when there is none.
func ExtractFirstURL(text string) string {
	match := urlPattern.FindString(text)
	if match == "" {
		return ""
	}
	return strings.TrimRight(match, trailingPunctuation)
}

// CanonicalizeURL lower-cases scheme and host, drops the fragment, removes
// tracking query parameters, sorts the remaining parameters by (key, value)
// and trims a trailing slash from non-root paths. Malformed URLs pass
// through unchanged.
func CanonicalizeURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	type pair struct{ key, value string }
	var kept []pair
	for _, part := range strings.Split(u.RawQuery, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			decodedKey = key
		}
		if isTrackingParam(decodedKey) {
			continue
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			decodedValue = value
		}
		kept = append(kept, pair{key: decodedKey, value: decodedValue})
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].key != kept[j].key {
			return kept[i].key < kept[j].key
		}
		return kept[i].value < kept[j].value
	})

	var query strings.Builder
	for i, p := range kept {
		if i > 0 {
			query.WriteByte('&')
		}
		query.WriteString(url.QueryEscape(p.key))
		query.WriteByte('=')
		query.WriteString(url.QueryEscape(p.value))
	}
	u.RawQuery = query.String()

	if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = ""
	}

	return u.String()
}

func isTrackingParam(key string) bool {
	key = strings.ToLower(key)
	if strings.HasPrefix(key, "utm_") {
		return true
	}
	_, ok := trackingParams[key]
	return ok
}

// NormalizeCopy applies Unicode NFKC normalization, collapses whitespace
// runs (including newlines) to a single space and trims the result.
func NormalizeCopy(text string) string {
	normalized := norm.NFKC.String(text)
	return strings.Join(strings.Fields(normalized), " ")
}

// ComputeDedupeKey returns the hex-encoded SHA-256 fingerprint of the
// canonicalized inputs. The v1 tag keeps future scheme changes from
// colliding with existing keys.
func ComputeDedupeKey(accountSlot, canonicalURL, normalizedCopy string) string {
	payload := fmt.Sprintf("v1|slot=%s|url=%s|copy=%s", accountSlot, canonicalURL, normalizedCopy)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// KeyForPost derives the dedupe key straight from raw post text, combining
// the other helpers the way the write path does.
func KeyForPost(accountSlot, text string) string {
	return ComputeDedupeKey(accountSlot, CanonicalizeURL(ExtractFirstURL(text)), NormalizeCopy(text))
}
