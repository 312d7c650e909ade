package triviad

import "strings"

// NormalizeID canonicalizes an external handle into the key used for all
// identity-keyed state (sessions, scores, day passes, payment waiters):
// lowercase, trimmed, leading @ characters stripped. One policy everywhere
// so "@Alice" and "alice" never diverge.
func NormalizeID(raw string) string {
	id := strings.ToLower(strings.TrimSpace(raw))
	return strings.TrimLeft(id, "@")
}

// ResolutionHandle prepares a raw handle for pubkey resolution on the
// messaging network: the @unicity suffix and any @ prefix are dropped.
func ResolutionHandle(raw string) string {
	h := strings.TrimSpace(raw)
	h = strings.TrimSuffix(h, "@unicity")
	h = strings.TrimLeft(h, "@")
	return strings.TrimSpace(h)
}
