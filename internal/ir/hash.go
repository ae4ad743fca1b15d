package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSchedule = "sequence/schedule/v1"
	DomainTrace    = "sequence/trace/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ScheduleHash computes the content-addressed identity of a schedule spec.
//
// Times and durations are quantized with q before hashing, so two specs
// that compile to the same timeline at that precision share a hash.
func ScheduleHash(spec ScheduleSpec, q Quantizer) (string, error) {
	items, err := canonicalItems(spec.Items, q)
	if err != nil {
		return "", fmt.Errorf("ScheduleHash: %w", err)
	}
	obj := map[string]any{
		"name":      spec.Name,
		"precision": q.Ticks(1),
		"items":     items,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ScheduleHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSchedule, canonical), nil
}

func canonicalItems(items []ItemSpec, q Quantizer) ([]any, error) {
	out := make([]any, 0, len(items))
	for _, item := range items {
		rel, err := ParseRelativeStart(item.Anchor)
		if err != nil {
			return nil, err
		}
		obj := map[string]any{
			"kind":       item.Kind,
			"name":       item.Name,
			"at":         q.Ticks(item.At),
			"anchor":     rel.String(),
			"duration":   q.Ticks(item.Duration),
			"open_ended": item.IsOpenEnded(),
		}
		if item.Kind == ItemExternal {
			obj["handle"] = item.Handle
		}
		if len(item.Items) > 0 {
			children, err := canonicalItems(item.Items, q)
			if err != nil {
				return nil, err
			}
			obj["items"] = children
		}
		out = append(out, obj)
	}
	return out, nil
}

// TraceHash computes the identity of a callback trace. Replays of the same
// commands against the same schedule must produce the same hash.
func TraceHash(trace []Callback) (string, error) {
	list := make([]any, len(trace))
	for i, cb := range trace {
		list[i] = map[string]any{
			"seq":      cb.Seq,
			"def":      cb.Def,
			"name":     cb.Name,
			"event":    cb.Event.String(),
			"offset":   cb.Offset,
			"external": cb.External,
		}
	}
	canonical, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("TraceHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}
