package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// SyncContext is the typed view of an action's free-form context.
// Unknown keys are kept in Extra so nothing is lost when decoding.
type SyncContext struct {
	Targets   []string       `json:"targets,omitempty"`
	Amount    float64        `json:"amount,omitempty"`
	HasAmount bool           `json:"-"`
	Source    string         `json:"source,omitempty"`
	Extra     map[string]any `json:"-"`
}

// DecodeSyncContext extracts targets, amount and source from a context map.
// Malformed values are ignored rather than reported.
func DecodeSyncContext(raw map[string]any) SyncContext {
	var sc SyncContext
	if len(raw) == 0 {
		return sc
	}

	for k, v := range raw {
		switch k {
		case "targets":
			sc.Targets = decodeTargets(v)
		case "amount":
			sc.Amount, sc.HasAmount = CoerceAmount(v)
		case "source":
			if s, ok := v.(string); ok {
				sc.Source = s
			}
		default:
			if sc.Extra == nil {
				sc.Extra = make(map[string]any)
			}
			sc.Extra[k] = v
		}
	}
	return sc
}

// Map converts the context back into the wire map form
func (sc SyncContext) Map() map[string]any {
	m := make(map[string]any, len(sc.Extra)+3)
	for k, v := range sc.Extra {
		m[k] = v
	}
	if sc.Targets != nil {
		targets := make([]any, len(sc.Targets))
		for i, t := range sc.Targets {
			targets[i] = t
		}
		m["targets"] = targets
	}
	if sc.HasAmount {
		m["amount"] = sc.Amount
	}
	if sc.Source != "" {
		m["source"] = sc.Source
	}
	return m
}

// CoerceAmount converts numeric values and numeric strings to float64.
// NaN and infinities are rejected.
func CoerceAmount(v any) (float64, bool) {
	var (
		f  float64
		ok bool
	)
	switch n := v.(type) {
	case float64:
		f, ok = n, true
	case float32:
		f, ok = float64(n), true
	case int:
		f, ok = float64(n), true
	case int64:
		f, ok = float64(n), true
	case int32:
		f, ok = float64(n), true
	case json.Number:
		var err error
		f, err = n.Float64()
		ok = err == nil
	case string:
		var err error
		f, err = strconv.ParseFloat(strings.TrimSpace(n), 64)
		ok = err == nil
	}
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func decodeTargets(v any) []string {
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
