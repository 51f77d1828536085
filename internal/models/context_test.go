package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeSyncContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       map[string]any
		targets   []string
		amount    float64
		hasAmount bool
		source    string
		extraKeys []string
	}{
		{
			name: "nil context",
			raw:  nil,
		},
		{
			name:      "numeric amount and string targets",
			raw:       map[string]any{"amount": 150000.0, "targets": []string{"chat", "email"}, "source": "crm"},
			targets:   []string{"chat", "email"},
			amount:    150000,
			hasAmount: true,
			source:    "crm",
		},
		{
			name:      "string amount is coerced",
			raw:       map[string]any{"amount": " 120000.5 "},
			amount:    120000.5,
			hasAmount: true,
		},
		{
			name: "unparseable amount is ignored",
			raw:  map[string]any{"amount": "lots"},
		},
		{
			name:    "mixed target slice keeps strings only",
			raw:     map[string]any{"targets": []any{"chat", 42, "calendar"}},
			targets: []string{"chat", "calendar"},
		},
		{
			name: "malformed targets are ignored",
			raw:  map[string]any{"targets": "chat"},
		},
		{
			name:      "unknown keys kept as extra",
			raw:       map[string]any{"dealId": "D-1", "source": 7},
			extraKeys: []string{"dealId"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sc := DecodeSyncContext(tt.raw)
			assert.Equal(t, tt.targets, sc.Targets)
			assert.Equal(t, tt.amount, sc.Amount)
			assert.Equal(t, tt.hasAmount, sc.HasAmount)
			assert.Equal(t, tt.source, sc.Source)
			for _, k := range tt.extraKeys {
				assert.Contains(t, sc.Extra, k)
			}
		})
	}
}

func TestCoerceAmount_JSONNumber(t *testing.T) {
	t.Parallel()

	v, ok := CoerceAmount(json.Number("250000"))
	assert.True(t, ok)
	assert.Equal(t, 250000.0, v)

	_, ok = CoerceAmount(true)
	assert.False(t, ok)
}

func TestCoerceAmount_RejectsNonFinite(t *testing.T) {
	t.Parallel()

	for _, v := range []any{"Inf", "-Infinity", "NaN", " +inf ", math.Inf(1), math.NaN(), float32(math.Inf(-1))} {
		f, ok := CoerceAmount(v)
		assert.False(t, ok, "%v", v)
		assert.Zero(t, f, "%v", v)
	}

	f, ok := CoerceAmount(" 1e5 ")
	assert.True(t, ok)
	assert.Equal(t, 100000.0, f)
}

func TestSyncContext_MapRoundTrip(t *testing.T) {
	t.Parallel()

	sc := SyncContext{Targets: []string{"chat"}, Amount: 100000, HasAmount: true, Source: "manual"}
	back := DecodeSyncContext(sc.Map())
	assert.Equal(t, sc.Targets, back.Targets)
	assert.Equal(t, sc.Amount, back.Amount)
	assert.Equal(t, sc.Source, back.Source)
}

func TestSequenceHash(t *testing.T) {
	t.Parallel()

	actions := []UserAction{
		{Tool: "crm", Type: "open"},
		{Tool: "echo", Type: "sync_deal"},
	}
	assert.Equal(t, "crm:open->echo:sync_deal", SequenceHash(actions))
	assert.Equal(t, "", SequenceHash(nil))

	seq := NewActionSequence(actions)
	actions[0].Tool = "mutated"
	assert.Equal(t, "crm", seq.Actions[0].Tool)
}

func TestPatternStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status     PatternStatus
		valid      bool
		terminal   bool
		resolution bool
	}{
		{PatternStatusDetected, true, false, false},
		{PatternStatusSuggested, true, false, false},
		{PatternStatusAccepted, true, true, true},
		{PatternStatusRejected, true, true, true},
		{PatternStatusSnoozed, true, false, true},
		{PatternStatus("bogus"), false, false, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.valid, tt.status.IsValid())
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
			assert.Equal(t, tt.resolution, tt.status.IsResolution())
		})
	}
}

func TestAutomationRule_Matches(t *testing.T) {
	t.Parallel()

	rule := AutomationRule{Type: AutomationHighValueDeal, MinAmount: 100000, Active: true}
	assert.True(t, rule.Matches(100000))
	assert.False(t, rule.Matches(99999.99))

	rule.Active = false
	assert.False(t, rule.Matches(500000))

	rule.Active = true
	rule.Type = AutomationType("other")
	assert.False(t, rule.Matches(500000))
}
