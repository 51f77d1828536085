package models

import (
	"strings"
	"time"
)

// Default tool/type recorded for every completed sync
const (
	ToolEcho       = "echo"
	ActionSyncDeal = "sync_deal"
)

// UserAction is a single observed user action. Actions are immutable once recorded.
type UserAction struct {
	ID        string         `json:"id"`
	Timestamp int64          `json:"timestamp"` // unix milliseconds
	UserID    string         `json:"userId"`
	TeamID    string         `json:"teamId,omitempty"`
	Tool      string         `json:"tool"`
	Type      string         `json:"type"`
	Context   map[string]any `json:"context,omitempty"`
}

// Key returns the "tool:type" identity used when hashing sequences
func (a UserAction) Key() string {
	return a.Tool + ":" + a.Type
}

// Time returns the action timestamp as a time.Time
func (a UserAction) Time() time.Time {
	return time.UnixMilli(a.Timestamp)
}

// SyncContext decodes the action context into its typed form
func (a UserAction) SyncContext() SyncContext {
	return DecodeSyncContext(a.Context)
}

// ActionSequence is an ordered run of contiguous actions plus its hash
type ActionSequence struct {
	Actions []UserAction `json:"actions"`
	Hash    string       `json:"hash"`
}

// NewActionSequence copies actions and computes the sequence hash
func NewActionSequence(actions []UserAction) ActionSequence {
	cp := make([]UserAction, len(actions))
	copy(cp, actions)
	return ActionSequence{Actions: cp, Hash: SequenceHash(cp)}
}

// SequenceHash joins each action's tool:type with "->"
func SequenceHash(actions []UserAction) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = a.Key()
	}
	return strings.Join(parts, "->")
}

// NowMillis returns the current time in unix milliseconds
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
