// Package automation stores accepted automation rules and applies them to syncs.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/google/uuid"
)

// ErrInvalidRule is returned when rule input fails validation
var ErrInvalidRule = errors.New("invalid automation rule")

// NewRule describes a rule to be created
type NewRule struct {
	UserID    string
	Type      models.AutomationType
	MinAmount float64
	Targets   []string
}

// Validate checks the rule input and fills the default type
func (n *NewRule) Validate() error {
	if strings.TrimSpace(n.UserID) == "" {
		return fmt.Errorf("%w: userId is required", ErrInvalidRule)
	}
	if n.Type == "" {
		n.Type = models.AutomationHighValueDeal
	}
	if n.Type != models.AutomationHighValueDeal {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRule, n.Type)
	}
	if math.IsNaN(n.MinAmount) || math.IsInf(n.MinAmount, 0) {
		return fmt.Errorf("%w: minAmount must be a finite number", ErrInvalidRule)
	}
	if n.MinAmount < 0 {
		return fmt.Errorf("%w: minAmount must not be negative", ErrInvalidRule)
	}
	if len(n.Targets) == 0 {
		return fmt.Errorf("%w: at least one target is required", ErrInvalidRule)
	}
	for _, t := range n.Targets {
		if !models.SyncTarget(t).IsValid() {
			return fmt.Errorf("%w: unknown target %q", ErrInvalidRule, t)
		}
	}
	return nil
}

// RuleStore persists automation rules per user. Rules are returned in
// creation order and Rules never returns nil.
type RuleStore interface {
	AddRule(ctx context.Context, rule NewRule) (models.AutomationRule, error)
	Rules(ctx context.Context, userID string) ([]models.AutomationRule, error)
	Ping(ctx context.Context) error
}

// MemoryStore is an in-process RuleStore
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[string][]models.AutomationRule
	now    func() time.Time
}

var _ RuleStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byUser: make(map[string][]models.AutomationRule),
		now:    time.Now,
	}
}

// AddRule validates and appends a new active rule
func (s *MemoryStore) AddRule(_ context.Context, in NewRule) (models.AutomationRule, error) {
	if err := in.Validate(); err != nil {
		return models.AutomationRule{}, err
	}

	rule := models.AutomationRule{
		ID:        NewRuleID(),
		UserID:    in.UserID,
		Type:      in.Type,
		MinAmount: in.MinAmount,
		Targets:   append([]string(nil), in.Targets...),
		CreatedAt: s.now().UTC(),
		Active:    true,
	}

	s.mu.Lock()
	s.byUser[in.UserID] = append(s.byUser[in.UserID], rule)
	s.mu.Unlock()

	return cloneRule(rule), nil
}

// Rules returns a copy of the user's rules in creation order
func (s *MemoryStore) Rules(_ context.Context, userID string) ([]models.AutomationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := s.byUser[userID]
	out := make([]models.AutomationRule, len(rules))
	for i, r := range rules {
		out[i] = cloneRule(r)
	}
	return out, nil
}

// Ping always succeeds for the in-memory store
func (s *MemoryStore) Ping(context.Context) error { return nil }

// NewRuleID returns a unique rule identifier
func NewRuleID() string {
	return "rule_" + uuid.New().String()
}

func cloneRule(r models.AutomationRule) models.AutomationRule {
	r.Targets = append([]string(nil), r.Targets...)
	return r
}
