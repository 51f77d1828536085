package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/felipeah-dev/echo-app/internal/services/automation"
)

func newMockRepo(t *testing.T) (*RuleRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewRuleRepository(Wrap(sqlDB)), mock
}

func TestRuleRepository_AddRule(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	mock.ExpectExec("INSERT INTO automation_rules").
		WithArgs(sqlmock.AnyArg(), "user-1", "high-value-deal", 100000.0, sqlmock.AnyArg(), fixed, true).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rule, err := repo.AddRule(context.Background(), automation.NewRule{
		UserID:    "user-1",
		MinAmount: 100000,
		Targets:   []string{"chat", "email"},
	})
	if err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	if rule.ID == "" || !rule.Active || rule.Type != models.AutomationHighValueDeal {
		t.Errorf("unexpected rule %+v", rule)
	}
	if !rule.CreatedAt.Equal(fixed) {
		t.Errorf("expected created at %v, got %v", fixed, rule.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRuleRepository_AddRule_Invalid(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	_, err := repo.AddRule(context.Background(), automation.NewRule{UserID: "user-1"})
	if !errors.Is(err, automation.ErrInvalidRule) {
		t.Errorf("expected ErrInvalidRule, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no query expected: %v", err)
	}
}

func TestRuleRepository_AddRule_ExecError(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO automation_rules").WillReturnError(errors.New("connection reset"))

	_, err := repo.AddRule(context.Background(), automation.NewRule{UserID: "user-1", Targets: []string{"chat"}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRuleRepository_Rules(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "user_id", "type", "min_amount", "targets", "created_at", "active"}).
		AddRow("rule_a", "user-1", "high-value-deal", 100000.0, "{chat,email}", created, true).
		AddRow("rule_b", "user-1", "high-value-deal", 50000.0, "{calendar}", created, false)
	mock.ExpectQuery("SELECT (.+) FROM automation_rules").WithArgs("user-1").WillReturnRows(rows)

	rules, err := repo.Rules(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Rules: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].ID != "rule_a" || len(rules[0].Targets) != 2 || rules[0].Targets[1] != "email" {
		t.Errorf("unexpected first rule %+v", rules[0])
	}
	if rules[1].Active {
		t.Error("expected second rule to be inactive")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRuleRepository_Rules_EmptyIsNotNil(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM automation_rules").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "type", "min_amount", "targets", "created_at", "active"}))

	rules, err := repo.Rules(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Rules: %v", err)
	}
	if rules == nil || len(rules) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", rules)
	}
}

func TestDB_Migrate(t *testing.T) {
	t.Parallel()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = sqlDB.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS automation_rules").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_automation_rules_user").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := Wrap(sqlDB).Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
