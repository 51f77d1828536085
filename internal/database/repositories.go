package database

import "github.com/felipeah-dev/echo-app/internal/services/automation"

// Ensure concrete types implement the interfaces
var (
	_ automation.RuleStore = (*RuleRepository)(nil)
)
