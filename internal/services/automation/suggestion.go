package automation

import (
	"github.com/felipeah-dev/echo-app/internal/models"
)

// RuleFromSuggestion derives the rule to create when a suggestion is
// accepted. Targets and amount come from the first representative action
// that carries them; missing or unusable values fall back to every target
// and the default high-value amount.
func RuleFromSuggestion(s models.PatternSuggestion) NewRule {
	rule := NewRule{
		UserID:    s.Pattern.UserID,
		Type:      models.AutomationHighValueDeal,
		MinAmount: models.DefaultHighValueAmount,
	}

	var (
		haveTargets bool
		haveAmount  bool
	)
	for _, a := range s.Pattern.Representative.Actions {
		sc := a.SyncContext()
		if !haveTargets {
			if valid := validTargets(sc.Targets); len(valid) > 0 {
				rule.Targets = valid
				haveTargets = true
			}
		}
		if !haveAmount && sc.HasAmount && sc.Amount >= 0 {
			rule.MinAmount = sc.Amount
			haveAmount = true
		}
		if haveTargets && haveAmount {
			break
		}
	}

	if !haveTargets {
		rule.Targets = models.DefaultTargetNames()
	}
	return rule
}

func validTargets(targets []string) []string {
	var out []string
	for _, t := range targets {
		if models.SyncTarget(t).IsValid() {
			out = append(out, t)
		}
	}
	return out
}
