package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	validators := map[string]validator.Func{
		"sync_target":    validateSyncTarget,
		"sync_source":    validateSyncSource,
		"pattern_status": validatePatternStatus,
		"rule_type":      validateRuleType,
		"deal_status":    validateDealStatus,
	}
	for tag, fn := range validators {
		if err := Validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register %s validator: %v", tag, err))
		}
	}
}

func validateSyncTarget(fl validator.FieldLevel) bool {
	return models.SyncTarget(fl.Field().String()).IsValid()
}

func validateSyncSource(fl validator.FieldLevel) bool {
	switch models.SyncSource(fl.Field().String()) {
	case models.SourceCRM, models.SourceSheet, models.SourceManual:
		return true
	default:
		return false
	}
}

func validatePatternStatus(fl validator.FieldLevel) bool {
	return models.PatternStatus(fl.Field().String()).IsValid()
}

func validateRuleType(fl validator.FieldLevel) bool {
	return models.AutomationType(fl.Field().String()) == models.AutomationHighValueDeal
}

func validateDealStatus(fl validator.FieldLevel) bool {
	switch models.DealStatus(fl.Field().String()) {
	case models.DealStatusOpen, models.DealStatusClosed, models.DealStatusPending:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidatePatternStatus validates a PatternStatus string value
func ValidatePatternStatus(value string) error {
	if !models.PatternStatus(value).IsValid() {
		return fmt.Errorf("invalid status: %s (must be 'detected', 'suggested', 'accepted', 'rejected', or 'snoozed')", value)
	}
	return nil
}

// ValidateTargets validates every entry of a target list
func ValidateTargets(targets []string) error {
	for _, t := range targets {
		if !models.SyncTarget(t).IsValid() {
			return fmt.Errorf("invalid target: %s (must be 'chat', 'spreadsheet', 'email', or 'calendar')", t)
		}
	}
	return nil
}
