package alerts

import (
	"strings"

	"jobmate/alerts-service/internal/model"
)

// ValidateRuleInput applies the form-level checks transports run before
// Create. The store itself never rejects input.
//
// A new rule needs at least one keyword or a company, and asking for the email
// channel requires an address.
func ValidateRuleInput(in model.RuleInput) error {
	var kw model.Keywords
	switch {
	case in.Keywords != nil:
		kw = *in.Keywords
	case in.Keyword != nil:
		kw = *in.Keyword
	}
	hasKeyword := false
	for _, k := range kw {
		if strings.TrimSpace(k) != "" {
			hasKeyword = true
			break
		}
	}
	if !hasKeyword && strings.TrimSpace(deref(in.Company)) == "" {
		return &ValidationError{Msg: "an alert needs at least one keyword or a company"}
	}
	return validateEmailChannel(in)
}

// ValidateRulePatch checks an update against the rule it applies to. Criteria
// may be cleared, but an email channel that is on after the patch, switched on
// by it or already on the rule, still needs an address.
func ValidateRulePatch(existing model.AlertRule, patch model.RuleInput) error {
	if patch.Email == nil {
		patch.Email = &existing.Email
	}
	if patch.Channels == nil {
		email, push := existing.Channels.Email, existing.Channels.Push
		patch.Channels = &model.ChannelsInput{Email: &email, Push: &push}
	}
	return validateEmailChannel(patch)
}

func validateEmailChannel(in model.RuleInput) error {
	email := strings.TrimSpace(deref(in.Email))
	if in.Channels != nil && derefBool(in.Channels.Email) && email == "" {
		return &ValidationError{Msg: "email channel requires an email address"}
	}
	if email != "" && !strings.Contains(email, "@") {
		return &ValidationError{Msg: "email address is not valid"}
	}
	return nil
}
