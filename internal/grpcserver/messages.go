package grpcserver

import "jobmate/alerts-service/internal/model"

type ListRulesRequest struct{}

type ListRulesResponse struct {
	Rules []model.AlertRule `json:"rules"`
}

type CreateRuleRequest struct {
	Rule model.RuleInput `json:"rule"`
}

// CreateRuleResponse, UpdateRuleResponse and ToggleRuleResponse carry the
// stored rule after the change.
type CreateRuleResponse struct {
	Rule model.AlertRule `json:"rule"`
}

type UpdateRuleRequest struct {
	ID    string          `json:"id"`
	Patch model.RuleInput `json:"patch"`
}

type UpdateRuleResponse struct {
	Rule model.AlertRule `json:"rule"`
}

type DeleteRuleRequest struct {
	ID string `json:"id"`
}

type DeleteRuleResponse struct {
	Deleted bool `json:"deleted"`
}

// ToggleRuleRequest flips the rule when Enabled is nil and sets it otherwise.
type ToggleRuleRequest struct {
	ID      string `json:"id"`
	Enabled *bool  `json:"enabled,omitempty"`
}

type ToggleRuleResponse struct {
	Rule model.AlertRule `json:"rule"`
}

// ListNotificationsRequest returns the newest Limit records; zero means the
// default page.
type ListNotificationsRequest struct {
	Limit int `json:"limit"`
}

type ListNotificationsResponse struct {
	Notifications []model.NotificationRecord `json:"notifications"`
}

type MatchRequest struct {
	Jobs   []model.Job `json:"jobs"`
	Notify bool        `json:"notify"`
}

type MatchResponse struct {
	Matches []model.Match `json:"matches"`
}
