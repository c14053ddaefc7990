// Package model defines shared data structures for the alerts service.
package model

// Channel identifies how a notification was delivered.
type Channel string

const (
	ChannelInApp Channel = "in-app"
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
)

// Channels holds the per-rule opt-in flags. In-app is always on and has no flag.
type Channels struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
}

// AlertRule is a user-defined set of criteria plus channel preferences.
// Unset criteria (empty keywords or empty strings) match every job.
type AlertRule struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Keywords  []string `json:"keywords"`
	Company   string   `json:"company"`
	Location  string   `json:"location"`
	Category  string   `json:"category"`
	Channels  Channels `json:"channels"`
	Email     string   `json:"email"`
	Enabled   bool     `json:"enabled"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

// ChannelsInput is the patch form of Channels. A nil flag reads as false.
type ChannelsInput struct {
	Email *bool `json:"email,omitempty"`
	Push  *bool `json:"push,omitempty"`
}

// RuleInput is the loosely typed shape accepted by create and update.
// Only non-nil fields are applied on update. Keywords may arrive as an array
// or as a comma separated string; the legacy singular "keyword" field is honoured
// when "keywords" is absent.
type RuleInput struct {
	Name     *string        `json:"name,omitempty"`
	Keywords *Keywords      `json:"keywords,omitempty"`
	Keyword  *Keywords      `json:"keyword,omitempty"`
	Company  *string        `json:"company,omitempty"`
	Location *string        `json:"location,omitempty"`
	Category *string        `json:"category,omitempty"`
	Channels *ChannelsInput `json:"channels,omitempty"`
	Email    *string        `json:"email,omitempty"`
	Enabled  *bool          `json:"enabled,omitempty"`
}

// NotificationRecord is one delivered notification. DedupeKey is the
// idempotence key: at most one record per key is ever stored.
type NotificationRecord struct {
	ID        string  `json:"id"`
	RuleID    string  `json:"ruleId"`
	JobID     string  `json:"jobId"`
	Time      string  `json:"time"`
	Channel   Channel `json:"channel"`
	DedupeKey string  `json:"dedupeKey"`
	Message   string  `json:"message"`
}

// Job is a posting supplied by the job source. It is read-only here.
type Job struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"`
}

// Match is a (job, rule) pair produced by one matcher pass.
type Match struct {
	RuleID  string `json:"ruleId"`
	JobID   string `json:"jobId"`
	Message string `json:"message"`
}

// PushPermission mirrors the host's notification permission state.
type PushPermission string

const (
	PermissionDefault     PushPermission = "default"
	PermissionGranted     PushPermission = "granted"
	PermissionDenied      PushPermission = "denied"
	PermissionUnsupported PushPermission = "unsupported"
)

// ParsePushPermission accepts the four known states; anything else is "default".
func ParsePushPermission(s string) PushPermission {
	switch p := PushPermission(s); p {
	case PermissionGranted, PermissionDenied, PermissionUnsupported:
		return p
	}
	return PermissionDefault
}
