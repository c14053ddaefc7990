package alerts

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"jobmate/alerts-service/internal/events"
	"jobmate/alerts-service/internal/model"
	"jobmate/alerts-service/internal/storage"
)

// RuleStore is CRUD over the alert rule document.
//
// The mutex only orders callers inside this process. Two processes sharing a
// backend still race read-then-write, and the last writer wins.
type RuleStore struct {
	mu   sync.Mutex
	port storage.Port
	pub  events.Publisher
	options
}

// NewRuleStore returns a store persisting through port. pub may be nil.
func NewRuleStore(port storage.Port, pub events.Publisher, opts ...Option) *RuleStore {
	if pub == nil {
		pub = events.Discard{}
	}
	return &RuleStore{port: port, pub: pub, options: buildOptions(opts)}
}

// ruleDoc is the stored shape, decoded loosely so legacy documents with
// keywords as a string still normalize.
type ruleDoc struct {
	ID string `json:"id"`
	model.RuleInput
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// List returns every rule, normalized.
func (s *RuleStore) List(ctx context.Context) []model.AlertRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get returns the rule with the given id.
func (s *RuleStore) Get(ctx context.Context, id string) (model.AlertRule, bool) {
	for _, r := range s.List(ctx) {
		if r.ID == id {
			return r, true
		}
	}
	return model.AlertRule{}, false
}

// Create normalizes in, assigns a fresh id and appends it. Enabled defaults to
// true unless explicitly false. No validation happens here.
func (s *RuleStore) Create(ctx context.Context, in model.RuleInput) model.AlertRule {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules := s.load(ctx)
	ts := s.timestamp()
	r := s.normalize(ruleDoc{ID: s.newID(), RuleInput: in}, ts)
	r.UpdatedAt = ts
	rules = append(rules, r)
	if s.save(ctx, rules) {
		s.pub.Publish(events.Event{Kind: events.KindRuleChange, Action: events.ActionCreate, ID: r.ID, Rule: &r})
	}
	return r
}

// Update merges the non-nil fields of patch into the rule and re-normalizes it.
// It reports false when no rule has that id.
func (s *RuleStore) Update(ctx context.Context, id string, patch model.RuleInput) (model.AlertRule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules := s.load(ctx)
	i := indexOf(rules, id)
	if i == -1 {
		return model.AlertRule{}, false
	}

	ts := s.timestamp()
	doc := mergePatch(rules[i], patch)
	updated := s.normalize(doc, ts)
	updated.UpdatedAt = ts
	rules[i] = updated
	if s.save(ctx, rules) {
		s.pub.Publish(events.Event{Kind: events.KindRuleChange, Action: events.ActionUpdate, ID: updated.ID, Rule: &updated})
	}
	return updated, true
}

// Delete removes the rule. Notification records that reference it are kept.
func (s *RuleStore) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules := s.load(ctx)
	i := indexOf(rules, id)
	if i == -1 {
		return false
	}
	next := append(rules[:i:i], rules[i+1:]...)
	if !s.save(ctx, next) {
		return false
	}
	s.pub.Publish(events.Event{Kind: events.KindRuleChange, Action: events.ActionDelete, ID: id})
	return true
}

// Toggle flips Enabled, or forces it to *explicit when explicit is non-nil.
func (s *RuleStore) Toggle(ctx context.Context, id string, explicit *bool) (model.AlertRule, bool) {
	r, ok := s.Get(ctx, id)
	if !ok {
		return model.AlertRule{}, false
	}
	next := !r.Enabled
	if explicit != nil {
		next = *explicit
	}
	return s.Update(ctx, id, model.RuleInput{Enabled: &next})
}

// Enabled returns only the rules with Enabled set, in stored order.
func (s *RuleStore) Enabled(ctx context.Context) []model.AlertRule {
	all := s.List(ctx)
	out := all[:0]
	for _, r := range all {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

func (s *RuleStore) load(ctx context.Context) []model.AlertRule {
	var docs []ruleDoc
	if !storage.GetJSON(ctx, s.port, storage.KeyAlertRules, &docs) {
		return []model.AlertRule{}
	}
	ts := s.timestamp()
	rules := make([]model.AlertRule, 0, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			d.ID = s.newID()
		}
		r := s.normalize(d, ts)
		r.UpdatedAt = firstNonEmpty(d.UpdatedAt, ts)
		rules = append(rules, r)
	}
	return rules
}

func (s *RuleStore) save(ctx context.Context, rules []model.AlertRule) bool {
	if !storage.SetJSON(ctx, s.port, storage.KeyAlertRules, rules) {
		s.log.Warn("persist alert rules failed", zap.Int("count", len(rules)))
		return false
	}
	return true
}

// normalize coerces a loosely typed document into a well-formed rule.
// UpdatedAt is left for the caller.
func (s *RuleStore) normalize(d ruleDoc, ts string) model.AlertRule {
	var kw model.Keywords
	switch {
	case d.Keywords != nil:
		kw = *d.Keywords
	case d.Keyword != nil:
		kw = *d.Keyword
	}
	keywords := make([]string, 0, len(kw))
	for _, k := range kw {
		if k != "" {
			keywords = append(keywords, k)
		}
	}

	email := deref(d.Email)
	var ch model.Channels
	if d.Channels != nil {
		ch.Email = derefBool(d.Channels.Email)
		ch.Push = derefBool(d.Channels.Push)
	}
	ch.Email = ch.Email || email != ""

	company := deref(d.Company)
	name := deref(d.Name)
	if name == "" {
		name = buildRuleName(keywords, company)
	}

	return model.AlertRule{
		ID:        d.ID,
		Name:      name,
		Keywords:  keywords,
		Company:   company,
		Location:  deref(d.Location),
		Category:  deref(d.Category),
		Channels:  ch,
		Email:     email,
		Enabled:   d.Enabled == nil || *d.Enabled,
		CreatedAt: firstNonEmpty(d.CreatedAt, ts),
	}
}

// mergePatch overlays the non-nil fields of patch onto r.
func mergePatch(r model.AlertRule, patch model.RuleInput) ruleDoc {
	kw := model.Keywords(r.Keywords)
	email, push := r.Channels.Email, r.Channels.Push
	doc := ruleDoc{
		ID: r.ID,
		RuleInput: model.RuleInput{
			Name:     &r.Name,
			Keywords: &kw,
			Company:  &r.Company,
			Location: &r.Location,
			Category: &r.Category,
			Channels: &model.ChannelsInput{Email: &email, Push: &push},
			Email:    &r.Email,
			Enabled:  &r.Enabled,
		},
		CreatedAt: r.CreatedAt,
	}

	switch {
	case patch.Keywords != nil:
		doc.Keywords = patch.Keywords
	case patch.Keyword != nil:
		doc.Keywords = patch.Keyword
	}
	if patch.Name != nil {
		doc.Name = patch.Name
	}
	if patch.Company != nil {
		doc.Company = patch.Company
	}
	if patch.Location != nil {
		doc.Location = patch.Location
	}
	if patch.Category != nil {
		doc.Category = patch.Category
	}
	// A channels object replaces the stored one wholesale.
	if patch.Channels != nil {
		doc.Channels = patch.Channels
	}
	if patch.Email != nil {
		doc.Email = patch.Email
	}
	if patch.Enabled != nil {
		doc.Enabled = patch.Enabled
	}
	return doc
}

func buildRuleName(keywords []string, company string) string {
	var parts []string
	if len(keywords) > 0 {
		parts = append(parts, strings.Join(keywords, " / "))
	}
	if company != "" {
		parts = append(parts, "@ "+company)
	}
	if len(parts) == 0 {
		return "New Alert"
	}
	return strings.Join(parts, " ")
}

func indexOf(rules []model.AlertRule, id string) int {
	for i, r := range rules {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefBool(p *bool) bool { return p != nil && *p }

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
