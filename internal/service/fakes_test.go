package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/events"
	"github.com/spec-kit/agency-admin/internal/repository"
)

var fixedNow = time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)

type idSeq struct{ n int }

func (s *idSeq) next(prefix string) string {
	s.n++
	return fmt.Sprintf("%s-%d", prefix, s.n)
}

func adminSession() domain.Session {
	return domain.Session{
		Actor:     &domain.Actor{ID: "admin-1", Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin},
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
	}
}

func editorSession() domain.Session {
	return domain.Session{
		Actor:     &domain.Actor{ID: "editor-1", Name: "Editor", Email: "editor@example.com", Role: domain.RoleEditor},
		IPAddress: "10.0.0.2",
		UserAgent: "test-agent",
	}
}

func userSession() domain.Session {
	return domain.Session{
		Actor: &domain.Actor{ID: "user-1", Name: "Reader", Email: "reader@example.com", Role: domain.RoleUser},
	}
}

// users

type fakeUserRepo struct {
	ids     idSeq
	items   map[string]*domain.User
	writes  int
	fail    error
	failGet error
}

func newFakeUserRepo(seed ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{items: map[string]*domain.User{}}
	for _, u := range seed {
		r.items[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	if r.fail != nil {
		return r.fail
	}
	r.writes++
	u.ID = r.ids.next("user")
	u.CreatedAt, u.UpdatedAt = fixedNow, fixedNow
	cp := *u
	r.items[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	if r.fail != nil {
		return r.fail
	}
	r.writes++
	if _, ok := r.items[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *u
	r.items[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.writes++
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if r.failGet != nil {
		return nil, r.failGet
	}
	u, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.items {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, int64, error) {
	var out []domain.User
	for _, u := range r.items {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) SetSkipLeadWarning(_ context.Context, id string, skip bool) error {
	r.writes++
	u, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.SkipLeadWarning = skip
	return nil
}

// leads

type fakeLeadRepo struct {
	ids        idSeq
	items      map[string]*domain.Lead
	activities []domain.LeadActivity
	lastFilter repository.LeadFilter
	fail       error
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{items: map[string]*domain.Lead{}}
}

func (r *fakeLeadRepo) Create(_ context.Context, l *domain.Lead) error {
	if r.fail != nil {
		return r.fail
	}
	l.ID = r.ids.next("lead")
	l.CreatedAt, l.UpdatedAt = fixedNow, fixedNow
	cp := *l
	r.items[l.ID] = &cp
	return nil
}

func (r *fakeLeadRepo) Update(_ context.Context, l *domain.Lead) error {
	if r.fail != nil {
		return r.fail
	}
	if _, ok := r.items[l.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *l
	r.items[l.ID] = &cp
	return nil
}

func (r *fakeLeadRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func (r *fakeLeadRepo) GetByID(_ context.Context, id string) (*domain.Lead, error) {
	l, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLeadRepo) List(_ context.Context, filter repository.LeadFilter) ([]domain.Lead, int64, error) {
	r.lastFilter = filter
	var out []domain.Lead
	for _, l := range r.items {
		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeLeadRepo) count(key func(*domain.Lead) string) []domain.CountEntry {
	counts := map[string]int64{}
	for _, l := range r.items {
		counts[key(l)]++
	}
	var out []domain.CountEntry
	for k, v := range counts {
		out = append(out, domain.CountEntry{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (r *fakeLeadRepo) CountByStatus(context.Context) ([]domain.CountEntry, error) {
	return r.count(func(l *domain.Lead) string { return string(l.Status) }), nil
}

func (r *fakeLeadRepo) CountBySource(context.Context) ([]domain.CountEntry, error) {
	return r.count(func(l *domain.Lead) string { return string(l.Source) }), nil
}

func (r *fakeLeadRepo) AddActivity(_ context.Context, a *domain.LeadActivity) error {
	a.ID = r.ids.next("activity")
	a.CreatedAt = fixedNow
	r.activities = append(r.activities, *a)
	return nil
}

func (r *fakeLeadRepo) ListActivities(_ context.Context, leadID string, _ int) ([]domain.LeadActivity, error) {
	var out []domain.LeadActivity
	for i := len(r.activities) - 1; i >= 0; i-- {
		if r.activities[i].LeadID == leadID {
			out = append(out, r.activities[i])
		}
	}
	return out, nil
}

// content

type fakeContentRepo struct {
	ids      idSeq
	items    map[string]*domain.Content
	lists    int
	fail     error
	failOnce error
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{items: map[string]*domain.Content{}}
}

func (r *fakeContentRepo) Create(_ context.Context, c *domain.Content) error {
	if err := r.failOnce; err != nil {
		r.failOnce = nil
		return err
	}
	if r.fail != nil {
		return r.fail
	}
	c.ID = r.ids.next("content")
	c.CreatedAt, c.UpdatedAt = fixedNow, fixedNow
	cp := *c
	r.items[c.ID] = &cp
	return nil
}

func (r *fakeContentRepo) Update(_ context.Context, c *domain.Content) error {
	if r.fail != nil {
		return r.fail
	}
	existing, ok := r.items[c.ID]
	if !ok || existing.Kind != c.Kind {
		return pgx.ErrNoRows
	}
	cp := *c
	r.items[c.ID] = &cp
	return nil
}

func (r *fakeContentRepo) Delete(_ context.Context, kind domain.ContentKind, id string) error {
	existing, ok := r.items[id]
	if !ok || existing.Kind != kind {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func (r *fakeContentRepo) GetByID(_ context.Context, kind domain.ContentKind, id string) (*domain.Content, error) {
	c, ok := r.items[id]
	if !ok || c.Kind != kind {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (r *fakeContentRepo) GetBySlug(_ context.Context, kind domain.ContentKind, slug string) (*domain.Content, error) {
	for _, c := range r.items {
		if c.Kind == kind && c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeContentRepo) SlugExists(_ context.Context, kind domain.ContentKind, slug, excludeID string) (bool, error) {
	for _, c := range r.items {
		if c.Kind == kind && c.Slug == slug && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeContentRepo) List(_ context.Context, filter repository.ContentFilter) ([]domain.Content, int64, error) {
	r.lists++
	var out []domain.Content
	for _, c := range r.items {
		if c.Kind != filter.Kind {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

// audit

type fakeAuditRepo struct {
	ids     idSeq
	entries []domain.AuditLog
	fail    error
	purged  time.Time
}

func (r *fakeAuditRepo) Create(_ context.Context, e *domain.AuditLog) error {
	if r.fail != nil {
		return r.fail
	}
	e.ID = r.ids.next("audit")
	e.CreatedAt = fixedNow
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, filter repository.AuditFilter) ([]domain.AuditLog, int64, error) {
	var out []domain.AuditLog
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if filter.Action != nil && e.Action != *filter.Action {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (r *fakeAuditRepo) Count(_ context.Context, since *time.Time) (int64, error) {
	var n int64
	for _, e := range r.entries {
		if since == nil || !e.CreatedAt.Before(*since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeAuditRepo) TopActions(context.Context, int) ([]domain.CountEntry, error) {
	return nil, nil
}

func (r *fakeAuditRepo) TopResources(context.Context, int) ([]domain.CountEntry, error) {
	return nil, nil
}

func (r *fakeAuditRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.purged = cutoff
	return 3, nil
}

func (r *fakeAuditRepo) actions() []domain.AuditAction {
	out := make([]domain.AuditAction, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Action
	}
	return out
}

// notifications

type fakeNotificationRepo struct {
	ids   idSeq
	items map[string]*domain.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{items: map[string]*domain.Notification{}}
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	n.ID = r.ids.next("notification")
	n.CreatedAt = fixedNow
	cp := *n
	r.items[n.ID] = &cp
	return nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID string, limit int, unreadOnly bool) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range r.items {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, item := range r.items {
		if item.UserID == userID && !item.Read {
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	n, ok := r.items[id]
	if !ok || n.UserID != userID {
		return pgx.ErrNoRows
	}
	n.Read = true
	return nil
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	var changed int64
	for _, n := range r.items {
		if n.UserID == userID && !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}

func (r *fakeNotificationRepo) Delete(_ context.Context, id, userID string) error {
	n, ok := r.items[id]
	if !ok || n.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

// api keys

type fakeAPIKeyRepo struct {
	ids   idSeq
	items map[string]*domain.APIKey
	usage int
}

func newFakeAPIKeyRepo() *fakeAPIKeyRepo {
	return &fakeAPIKeyRepo{items: map[string]*domain.APIKey{}}
}

func (r *fakeAPIKeyRepo) Create(_ context.Context, k *domain.APIKey) error {
	k.ID = r.ids.next("key")
	k.CreatedAt, k.UpdatedAt = fixedNow, fixedNow
	cp := *k
	r.items[k.ID] = &cp
	return nil
}

func (r *fakeAPIKeyRepo) Update(_ context.Context, k *domain.APIKey) error {
	if _, ok := r.items[k.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *k
	r.items[k.ID] = &cp
	return nil
}

func (r *fakeAPIKeyRepo) Rotate(_ context.Context, id, keyHash, keyPrefix string) error {
	k, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	k.KeyHash, k.KeyPrefix, k.UsageCount, k.LastUsedAt = keyHash, keyPrefix, 0, nil
	return nil
}

func (r *fakeAPIKeyRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func (r *fakeAPIKeyRepo) GetByID(_ context.Context, id string) (*domain.APIKey, error) {
	k, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *k
	return &cp, nil
}

func (r *fakeAPIKeyRepo) GetByHash(_ context.Context, hash string) (*domain.APIKey, error) {
	for _, k := range r.items {
		if k.KeyHash == hash {
			cp := *k
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAPIKeyRepo) ListByCreator(_ context.Context, userID string) ([]domain.APIKey, error) {
	var out []domain.APIKey
	for _, k := range r.items {
		if k.CreatedBy == userID {
			out = append(out, *k)
		}
	}
	return out, nil
}

func (r *fakeAPIKeyRepo) RecordUsage(_ context.Context, id string, at time.Time) error {
	k, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	r.usage++
	k.UsageCount++
	k.LastUsedAt = &at
	return nil
}

// email templates

type fakeTemplateRepo struct {
	ids   idSeq
	items map[string]*domain.EmailTemplate
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{items: map[string]*domain.EmailTemplate{}}
}

func (r *fakeTemplateRepo) Create(_ context.Context, t *domain.EmailTemplate) error {
	t.ID = r.ids.next("template")
	cp := *t
	r.items[t.ID] = &cp
	return nil
}

func (r *fakeTemplateRepo) Update(_ context.Context, t *domain.EmailTemplate) error {
	if _, ok := r.items[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *t
	r.items[t.ID] = &cp
	return nil
}

func (r *fakeTemplateRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func (r *fakeTemplateRepo) GetByID(_ context.Context, id string) (*domain.EmailTemplate, error) {
	t, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTemplateRepo) GetActiveByName(_ context.Context, name string) (*domain.EmailTemplate, error) {
	for _, t := range r.items {
		if t.Name == name && t.IsActive {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTemplateRepo) List(context.Context, *domain.EmailTemplateType) ([]domain.EmailTemplate, error) {
	var out []domain.EmailTemplate
	for _, t := range r.items {
		out = append(out, *t)
	}
	return out, nil
}

// webhooks

type fakeWebhookRepo struct {
	ids  idSeq
	subs map[string]*domain.WebhookSubscription
	logs []domain.WebhookLog
}

func newFakeWebhookRepo() *fakeWebhookRepo {
	return &fakeWebhookRepo{subs: map[string]*domain.WebhookSubscription{}}
}

func (r *fakeWebhookRepo) CreateSubscription(_ context.Context, s *domain.WebhookSubscription) error {
	s.ID = r.ids.next("webhook")
	cp := *s
	r.subs[s.ID] = &cp
	return nil
}

func (r *fakeWebhookRepo) UpdateSubscription(_ context.Context, s *domain.WebhookSubscription) error {
	existing, ok := r.subs[s.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	cp := *s
	cp.Secret = existing.Secret
	r.subs[s.ID] = &cp
	return nil
}

func (r *fakeWebhookRepo) UpdateSecret(_ context.Context, id, secret string) error {
	s, ok := r.subs[id]
	if !ok {
		return pgx.ErrNoRows
	}
	s.Secret = secret
	return nil
}

func (r *fakeWebhookRepo) DeleteSubscription(_ context.Context, id string) error {
	if _, ok := r.subs[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.subs, id)
	return nil
}

func (r *fakeWebhookRepo) GetSubscription(_ context.Context, id string) (*domain.WebhookSubscription, error) {
	s, ok := r.subs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (r *fakeWebhookRepo) ListSubscriptions(context.Context) ([]domain.WebhookSubscription, error) {
	var out []domain.WebhookSubscription
	for _, s := range r.subs {
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeWebhookRepo) ListActiveForEvent(_ context.Context, event domain.WebhookEvent) ([]domain.WebhookSubscription, error) {
	var out []domain.WebhookSubscription
	for _, s := range r.subs {
		if s.IsActive && s.Subscribes(event) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeWebhookRepo) CreateLog(_ context.Context, l *domain.WebhookLog) error {
	l.ID = r.ids.next("log")
	r.logs = append(r.logs, *l)
	return nil
}

func (r *fakeWebhookRepo) ListLogs(_ context.Context, subscriptionID string, _ int) ([]domain.WebhookLog, error) {
	var out []domain.WebhookLog
	for _, l := range r.logs {
		if l.SubscriptionID == subscriptionID {
			out = append(out, l)
		}
	}
	return out, nil
}

// settings

type fakeSettingsRepo struct {
	row *domain.SiteSettings
}

func (r *fakeSettingsRepo) Get(context.Context) (*domain.SiteSettings, error) {
	if r.row == nil {
		r.row = &domain.SiteSettings{ID: "default", SiteName: "Andorinha Digital", SocialLinks: map[string]string{}}
	}
	cp := *r.row
	return &cp, nil
}

func (r *fakeSettingsRepo) Update(_ context.Context, s *domain.SiteSettings) error {
	cp := *s
	r.row = &cp
	return nil
}

// password resets

type fakeResetRepo struct {
	ids    idSeq
	tokens map[string]*repository.PasswordResetToken
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: map[string]*repository.PasswordResetToken{}}
}

func (r *fakeResetRepo) Create(_ context.Context, t *repository.PasswordResetToken) error {
	t.ID = r.ids.next("reset")
	cp := *t
	r.tokens[t.ID] = &cp
	return nil
}

func (r *fakeResetRepo) GetByHash(_ context.Context, hash string) (*repository.PasswordResetToken, error) {
	for _, t := range r.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeResetRepo) MarkUsed(_ context.Context, id string) error {
	t, ok := r.tokens[id]
	if !ok || t.UsedAt != nil {
		return pgx.ErrNoRows
	}
	now := fixedNow
	t.UsedAt = &now
	return nil
}

// side effects

type sentEmail struct {
	Kind events.EmailKind
	To   string
	Vars map[string]string
}

type sentWebhook struct {
	Event domain.WebhookEvent
	Data  map[string]any
}

type recordingEffects struct {
	emails        []sentEmail
	webhooks      []sentWebhook
	notifications []events.NotificationPayload
}

func (r *recordingEffects) Email(_ context.Context, kind events.EmailKind, to string, vars map[string]string) {
	r.emails = append(r.emails, sentEmail{Kind: kind, To: to, Vars: vars})
}

func (r *recordingEffects) Webhook(_ context.Context, event domain.WebhookEvent, data map[string]any) {
	r.webhooks = append(r.webhooks, sentWebhook{Event: event, Data: data})
}

func (r *recordingEffects) Notify(_ context.Context, payload events.NotificationPayload) {
	r.notifications = append(r.notifications, payload)
}

func (r *recordingEffects) webhookEvents() []domain.WebhookEvent {
	out := make([]domain.WebhookEvent, len(r.webhooks))
	for i, w := range r.webhooks {
		out[i] = w.Event
	}
	return out
}

type recordingCache struct {
	paths []string
}

func (c *recordingCache) MarkStale(_ context.Context, paths ...string) {
	c.paths = append(c.paths, paths...)
}

type memoryPublicCache struct {
	entries map[string][]byte
	hits    int
}

func (c *memoryPublicCache) Get(_ context.Context, path, variant string) ([]byte, bool) {
	body, ok := c.entries[path+"?"+variant]
	if ok {
		c.hits++
	}
	return body, ok
}

func (c *memoryPublicCache) Set(_ context.Context, path, variant string, body []byte) {
	if c.entries == nil {
		c.entries = map[string][]byte{}
	}
	c.entries[path+"?"+variant] = body
}

func newTestAudit(repo *fakeAuditRepo) *AuditService {
	a := NewAuditService(repo, zap.NewNop(), nil, 90)
	a.now = func() time.Time { return fixedNow }
	return a
}

// media

type fakeMediaRepo struct {
	ids   idSeq
	items map[string]*domain.Media
	fail  error
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{items: map[string]*domain.Media{}}
}

func (r *fakeMediaRepo) Create(_ context.Context, m *domain.Media) error {
	if r.fail != nil {
		return r.fail
	}
	m.ID = r.ids.next("media")
	m.CreatedAt, m.UpdatedAt = fixedNow, fixedNow
	cp := *m
	r.items[m.ID] = &cp
	return nil
}

func (r *fakeMediaRepo) Update(_ context.Context, m *domain.Media) error {
	if r.fail != nil {
		return r.fail
	}
	if _, ok := r.items[m.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *m
	r.items[m.ID] = &cp
	return nil
}

func (r *fakeMediaRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func (r *fakeMediaRepo) DeleteMany(_ context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := r.items[id]; ok {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeMediaRepo) GetByID(_ context.Context, id string) (*domain.Media, error) {
	m, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMediaRepo) List(_ context.Context, filter repository.MediaFilter) ([]domain.Media, int64, error) {
	var out []domain.Media
	for _, m := range r.items {
		if filter.Type != nil && m.Type != *filter.Type {
			continue
		}
		if filter.RootOnly && m.Folder != nil {
			continue
		}
		if filter.Folder != nil && deref(m.Folder) != *filter.Folder {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeMediaRepo) CountByType(context.Context) ([]domain.CountEntry, error) {
	counts := map[string]int64{}
	for _, m := range r.items {
		counts[string(m.Type)]++
	}
	var out []domain.CountEntry
	for k, v := range counts {
		out = append(out, domain.CountEntry{Key: k, Count: v})
	}
	return out, nil
}

func (r *fakeMediaRepo) TotalSize(context.Context) (int64, error) {
	var total int64
	for _, m := range r.items {
		total += m.Size
	}
	return total, nil
}

func (r *fakeMediaRepo) Folders(context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	for _, m := range r.items {
		if m.Folder == nil {
			continue
		}
		if _, dup := seen[*m.Folder]; !dup {
			seen[*m.Folder] = struct{}{}
			out = append(out, *m.Folder)
		}
	}
	sort.Strings(out)
	return out, nil
}

// redirects

type fakeRedirectRepo struct {
	ids      idSeq
	items    map[string]*domain.Redirect
	fail     error
	failHits error
}

func newFakeRedirectRepo() *fakeRedirectRepo {
	return &fakeRedirectRepo{items: map[string]*domain.Redirect{}}
}

func (r *fakeRedirectRepo) Create(_ context.Context, rd *domain.Redirect) error {
	if r.fail != nil {
		return r.fail
	}
	rd.ID = r.ids.next("redirect")
	rd.CreatedAt, rd.UpdatedAt = fixedNow, fixedNow
	cp := *rd
	r.items[rd.ID] = &cp
	return nil
}

func (r *fakeRedirectRepo) Update(_ context.Context, rd *domain.Redirect) error {
	if r.fail != nil {
		return r.fail
	}
	if _, ok := r.items[rd.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *rd
	r.items[rd.ID] = &cp
	return nil
}

func (r *fakeRedirectRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func (r *fakeRedirectRepo) GetByID(_ context.Context, id string) (*domain.Redirect, error) {
	rd, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *rd
	return &cp, nil
}

func (r *fakeRedirectRepo) GetActiveBySource(_ context.Context, source string) (*domain.Redirect, error) {
	for _, rd := range r.items {
		if rd.Source == source && rd.IsActive {
			cp := *rd
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRedirectRepo) SourceExists(_ context.Context, source, excludeID string) (bool, error) {
	for _, rd := range r.items {
		if rd.Source == source && rd.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRedirectRepo) List(_ context.Context, filter repository.RedirectFilter) ([]domain.Redirect, int64, error) {
	var out []domain.Redirect
	for _, rd := range r.items {
		if filter.IsActive != nil && rd.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, *rd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeRedirectRepo) Stats(context.Context) (domain.RedirectStats, error) {
	var stats domain.RedirectStats
	for _, rd := range r.items {
		stats.Total++
		if rd.IsActive {
			stats.Active++
		}
		stats.TotalHits += rd.HitCount
	}
	stats.Inactive = stats.Total - stats.Active
	return stats, nil
}

func (r *fakeRedirectRepo) IncrementHits(_ context.Context, source string) error {
	if r.failHits != nil {
		return r.failHits
	}
	for _, rd := range r.items {
		if rd.Source == source {
			rd.HitCount++
			return nil
		}
	}
	return pgx.ErrNoRows
}
