package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/repository"
	apperrors "github.com/spec-kit/agency-admin/pkg/util"
)

const (
	leadsPath      = "/admin/crm/leads"
	exportRowLimit = 10000
)

// LeadService is the CRM entry point for leads.
type LeadService struct {
	leads   repository.LeadRepository
	users   repository.UserRepository
	audit   *AuditService
	effects SideEffects
	cache   CacheInvalidator
	logger  *zap.Logger
	now     func() time.Time
}

// LeadDependencies bundles collaborators for the lead service.
type LeadDependencies struct {
	LeadRepo repository.LeadRepository
	UserRepo repository.UserRepository
	Audit    *AuditService
	Effects  SideEffects
	Cache    CacheInvalidator
	Logger   *zap.Logger
}

// LeadInput is the payload for creating a lead. Empty enums take defaults.
type LeadInput struct {
	Name            string
	Email           string
	Phone           *string
	Company         *string
	Position        *string
	Website         *string
	Status          domain.LeadStatus
	Source          domain.LeadSource
	Priority        domain.LeadPriority
	Budget          *float64
	Timeline        *string
	Notes           *string
	Tags            []string
	AssigneeID      *string
	LastContactedAt *time.Time
}

// LeadUpdateInput carries the fields to change; nil means unchanged and an
// empty string clears an optional field.
type LeadUpdateInput struct {
	Name            *string
	Email           *string
	Phone           *string
	Company         *string
	Position        *string
	Website         *string
	Status          *domain.LeadStatus
	Source          *domain.LeadSource
	Priority        *domain.LeadPriority
	Score           *int
	Budget          *float64
	Timeline        *string
	Notes           *string
	Tags            []string
	AssigneeID      *string
	LastContactedAt *time.Time
}

// QuickCreateOptions drives the missing-fields confirmation of the quick-create flow.
type QuickCreateOptions struct {
	Confirmed     bool
	DontShowAgain bool
}

// LeadListInput filters the lead listing.
type LeadListInput struct {
	Status     *domain.LeadStatus
	Source     *domain.LeadSource
	Priority   *domain.LeadPriority
	AssigneeID *string
	Search     string
	MinScore   *int
	MaxScore   *int
	Tags       []string
	Page       int
	Limit      int
}

// NewLeadService constructs the service.
func NewLeadService(deps LeadDependencies) *LeadService {
	cache := deps.Cache
	if cache == nil {
		cache = noopCache{}
	}
	return &LeadService{
		leads:   deps.LeadRepo,
		users:   deps.UserRepo,
		audit:   deps.Audit,
		effects: deps.Effects,
		cache:   cache,
		logger:  deps.Logger,
		now:     time.Now,
	}
}

// MissingLeadFields lists the labels of the contact fields left blank.
func MissingLeadFields(input LeadInput) []string {
	missing := []string{}
	checks := []struct {
		label string
		value string
	}{
		{"Nome", input.Name},
		{"Email", input.Email},
		{"Telefone", deref(input.Phone)},
		{"Empresa", deref(input.Company)},
	}
	for _, c := range checks {
		if strings.TrimSpace(c.value) == "" {
			missing = append(missing, c.label)
		}
	}
	return missing
}

// QuickCreate creates a lead from the admin shortcut. When contact fields are
// missing the caller must confirm, unless the actor opted out of the warning.
func (s *LeadService) QuickCreate(ctx context.Context, session domain.Session, input LeadInput, opts QuickCreateOptions) (*domain.Lead, error) {
	actor, err := requirePermission(session, domain.PermLeadCreate)
	if err != nil {
		return nil, err
	}

	if missing := MissingLeadFields(input); len(missing) > 0 && !opts.Confirmed {
		skip := false
		if user, err := s.users.GetByID(ctx, actor.ID); err == nil {
			skip = user.SkipLeadWarning
		} else if !apperrors.IsNotFound(err) {
			return nil, storeError(s.logger, "load", "user", err)
		}
		if !skip {
			return nil, apperrors.NewConfirmationRequired("some contact fields are empty",
				map[string]any{"missingFields": missing})
		}
	}

	if opts.Confirmed && opts.DontShowAgain {
		if err := s.users.SetSkipLeadWarning(ctx, actor.ID, true); err != nil {
			s.logger.Warn("failed to persist lead warning preference",
				zap.String("user_id", actor.ID), zap.Error(err))
		}
	}

	return s.Create(ctx, session, input)
}

// Create validates and stores a new lead, scoring it on the way in.
func (s *LeadService) Create(ctx context.Context, session domain.Session, input LeadInput) (*domain.Lead, error) {
	actor, err := requirePermission(session, domain.PermLeadCreate)
	if err != nil {
		return nil, err
	}

	if input.Status == "" {
		input.Status = domain.LeadStatusNew
	}
	if input.Source == "" {
		input.Source = domain.LeadSourceWebsite
	}
	if input.Priority == "" {
		input.Priority = domain.LeadPriorityMedium
	}

	lead := &domain.Lead{
		Name:            strings.TrimSpace(input.Name),
		Email:           strings.TrimSpace(input.Email),
		Phone:           optional(input.Phone),
		Company:         optional(input.Company),
		Position:        optional(input.Position),
		Website:         optional(input.Website),
		Status:          input.Status,
		Source:          input.Source,
		Priority:        input.Priority,
		Budget:          input.Budget,
		Timeline:        optional(input.Timeline),
		Notes:           optional(input.Notes),
		Tags:            cleanTags(input.Tags),
		AssigneeID:      optional(input.AssigneeID),
		LastContactedAt: input.LastContactedAt,
	}
	if err := validateLead(lead); err != nil {
		return nil, err
	}
	if err := s.ensureAssignee(ctx, lead.AssigneeID); err != nil {
		return nil, err
	}
	if lead.Status == domain.LeadStatusWon {
		now := s.now()
		lead.ConvertedAt = &now
	}
	lead.Score = ScoreLead(lead)

	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, storeError(s.logger, "create", "lead", err)
	}

	s.addActivity(ctx, lead.ID, actor.ID, domain.LeadActivityCreated, fmt.Sprintf("Lead %s foi criado", lead.Name))
	s.cache.MarkStale(ctx, leadsPath)
	s.audit.Track(ctx, session, domain.AuditActionCreate, domain.AuditResourceLead, lead.ID,
		fmt.Sprintf("Criado lead %s (%s)", lead.Name, lead.Email))
	s.effects.Webhook(ctx, domain.WebhookLeadCreated, leadWebhookData(lead))
	if lead.AssigneeID != nil && *lead.AssigneeID != actor.ID {
		s.effects.Notify(ctx, LeadAssignedNotice(*lead.AssigneeID, lead))
	}
	return lead, nil
}

// Update applies a partial change. Any status may follow any other.
func (s *LeadService) Update(ctx context.Context, session domain.Session, id string, input LeadUpdateInput) (*domain.Lead, error) {
	actor, err := requirePermission(session, domain.PermLeadUpdate)
	if err != nil {
		return nil, err
	}
	if input.Score != nil && (*input.Score < 0 || *input.Score > 100) {
		return nil, apperrors.NewValidationError("invalid payload",
			map[string]any{"fields": map[string]any{"score": "must be between 0 and 100"}})
	}

	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "load", "lead", err)
	}
	previousStatus := lead.Status
	previousAssignee := deref(lead.AssigneeID)

	scored := applyLeadUpdate(lead, input)
	if err := validateLead(lead); err != nil {
		return nil, err
	}
	if input.AssigneeID != nil {
		if err := s.ensureAssignee(ctx, lead.AssigneeID); err != nil {
			return nil, err
		}
	}
	if lead.Status == domain.LeadStatusWon && lead.ConvertedAt == nil {
		now := s.now()
		lead.ConvertedAt = &now
	}
	switch {
	case input.Score != nil:
		lead.Score = *input.Score
	case scored:
		lead.Score = ScoreLead(lead)
	}

	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, storeError(s.logger, "update", "lead", err)
	}

	if lead.Status != previousStatus {
		s.addActivity(ctx, lead.ID, actor.ID, domain.LeadActivityStatusChange,
			fmt.Sprintf("Status alterado de %s para %s", previousStatus, lead.Status))
	}
	assignee := deref(lead.AssigneeID)
	if assignee != previousAssignee && assignee != "" {
		s.addActivity(ctx, lead.ID, actor.ID, domain.LeadActivityAssigned, "Lead atribuído a um novo responsável")
		if assignee != actor.ID {
			s.effects.Notify(ctx, LeadAssignedNotice(assignee, lead))
		}
	}

	s.cache.MarkStale(ctx, leadsPath, leadsPath+"/"+lead.ID)
	s.audit.Track(ctx, session, domain.AuditActionUpdate, domain.AuditResourceLead, lead.ID,
		fmt.Sprintf("Atualizado lead %s", lead.Name))
	return lead, nil
}

// Delete permanently removes a lead. ADMIN only.
func (s *LeadService) Delete(ctx context.Context, session domain.Session, id string) error {
	if _, err := requireAdmin(session); err != nil {
		return err
	}
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return storeError(s.logger, "load", "lead", err)
	}
	if err := s.leads.Delete(ctx, id); err != nil {
		return storeError(s.logger, "delete", "lead", err)
	}

	s.cache.MarkStale(ctx, leadsPath)
	s.audit.Track(ctx, session, domain.AuditActionDelete, domain.AuditResourceLead, id,
		fmt.Sprintf("Deletado lead %s (%s)", lead.Name, lead.Email))
	return nil
}

// Get returns one lead.
func (s *LeadService) Get(ctx context.Context, session domain.Session, id string) (*domain.Lead, error) {
	if _, err := requirePermission(session, domain.PermLeadRead); err != nil {
		return nil, err
	}
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "load", "lead", err)
	}
	return lead, nil
}

// List pages through leads ordered by priority, score and recency.
func (s *LeadService) List(ctx context.Context, session domain.Session, input LeadListInput) (*domain.Page[domain.Lead], error) {
	if _, err := requirePermission(session, domain.PermLeadRead); err != nil {
		return nil, err
	}
	page, limit := normalizePage(input.Page, input.Limit, defaultPageSize)

	filter := leadFilter(input)
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	items, total, err := s.leads.List(ctx, filter)
	if err != nil {
		return nil, storeError(s.logger, "list", "leads", err)
	}
	return newPage(items, page, limit, total), nil
}

// RecalculateScore recomputes a lead's score from its current data.
func (s *LeadService) RecalculateScore(ctx context.Context, session domain.Session, id string) (*domain.Lead, error) {
	actor, err := requirePermission(session, domain.PermLeadUpdate)
	if err != nil {
		return nil, err
	}
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, "load", "lead", err)
	}

	previous := lead.Score
	lead.Score = ScoreLead(lead)
	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, storeError(s.logger, "update", "lead", err)
	}

	if previous != lead.Score {
		s.addActivity(ctx, lead.ID, actor.ID, domain.LeadActivityScoreRecalced,
			fmt.Sprintf("Score recalculado de %d para %d", previous, lead.Score))
	}
	s.cache.MarkStale(ctx, leadsPath, leadsPath+"/"+lead.ID)
	s.audit.Track(ctx, session, domain.AuditActionUpdate, domain.AuditResourceLead, lead.ID,
		fmt.Sprintf("Score do lead %s recalculado: %d", lead.Name, lead.Score))
	return lead, nil
}

// Stats aggregates the funnel figures.
func (s *LeadService) Stats(ctx context.Context, session domain.Session) (*domain.LeadStats, error) {
	if _, err := requirePermission(session, domain.PermLeadRead); err != nil {
		return nil, err
	}

	byStatus, err := s.leads.CountByStatus(ctx)
	if err != nil {
		return nil, storeError(s.logger, "aggregate", "leads", err)
	}
	bySource, err := s.leads.CountBySource(ctx)
	if err != nil {
		return nil, storeError(s.logger, "aggregate", "leads", err)
	}

	stats := &domain.LeadStats{BySource: bySource, ByStatus: byStatus}
	for _, entry := range byStatus {
		stats.Total += entry.Count
		switch domain.LeadStatus(entry.Key) {
		case domain.LeadStatusNew:
			stats.New = entry.Count
		case domain.LeadStatusQualified:
			stats.Qualified = entry.Count
		case domain.LeadStatusWon:
			stats.Won = entry.Count
		case domain.LeadStatusLost:
			stats.Lost = entry.Count
		}
	}
	if stats.Total > 0 {
		rate := float64(stats.Won) / float64(stats.Total) * 100
		stats.ConversionRate = math.Round(rate*100) / 100
	}
	return stats, nil
}

// Export renders the filtered leads as an XLSX workbook.
func (s *LeadService) Export(ctx context.Context, session domain.Session, input LeadListInput) ([]byte, error) {
	actor, err := requirePermission(session, domain.PermLeadRead)
	if err != nil {
		return nil, err
	}

	filter := leadFilter(input)
	filter.Limit = exportRowLimit
	items, _, err := s.leads.List(ctx, filter)
	if err != nil {
		return nil, storeError(s.logger, "list", "leads", err)
	}

	data, err := writeLeadWorkbook(items)
	if err != nil {
		s.effects.Notify(ctx, ErrorNotice(actor.ID, "Falha na exportação", "Não foi possível gerar a planilha de leads."))
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("leads exported", zap.String("user_id", actor.ID), zap.Int("rows", len(items)))
	return data, nil
}

// Activities returns the timeline of a lead, newest first.
func (s *LeadService) Activities(ctx context.Context, session domain.Session, leadID string) ([]domain.LeadActivity, error) {
	if _, err := requirePermission(session, domain.PermLeadRead); err != nil {
		return nil, err
	}
	if _, err := s.leads.GetByID(ctx, leadID); err != nil {
		return nil, storeError(s.logger, "load", "lead", err)
	}
	items, err := s.leads.ListActivities(ctx, leadID, 50)
	if err != nil {
		return nil, storeError(s.logger, "list", "lead activities", err)
	}
	if items == nil {
		items = []domain.LeadActivity{}
	}
	return items, nil
}

func (s *LeadService) ensureAssignee(ctx context.Context, assigneeID *string) error {
	if assigneeID == nil {
		return nil
	}
	if _, err := s.users.GetByID(ctx, *assigneeID); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewValidationError("invalid payload",
				map[string]any{"fields": map[string]any{"assigneeId": "user does not exist"}})
		}
		return storeError(s.logger, "load", "user", err)
	}
	return nil
}

// addActivity writes a timeline entry; failures are logged only.
func (s *LeadService) addActivity(ctx context.Context, leadID, userID string, kind domain.LeadActivityType, description string) {
	activity := &domain.LeadActivity{
		LeadID:      leadID,
		Type:        kind,
		Description: description,
		UserID:      &userID,
	}
	if err := s.leads.AddActivity(ctx, activity); err != nil {
		s.logger.Warn("failed to record lead activity",
			zap.String("lead_id", leadID),
			zap.String("type", string(kind)),
			zap.Error(err))
	}
}

func validateLead(lead *domain.Lead) error {
	var v validator
	if v.required("name", lead.Name) {
		v.length("name", lead.Name, 2, 200)
	}
	v.email("email", lead.Email)
	v.url("website", deref(lead.Website))
	if !lead.Status.Valid() {
		v.add("status", "is invalid")
	}
	if !lead.Source.Valid() {
		v.add("source", "is invalid")
	}
	if !lead.Priority.Valid() {
		v.add("priority", "is invalid")
	}
	if lead.Budget != nil && *lead.Budget <= 0 {
		v.add("budget", "must be positive")
	}
	return v.err()
}

// applyLeadUpdate copies non-nil fields onto lead and reports whether any
// field that feeds the score changed.
func applyLeadUpdate(lead *domain.Lead, in LeadUpdateInput) bool {
	scored := false
	setString := func(dst **string, src *string) {
		if src == nil {
			return
		}
		*dst = optional(src)
		scored = true
	}

	if in.Name != nil {
		lead.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		lead.Email = strings.TrimSpace(*in.Email)
		scored = true
	}
	setString(&lead.Phone, in.Phone)
	setString(&lead.Company, in.Company)
	setString(&lead.Position, in.Position)
	setString(&lead.Website, in.Website)
	setString(&lead.Timeline, in.Timeline)
	setString(&lead.Notes, in.Notes)

	if in.Status != nil {
		lead.Status = *in.Status
	}
	if in.Source != nil {
		lead.Source = *in.Source
		scored = true
	}
	if in.Priority != nil {
		lead.Priority = *in.Priority
	}
	if in.Budget != nil {
		lead.Budget = in.Budget
		scored = true
	}
	if in.Tags != nil {
		lead.Tags = cleanTags(in.Tags)
		scored = true
	}
	if in.AssigneeID != nil {
		lead.AssigneeID = optional(in.AssigneeID)
	}
	if in.LastContactedAt != nil {
		lead.LastContactedAt = in.LastContactedAt
		scored = true
	}
	return scored
}

func leadFilter(input LeadListInput) repository.LeadFilter {
	return repository.LeadFilter{
		Status:     input.Status,
		Source:     input.Source,
		Priority:   input.Priority,
		AssigneeID: input.AssigneeID,
		Search:     strings.TrimSpace(input.Search),
		MinScore:   input.MinScore,
		MaxScore:   input.MaxScore,
		Tags:       cleanTags(input.Tags),
	}
}

func leadWebhookData(lead *domain.Lead) map[string]any {
	return map[string]any{
		"leadId":  lead.ID,
		"name":    lead.Name,
		"email":   lead.Email,
		"company": deref(lead.Company),
		"source":  string(lead.Source),
		"score":   lead.Score,
	}
}
