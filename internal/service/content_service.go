package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/repository"
	apperrors "github.com/spec-kit/agency-admin/pkg/util"
)

// PublicCache stores rendered public listings per logical path.
type PublicCache interface {
	Get(ctx context.Context, path, variant string) ([]byte, bool)
	Set(ctx context.Context, path, variant string, body []byte)
}

type kindRules struct {
	publicPath string
	adminPath  string
	label      string
	create     domain.Permission
	read       domain.Permission
	update     domain.Permission
	remove     domain.Permission
	publish    domain.Permission
	created    domain.WebhookEvent
	published  domain.WebhookEvent
	unpublish  domain.WebhookEvent
}

var contentKinds = map[domain.ContentKind]kindRules{
	domain.ContentKindPost: {
		publicPath: "/blog",
		adminPath:  "/admin/blog",
		label:      "post",
		create:     domain.PermBlogCreate,
		read:       domain.PermBlogRead,
		update:     domain.PermBlogUpdate,
		remove:     domain.PermBlogDelete,
		publish:    domain.PermBlogPublish,
		published:  domain.WebhookPostPublished,
		unpublish:  domain.WebhookPostUnpublished,
	},
	domain.ContentKindCase: {
		publicPath: "/cases",
		adminPath:  "/admin/cases",
		label:      "case",
		create:     domain.PermCaseCreate,
		read:       domain.PermCaseRead,
		update:     domain.PermCaseUpdate,
		remove:     domain.PermCaseDelete,
		publish:    domain.PermCasePublish,
		created:    domain.WebhookCaseCreated,
		published:  domain.WebhookCasePublished,
	},
	domain.ContentKindService: {
		publicPath: "/services",
		adminPath:  "/admin/services",
		label:      "service",
		create:     domain.PermServiceCreate,
		read:       domain.PermServiceRead,
		update:     domain.PermServiceUpdate,
		remove:     domain.PermServiceDelete,
		publish:    domain.PermServicePublish,
		created:    domain.WebhookServiceCreated,
	},
}

// ContentService manages blog posts, case studies and service pages.
type ContentService struct {
	repo    repository.ContentRepository
	audit   *AuditService
	effects SideEffects
	cache   CacheInvalidator
	public  PublicCache
	logger  *zap.Logger
	now     func() time.Time
}

// ContentDependencies bundles collaborators for the content service.
type ContentDependencies struct {
	ContentRepo repository.ContentRepository
	Audit       *AuditService
	Effects     SideEffects
	Cache       CacheInvalidator
	Public      PublicCache
	Logger      *zap.Logger
}

// ContentInput is the payload for creating a content item.
type ContentInput struct {
	Title           string
	Slug            string
	Excerpt         string
	Body            string
	Image           *string
	Category        string
	Tags            []string
	Status          domain.ContentStatus
	Featured        bool
	ReadTime        *string
	Client          *string
	MetaTitle       *string
	MetaDescription *string
}

// ContentUpdateInput carries the fields to change; nil means unchanged.
type ContentUpdateInput struct {
	Title           *string
	Slug            *string
	Excerpt         *string
	Body            *string
	Image           *string
	Category        *string
	Tags            []string
	Status          *domain.ContentStatus
	Featured        *bool
	ReadTime        *string
	Client          *string
	MetaTitle       *string
	MetaDescription *string
}

// ContentListInput filters a listing.
type ContentListInput struct {
	Status   *domain.ContentStatus
	Category string
	Featured *bool
	Search   string
	Page     int
	Limit    int
}

// NewContentService constructs the service.
func NewContentService(deps ContentDependencies) *ContentService {
	cache := deps.Cache
	if cache == nil {
		cache = noopCache{}
	}
	return &ContentService{
		repo:    deps.ContentRepo,
		audit:   deps.Audit,
		effects: deps.Effects,
		cache:   cache,
		public:  deps.Public,
		logger:  deps.Logger,
		now:     time.Now,
	}
}

func rulesFor(kind domain.ContentKind) (kindRules, error) {
	rules, ok := contentKinds[kind]
	if !ok {
		return kindRules{}, apperrors.NewValidationError("invalid payload",
			map[string]any{"fields": map[string]any{"kind": "is invalid"}})
	}
	return rules, nil
}

// Create stores a new item. A colliding slug gets a timestamp suffix.
func (s *ContentService) Create(ctx context.Context, session domain.Session, kind domain.ContentKind, input ContentInput) (*domain.Content, error) {
	rules, err := rulesFor(kind)
	if err != nil {
		return nil, err
	}
	actor, err := requirePermission(session, rules.create)
	if err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = domain.ContentStatusDraft
	}
	if input.Status == domain.ContentStatusPublished {
		if _, err := requirePermission(session, rules.publish); err != nil {
			return nil, err
		}
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = Slugify(input.Title)
	}
	content := &domain.Content{
		Kind:            kind,
		Title:           strings.TrimSpace(input.Title),
		Slug:            slug,
		Excerpt:         strings.TrimSpace(input.Excerpt),
		Body:            input.Body,
		Image:           optional(input.Image),
		Category:        strings.TrimSpace(input.Category),
		Tags:            cleanTags(input.Tags),
		Status:          input.Status,
		Featured:        input.Featured,
		ReadTime:        optional(input.ReadTime),
		Client:          optional(input.Client),
		MetaTitle:       optional(input.MetaTitle),
		MetaDescription: optional(input.MetaDescription),
		AuthorID:        actor.ID,
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	taken, err := s.repo.SlugExists(ctx, kind, content.Slug, "")
	if err != nil {
		return nil, storeError(s.logger, "check", rules.label+" slug", err)
	}
	if taken {
		content.Slug = slugWithSuffix(content.Slug, s.now())
	}
	if content.Status == domain.ContentStatusPublished {
		now := s.now()
		content.PublishedAt = &now
	}

	err = s.repo.Create(ctx, content)
	if repository.IsUniqueViolation(err) {
		// slug taken between the check and the insert
		content.Slug = slugWithSuffix(content.Slug, s.now())
		err = s.repo.Create(ctx, content)
	}
	if err != nil {
		return nil, storeError(s.logger, "create", rules.label, err)
	}

	s.cache.MarkStale(ctx, rules.adminPath, rules.publicPath)
	s.audit.Track(ctx, session, domain.AuditActionCreate, kind.AuditResource(), content.ID,
		fmt.Sprintf("Criado %s \"%s\"", rules.label, content.Title))
	if rules.created != "" {
		s.effects.Webhook(ctx, rules.created, contentWebhookData(content))
	}
	if content.IsPublished() {
		s.announcePublish(ctx, rules, content)
	}
	return content, nil
}

// Update applies a partial change and handles publish transitions.
func (s *ContentService) Update(ctx context.Context, session domain.Session, kind domain.ContentKind, id string, input ContentUpdateInput) (*domain.Content, error) {
	rules, err := rulesFor(kind)
	if err != nil {
		return nil, err
	}
	if _, err := requirePermission(session, rules.update); err != nil {
		return nil, err
	}
	if input.Status != nil {
		if _, err := requirePermission(session, rules.publish); err != nil {
			return nil, err
		}
	}

	content, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, storeError(s.logger, "load", rules.label, err)
	}
	previousSlug := content.Slug
	wasPublished := content.IsPublished()

	applyContentUpdate(content, input)
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if content.Slug != previousSlug {
		taken, err := s.repo.SlugExists(ctx, kind, content.Slug, content.ID)
		if err != nil {
			return nil, storeError(s.logger, "check", rules.label+" slug", err)
		}
		if taken {
			return nil, apperrors.NewConflict("slug already in use", map[string]any{"slug": content.Slug})
		}
	}
	if !wasPublished && content.IsPublished() {
		now := s.now()
		content.PublishedAt = &now
	}

	if err := s.repo.Update(ctx, content); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("slug already in use", map[string]any{"slug": content.Slug})
		}
		return nil, storeError(s.logger, "update", rules.label, err)
	}

	s.cache.MarkStale(ctx, rules.adminPath, rules.publicPath,
		rules.publicPath+"/"+previousSlug, rules.publicPath+"/"+content.Slug)
	action, detail := s.publishTransition(ctx, rules, content, wasPublished)
	if action == "" {
		action, detail = domain.AuditActionUpdate, fmt.Sprintf("Atualizado %s \"%s\"", rules.label, content.Title)
	}
	s.audit.Track(ctx, session, action, kind.AuditResource(), content.ID, detail)
	return content, nil
}

// TogglePublish flips between PUBLISHED and DRAFT. Every publish stamps a new
// publishedAt; unpublishing keeps the last one.
func (s *ContentService) TogglePublish(ctx context.Context, session domain.Session, kind domain.ContentKind, id string) (*domain.Content, error) {
	rules, err := rulesFor(kind)
	if err != nil {
		return nil, err
	}
	if _, err := requirePermission(session, rules.publish); err != nil {
		return nil, err
	}

	content, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, storeError(s.logger, "load", rules.label, err)
	}
	wasPublished := content.IsPublished()
	if wasPublished {
		content.Status = domain.ContentStatusDraft
	} else {
		content.Status = domain.ContentStatusPublished
		now := s.now()
		content.PublishedAt = &now
	}

	if err := s.repo.Update(ctx, content); err != nil {
		return nil, storeError(s.logger, "update", rules.label, err)
	}

	s.cache.MarkStale(ctx, rules.adminPath, rules.publicPath, rules.publicPath+"/"+content.Slug)
	action, detail := s.publishTransition(ctx, rules, content, wasPublished)
	s.audit.Track(ctx, session, action, kind.AuditResource(), content.ID, detail)
	return content, nil
}

// ToggleFeatured flips the featured flag.
func (s *ContentService) ToggleFeatured(ctx context.Context, session domain.Session, kind domain.ContentKind, id string) (*domain.Content, error) {
	rules, err := rulesFor(kind)
	if err != nil {
		return nil, err
	}
	if _, err := requirePermission(session, rules.update); err != nil {
		return nil, err
	}

	content, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, storeError(s.logger, "load", rules.label, err)
	}
	content.Featured = !content.Featured
	if err := s.repo.Update(ctx, content); err != nil {
		return nil, storeError(s.logger, "update", rules.label, err)
	}

	state := "removido dos destaques"
	if content.Featured {
		state = "marcado como destaque"
	}
	s.cache.MarkStale(ctx, rules.adminPath, rules.publicPath)
	s.audit.Track(ctx, session, domain.AuditActionUpdate, kind.AuditResource(), content.ID,
		fmt.Sprintf("%s \"%s\" %s", rules.label, content.Title, state))
	return content, nil
}

// Delete removes an item.
func (s *ContentService) Delete(ctx context.Context, session domain.Session, kind domain.ContentKind, id string) error {
	rules, err := rulesFor(kind)
	if err != nil {
		return err
	}
	if _, err := requirePermission(session, rules.remove); err != nil {
		return err
	}

	content, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		return storeError(s.logger, "load", rules.label, err)
	}
	if err := s.repo.Delete(ctx, kind, id); err != nil {
		return storeError(s.logger, "delete", rules.label, err)
	}

	s.cache.MarkStale(ctx, rules.adminPath, rules.publicPath, rules.publicPath+"/"+content.Slug)
	s.audit.Track(ctx, session, domain.AuditActionDelete, kind.AuditResource(), id,
		fmt.Sprintf("Deletado %s \"%s\"", rules.label, content.Title))
	return nil
}

// Get returns one item by id.
func (s *ContentService) Get(ctx context.Context, session domain.Session, kind domain.ContentKind, id string) (*domain.Content, error) {
	rules, err := rulesFor(kind)
	if err != nil {
		return nil, err
	}
	if _, err := requirePermission(session, rules.read); err != nil {
		return nil, err
	}
	content, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, storeError(s.logger, "load", rules.label, err)
	}
	return content, nil
}

// List pages through items of one kind for the admin console.
func (s *ContentService) List(ctx context.Context, session domain.Session, kind domain.ContentKind, input ContentListInput) (*domain.Page[domain.Content], error) {
	rules, err := rulesFor(kind)
	if err != nil {
		return nil, err
	}
	if _, err := requirePermission(session, rules.read); err != nil {
		return nil, err
	}
	return s.list(ctx, rules, kind, input)
}

// ListPublished serves the public listing, cached per path until marked stale.
func (s *ContentService) ListPublished(ctx context.Context, kind domain.ContentKind, input ContentListInput) (*domain.Page[domain.Content], error) {
	rules, err := rulesFor(kind)
	if err != nil {
		return nil, err
	}
	published := domain.ContentStatusPublished
	input.Status = &published
	input.Page, input.Limit = normalizePage(input.Page, input.Limit, defaultPageSize)

	variant := publicVariant(input)
	if s.public != nil {
		if body, ok := s.public.Get(ctx, rules.publicPath, variant); ok {
			var page domain.Page[domain.Content]
			if err := json.Unmarshal(body, &page); err == nil {
				return &page, nil
			}
		}
	}

	page, err := s.list(ctx, rules, kind, input)
	if err != nil {
		return nil, err
	}
	if s.public != nil {
		if body, err := json.Marshal(page); err == nil {
			s.public.Set(ctx, rules.publicPath, variant, body)
		}
	}
	return page, nil
}

// GetPublished returns a live item by slug for the public site.
func (s *ContentService) GetPublished(ctx context.Context, kind domain.ContentKind, slug string) (*domain.Content, error) {
	rules, err := rulesFor(kind)
	if err != nil {
		return nil, err
	}
	content, err := s.repo.GetBySlug(ctx, kind, slug)
	if err != nil {
		return nil, storeError(s.logger, "load", rules.label, err)
	}
	if !content.IsPublished() {
		return nil, apperrors.NewNotFound(rules.label, nil)
	}
	return content, nil
}

func (s *ContentService) list(ctx context.Context, rules kindRules, kind domain.ContentKind, input ContentListInput) (*domain.Page[domain.Content], error) {
	page, limit := normalizePage(input.Page, input.Limit, defaultPageSize)
	items, total, err := s.repo.List(ctx, repository.ContentFilter{
		Kind:     kind,
		Status:   input.Status,
		Category: strings.TrimSpace(input.Category),
		Featured: input.Featured,
		Search:   strings.TrimSpace(input.Search),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		return nil, storeError(s.logger, "list", rules.label+"s", err)
	}
	return newPage(items, page, limit, total), nil
}

// publishTransition fires the webhooks for a status change and returns the
// audit action describing it. The action is empty when the status did not move.
func (s *ContentService) publishTransition(ctx context.Context, rules kindRules, content *domain.Content, wasPublished bool) (domain.AuditAction, string) {
	switch {
	case !wasPublished && content.IsPublished():
		s.announcePublish(ctx, rules, content)
		return domain.AuditActionPublish, fmt.Sprintf("Publicado %s \"%s\"", rules.label, content.Title)
	case wasPublished && !content.IsPublished():
		if rules.unpublish != "" {
			s.effects.Webhook(ctx, rules.unpublish, contentWebhookData(content))
		}
		return domain.AuditActionUnpublish, fmt.Sprintf("Despublicado %s \"%s\"", rules.label, content.Title)
	}
	return "", ""
}

func (s *ContentService) announcePublish(ctx context.Context, rules kindRules, content *domain.Content) {
	if rules.published != "" {
		s.effects.Webhook(ctx, rules.published, contentWebhookData(content))
	}
	if content.Kind == domain.ContentKindPost {
		s.effects.Notify(ctx, PostPublishedNotice(content.AuthorID, content.Title, content.Slug))
	}
}

func validateContent(c *domain.Content) error {
	var v validator
	if v.required("title", c.Title) {
		v.length("title", c.Title, 10, 100)
	}
	if v.required("slug", c.Slug) {
		v.length("slug", c.Slug, 5, 100)
		if !slugPattern.MatchString(c.Slug) {
			v.add("slug", "must contain only lowercase letters, numbers and hyphens")
		}
	}
	v.required("body", c.Body)
	if !c.Status.Valid() {
		v.add("status", "is invalid")
	}
	if c.Image != nil {
		v.url("image", *c.Image)
	}

	if c.Kind == domain.ContentKindPost {
		if v.required("excerpt", c.Excerpt) {
			v.length("excerpt", c.Excerpt, 50, 300)
		}
		v.required("category", c.Category)
		if len(c.Tags) < 1 || len(c.Tags) > 5 {
			v.add("tags", "must have between 1 and 5 tags")
		}
		if c.ReadTime != nil && !readTimePattern.MatchString(*c.ReadTime) {
			v.add("readTime", "must look like \"5 min\"")
		}
		if c.MetaTitle != nil {
			v.length("metaTitle", *c.MetaTitle, 0, 60)
		}
		if c.MetaDescription != nil {
			v.length("metaDescription", *c.MetaDescription, 0, 160)
		}
	}
	return v.err()
}

func applyContentUpdate(c *domain.Content, in ContentUpdateInput) {
	if in.Title != nil {
		c.Title = strings.TrimSpace(*in.Title)
	}
	if in.Slug != nil {
		c.Slug = strings.TrimSpace(*in.Slug)
	}
	if in.Excerpt != nil {
		c.Excerpt = strings.TrimSpace(*in.Excerpt)
	}
	if in.Body != nil {
		c.Body = *in.Body
	}
	if in.Image != nil {
		c.Image = optional(in.Image)
	}
	if in.Category != nil {
		c.Category = strings.TrimSpace(*in.Category)
	}
	if in.Tags != nil {
		c.Tags = cleanTags(in.Tags)
	}
	if in.Status != nil {
		c.Status = *in.Status
	}
	if in.Featured != nil {
		c.Featured = *in.Featured
	}
	if in.ReadTime != nil {
		c.ReadTime = optional(in.ReadTime)
	}
	if in.Client != nil {
		c.Client = optional(in.Client)
	}
	if in.MetaTitle != nil {
		c.MetaTitle = optional(in.MetaTitle)
	}
	if in.MetaDescription != nil {
		c.MetaDescription = optional(in.MetaDescription)
	}
}

func contentWebhookData(c *domain.Content) map[string]any {
	data := map[string]any{
		"id":       c.ID,
		"kind":     string(c.Kind),
		"title":    c.Title,
		"slug":     c.Slug,
		"status":   string(c.Status),
		"authorId": c.AuthorID,
	}
	if c.PublishedAt != nil {
		data["publishedAt"] = c.PublishedAt.UTC().Format(time.RFC3339)
	}
	return data
}

func publicVariant(in ContentListInput) string {
	featured := ""
	if in.Featured != nil {
		featured = fmt.Sprintf("%t", *in.Featured)
	}
	return fmt.Sprintf("page=%d&limit=%d&category=%s&featured=%s&q=%s",
		in.Page, in.Limit, in.Category, featured, strings.ToLower(strings.TrimSpace(in.Search)))
}

var (
	accentReplacer = strings.NewReplacer(
		"á", "a", "à", "a", "â", "a", "ã", "a", "ä", "a",
		"é", "e", "è", "e", "ê", "e", "ë", "e",
		"í", "i", "ì", "i", "î", "i", "ï", "i",
		"ó", "o", "ò", "o", "ô", "o", "õ", "o", "ö", "o",
		"ú", "u", "ù", "u", "û", "u", "ü", "u",
		"ç", "c", "ñ", "n",
	)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify derives a URL slug from a title.
func Slugify(title string) string {
	s := accentReplacer.Replace(strings.ToLower(strings.TrimSpace(title)))
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
