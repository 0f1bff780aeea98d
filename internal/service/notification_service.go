package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/events"
	"github.com/spec-kit/agency-admin/internal/repository"
	apperrors "github.com/spec-kit/agency-admin/pkg/util"
)

const defaultNotificationLimit = 10

// NotificationService stores in-app notifications and serves them to their owners.
type NotificationService struct {
	repo   repository.NotificationRepository
	logger *zap.Logger
}

// NotificationInput describes a notification to create.
type NotificationInput struct {
	UserID  string
	Type    domain.NotificationType
	Title   string
	Message string
	Link    *string
}

// NotificationList is the caller's inbox.
type NotificationList struct {
	Items       []domain.Notification `json:"items"`
	UnreadCount int64                 `json:"unreadCount"`
}

// NewNotificationService creates the service.
func NewNotificationService(repo repository.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, logger: logger}
}

// RegisterHandlers subscribes the service to queued notification tasks.
func (n *NotificationService) RegisterHandlers(router *events.Router) {
	router.Subscribe(events.TaskCreateNotification, n.handleCreate)
}

func (n *NotificationService) handleCreate(ctx context.Context, task events.Task) error {
	var payload events.NotificationPayload
	if err := task.Decode(&payload); err != nil {
		return err
	}
	_, err := n.Create(ctx, NotificationInput{
		UserID:  payload.UserID,
		Type:    payload.Type,
		Title:   payload.Title,
		Message: payload.Message,
		Link:    payload.Link,
	})
	return err
}

// Create stores a notification for input.UserID. Type defaults to INFO.
func (n *NotificationService) Create(ctx context.Context, input NotificationInput) (*domain.Notification, error) {
	if input.Type == "" {
		input.Type = domain.NotificationInfo
	}

	var v validator
	v.required("userId", input.UserID)
	v.required("title", input.Title)
	v.required("message", input.Message)
	if !input.Type.Valid() {
		v.add("type", "is invalid")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	notification := &domain.Notification{
		UserID:  input.UserID,
		Type:    input.Type,
		Title:   strings.TrimSpace(input.Title),
		Message: strings.TrimSpace(input.Message),
		Link:    optional(input.Link),
	}
	if err := n.repo.Create(ctx, notification); err != nil {
		return nil, storeError(n.logger, "create", "notification", err)
	}
	return notification, nil
}

// ListMine returns the caller's notifications newest first plus the unread count.
func (n *NotificationService) ListMine(ctx context.Context, session domain.Session, limit int, unreadOnly bool) (*NotificationList, error) {
	actor, err := requireActor(session)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	items, err := n.repo.ListByUser(ctx, actor.ID, limit, unreadOnly)
	if err != nil {
		return nil, storeError(n.logger, "list", "notifications", err)
	}
	unread, err := n.repo.CountUnread(ctx, actor.ID)
	if err != nil {
		return nil, storeError(n.logger, "count", "notifications", err)
	}
	if items == nil {
		items = []domain.Notification{}
	}
	return &NotificationList{Items: items, UnreadCount: unread}, nil
}

// MarkRead flags one of the caller's notifications as read. Notifications
// owned by someone else are reported as not found.
func (n *NotificationService) MarkRead(ctx context.Context, session domain.Session, id string) error {
	actor, err := requireActor(session)
	if err != nil {
		return err
	}
	if err := n.repo.MarkRead(ctx, id, actor.ID); err != nil {
		return storeError(n.logger, "update", "notification", err)
	}
	return nil
}

// MarkAllRead flags every notification of the caller as read. Repeating it is harmless.
func (n *NotificationService) MarkAllRead(ctx context.Context, session domain.Session) (int64, error) {
	actor, err := requireActor(session)
	if err != nil {
		return 0, err
	}
	updated, err := n.repo.MarkAllRead(ctx, actor.ID)
	if err != nil {
		return 0, storeError(n.logger, "update", "notifications", err)
	}
	return updated, nil
}

// Delete removes one of the caller's notifications.
func (n *NotificationService) Delete(ctx context.Context, session domain.Session, id string) error {
	actor, err := requireActor(session)
	if err != nil {
		return err
	}
	if err := n.repo.Delete(ctx, id, actor.ID); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound("notification", nil)
		}
		return storeError(n.logger, "delete", "notification", err)
	}
	return nil
}

// WelcomeNotice greets a newly created user.
func WelcomeNotice(user *domain.User) events.NotificationPayload {
	return events.NotificationPayload{
		UserID: user.ID,
		Type:   domain.NotificationSuccess,
		Title:  "Bem-vindo!",
		Message: fmt.Sprintf("Olá %s! Sua conta foi criada com sucesso. "+
			"Explore o painel administrativo e comece a gerenciar seu conteúdo.", user.Name),
	}
}

// PostPublishedNotice tells an author that their post went live.
func PostPublishedNotice(authorID, title, slug string) events.NotificationPayload {
	return events.NotificationPayload{
		UserID:  authorID,
		Type:    domain.NotificationSuccess,
		Title:   "Post Publicado",
		Message: fmt.Sprintf("Seu post \"%s\" foi publicado com sucesso!", title),
		Link:    strPtr("/blog/" + slug),
	}
}

// LeadAssignedNotice tells a user a lead now belongs to them.
func LeadAssignedNotice(assigneeID string, lead *domain.Lead) events.NotificationPayload {
	return events.NotificationPayload{
		UserID:  assigneeID,
		Type:    domain.NotificationInfo,
		Title:   "Novo lead atribuído",
		Message: fmt.Sprintf("O lead %s foi atribuído a você.", lead.Name),
		Link:    strPtr("/admin/crm/leads/" + lead.ID),
	}
}

// WebhookFailedNotice warns an admin about a failed delivery.
func WebhookFailedNotice(adminID, webhookName string) events.NotificationPayload {
	return events.NotificationPayload{
		UserID: adminID,
		Type:   domain.NotificationWarning,
		Title:  "Webhook Falhado",
		Message: fmt.Sprintf("O webhook \"%s\" falhou ao entregar uma notificação. "+
			"Verifique os logs para mais detalhes.", webhookName),
		Link: strPtr("/admin/settings/webhooks"),
	}
}

// AdminAlerter notifies every ADMIN about failures nobody is waiting on.
type AdminAlerter struct {
	users   repository.UserRepository
	effects SideEffects
	logger  *zap.Logger
}

// NewAdminAlerter constructs the alerter.
func NewAdminAlerter(users repository.UserRepository, effects SideEffects, logger *zap.Logger) *AdminAlerter {
	return &AdminAlerter{users: users, effects: effects, logger: logger}
}

// WebhookFailed is installed as the dispatcher's failure hook.
func (a *AdminAlerter) WebhookFailed(ctx context.Context, sub domain.WebhookSubscription, log domain.WebhookLog) {
	role := domain.RoleAdmin
	admins, _, err := a.users.List(ctx, repository.UserFilter{Role: &role, Limit: maxPageSize})
	if err != nil {
		a.logger.Warn("list admins for webhook alert", zap.String("webhook_id", sub.ID), zap.Error(err))
		return
	}
	for _, admin := range admins {
		a.effects.Notify(ctx, WebhookFailedNotice(admin.ID, sub.Name))
	}
	a.logger.Info("webhook failure reported",
		zap.String("webhook_id", sub.ID),
		zap.String("event", log.Event),
		zap.Int("admins", len(admins)))
}

// ErrorNotice reports a generic failure to a user.
func ErrorNotice(userID, title, message string) events.NotificationPayload {
	return events.NotificationPayload{
		UserID:  userID,
		Type:    domain.NotificationError,
		Title:   title,
		Message: message,
	}
}
