package domain

import "time"

// AuditAction is the semantic operation recorded in the audit trail.
type AuditAction string

const (
	AuditActionCreate         AuditAction = "CREATE"
	AuditActionUpdate         AuditAction = "UPDATE"
	AuditActionDelete         AuditAction = "DELETE"
	AuditActionLogin          AuditAction = "LOGIN"
	AuditActionLogout         AuditAction = "LOGOUT"
	AuditActionPasswordChange AuditAction = "PASSWORD_CHANGE"
	AuditActionRoleChange     AuditAction = "ROLE_CHANGE"
	AuditActionPublish        AuditAction = "PUBLISH"
	AuditActionUnpublish      AuditAction = "UNPUBLISH"
)

// Valid reports whether a is a known action.
func (a AuditAction) Valid() bool {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionDelete, AuditActionLogin, AuditActionLogout,
		AuditActionPasswordChange, AuditActionRoleChange, AuditActionPublish, AuditActionUnpublish:
		return true
	}
	return false
}

// AuditResource is the entity family an audit entry refers to.
type AuditResource string

const (
	AuditResourceUser     AuditResource = "USER"
	AuditResourcePost     AuditResource = "POST"
	AuditResourceCase     AuditResource = "CASE"
	AuditResourceService  AuditResource = "SERVICE"
	AuditResourceMedia    AuditResource = "MEDIA"
	AuditResourceSettings AuditResource = "SETTINGS"
	AuditResourceLead     AuditResource = "LEAD"
)

// Valid reports whether r is a known resource.
func (r AuditResource) Valid() bool {
	switch r {
	case AuditResourceUser, AuditResourcePost, AuditResourceCase, AuditResourceService,
		AuditResourceMedia, AuditResourceSettings, AuditResourceLead:
		return true
	}
	return false
}

// AuditLog is an immutable record of one mutating action.
type AuditLog struct {
	ID         string        `json:"id"`
	UserID     string        `json:"userId"`
	Action     AuditAction   `json:"action"`
	Resource   AuditResource `json:"resource"`
	ResourceID *string       `json:"resourceId,omitempty"`
	Details    string        `json:"details"`
	IPAddress  string        `json:"ipAddress"`
	UserAgent  string        `json:"userAgent"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// AuditStats summarizes the audit trail.
type AuditStats struct {
	TotalLogs    int64        `json:"totalLogs"`
	TodayLogs    int64        `json:"todayLogs"`
	TopActions   []CountEntry `json:"topActions"`
	TopResources []CountEntry `json:"topResources"`
}
