package domain

// Permission names a capability checked by the HTTP layer and services.
type Permission string

const (
	PermBlogCreate      Permission = "blog:create"
	PermBlogRead        Permission = "blog:read"
	PermBlogUpdate      Permission = "blog:update"
	PermBlogDelete      Permission = "blog:delete"
	PermBlogPublish     Permission = "blog:publish"
	PermCaseCreate      Permission = "case:create"
	PermCaseRead        Permission = "case:read"
	PermCaseUpdate      Permission = "case:update"
	PermCaseDelete      Permission = "case:delete"
	PermCasePublish     Permission = "case:publish"
	PermServiceCreate   Permission = "service:create"
	PermServiceRead     Permission = "service:read"
	PermServiceUpdate   Permission = "service:update"
	PermServiceDelete   Permission = "service:delete"
	PermServicePublish  Permission = "service:publish"
	PermLeadCreate      Permission = "lead:create"
	PermLeadRead        Permission = "lead:read"
	PermLeadUpdate      Permission = "lead:update"
	PermLeadDelete      Permission = "lead:delete"
	PermMediaUpload     Permission = "media:upload"
	PermSettingsView    Permission = "settings:view"
	PermSettingsManage  Permission = "settings:manage"
	PermUsersManage     Permission = "users:manage"
	PermAuditView       Permission = "audit:view"
	PermAPIKeysManage   Permission = "apikeys:manage"
	PermWebhooksManage  Permission = "webhooks:manage"
	PermTemplatesManage Permission = "templates:manage"
)

var rolePermissions = map[Role][]Permission{
	RoleEditor: {
		PermBlogCreate, PermBlogRead, PermBlogUpdate, PermBlogPublish,
		PermCaseCreate, PermCaseRead, PermCaseUpdate, PermCasePublish,
		PermServiceRead,
		PermLeadCreate, PermLeadRead, PermLeadUpdate,
		PermMediaUpload, PermSettingsView, PermAPIKeysManage,
	},
	RoleUser: {
		PermBlogRead, PermCaseRead, PermServiceRead, PermLeadRead, PermAPIKeysManage,
	},
}

// HasPermission reports whether role grants perm. ADMIN holds every permission.
func HasPermission(role Role, perm Permission) bool {
	if role == RoleAdmin {
		return true
	}
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

var allPermissions = map[Permission]struct{}{
	PermBlogCreate: {}, PermBlogRead: {}, PermBlogUpdate: {}, PermBlogDelete: {}, PermBlogPublish: {},
	PermCaseCreate: {}, PermCaseRead: {}, PermCaseUpdate: {}, PermCaseDelete: {}, PermCasePublish: {},
	PermServiceCreate: {}, PermServiceRead: {}, PermServiceUpdate: {}, PermServiceDelete: {}, PermServicePublish: {},
	PermLeadCreate: {}, PermLeadRead: {}, PermLeadUpdate: {}, PermLeadDelete: {},
	PermMediaUpload: {}, PermSettingsView: {}, PermSettingsManage: {}, PermUsersManage: {},
	PermAuditView: {}, PermAPIKeysManage: {}, PermWebhooksManage: {}, PermTemplatesManage: {},
}

// ParsePermission validates a permission name coming from the outside.
func ParsePermission(s string) (Permission, bool) {
	p := Permission(s)
	_, ok := allPermissions[p]
	return p, ok
}
