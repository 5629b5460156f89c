// Package access 提供基于谓词的资源访问控制。
//
// 每条路由的授权规则以 Policy 声明，Handler / Service 只调用 Allow，
// 不再各自重复编写角色与归属判断。
package access

import "github.com/sank902/Campus-connect/internal/model"

// Principal 通过 Token 校验后附加到请求上的身份
type Principal struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// IsAdmin 是否为管理员
func (p Principal) IsAdmin() bool { return p.Role == model.RoleAdmin }

// Policy 访问策略
// ownerID 为目标资源的归属用户 ID，无归属概念的操作传空字符串
type Policy interface {
	Allow(p Principal, ownerID string) bool
}

// PolicyFunc 函数适配器
type PolicyFunc func(p Principal, ownerID string) bool

// Allow 实现 Policy
func (f PolicyFunc) Allow(p Principal, ownerID string) bool { return f(p, ownerID) }

// Authenticated 任意已认证身份
func Authenticated() Policy {
	return PolicyFunc(func(p Principal, _ string) bool {
		return p.ID != ""
	})
}

// RequireRole 要求身份具有指定角色
func RequireRole(role string) Policy {
	return PolicyFunc(func(p Principal, _ string) bool {
		return p.ID != "" && p.Role == role
	})
}

// Owner 要求身份为资源归属者
func Owner() Policy {
	return PolicyFunc(func(p Principal, ownerID string) bool {
		return p.ID != "" && ownerID != "" && p.ID == ownerID
	})
}

// AnyOf 任一策略通过即放行
func AnyOf(policies ...Policy) Policy {
	return PolicyFunc(func(p Principal, ownerID string) bool {
		for _, pol := range policies {
			if pol.Allow(p, ownerID) {
				return true
			}
		}
		return false
	})
}

// ── 路由级策略 ──

var (
	// CreateEvent 创建活动：仅管理员
	CreateEvent = RequireRole(model.RoleAdmin)
	// RegisterEvent 报名活动：任意已认证用户
	RegisterEvent = Authenticated()
	// ExportRegistrants 导出报名名单：仅管理员
	ExportRegistrants = RequireRole(model.RoleAdmin)
	// ImportEvents 从日历文件导入活动：仅管理员
	ImportEvents = RequireRole(model.RoleAdmin)
	// CreateItem 发布失物招领：任意已认证用户
	CreateItem = Authenticated()
	// DeleteItem 删除失物招领：发布者本人或管理员
	DeleteItem = AnyOf(Owner(), RequireRole(model.RoleAdmin))
)
