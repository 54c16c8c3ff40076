package profile

import (
	"time"

	"gorm.io/gorm"
)

// Role 是档案的角色枚举
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// Profile 定义了用户档案在数据库中的持久化模型。
// 它在注册时创建，角色默认为student，且不提供自助改角色的途径。
type Profile struct {
	// ID 是档案的主键，UUID v7格式，对外作为不透明标识使用。
	ID string `gorm:"primarykey;type:varchar(36)" json:"id"`

	// Username 是登录用的用户名，全局唯一。
	Username string `gorm:"uniqueIndex;not null" json:"username"`

	// Email 是由用户名映射出的合成邮箱 "{username}@local.app"。
	Email string `gorm:"uniqueIndex;not null" json:"email"`

	// FullName 是展示用的姓名。
	FullName string `json:"full_name"`

	// Role 是 "admin" 或 "student"。
	Role string `gorm:"not null;default:student" json:"role"`

	// Note 是面板上的自由文本备注，档案中唯一可由本人修改的字段。
	Note string `json:"note"`

	// PasswordHash 是bcrypt散列后的口令，永不出现在JSON中。
	PasswordHash []byte `json:"-"`

	// 部分gorm.Model，由GORM自动管理
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsAdmin 判断该档案是否具有管理员角色。
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}
