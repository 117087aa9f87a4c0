package entity

import (
	"strings"
	"time"
)

// User 系统用户
// Permissions 为 "module:action" 形式的权限串列表，"*" 为全权限
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;type:uuid"`
	Username     string     `json:"username" gorm:"size:64;not null;uniqueIndex"`
	Name         string     `json:"name" gorm:"size:128;not null"`
	Email        string     `json:"email" gorm:"size:128"`
	PasswordHash string     `json:"-" gorm:"size:128;not null"`
	Role         string     `json:"role" gorm:"size:32;not null;default:operator"`
	Permissions  StringList `json:"permissions" gorm:"type:jsonb"`
	Status       string     `json:"status" gorm:"size:20;not null;default:active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at" gorm:"index"`
}

func (User) TableName() string {
	return "mes_users"
}

// Can 权限闸门：判断用户能否对某模块执行某动作
func (u *User) Can(action, module string) bool {
	want := module + ":" + action
	for _, p := range u.Permissions {
		if p == "*" || p == want {
			return true
		}
		// "module:*" 放行该模块全部动作
		if strings.HasSuffix(p, ":*") && strings.TrimSuffix(p, ":*") == module {
			return true
		}
	}
	return false
}
