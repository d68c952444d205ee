package model

import "gorm.io/datatypes"

// ── 角色 ──

const (
	RoleFaculty = "Faculty"
	RoleFinance = "Finance"
	RoleAdmin   = "Admin"
)

// Status 教师工时核对状态
type Status string

const (
	StatusVerified   Status = "✓"
	StatusUnverified Status = "✗"
)

// Valid 是否为合法状态值
func (s Status) Valid() bool {
	return s == StatusVerified || s == StatusUnverified
}

// OrDefault 空状态视为未核对
func (s Status) OrDefault() Status {
	if s == "" {
		return StatusUnverified
	}
	return s
}

// User 用户表，对应 users
// 教师的工时以文档形式内嵌在 timesheets 列（JSONB），与原有数据格式保持一致
type User struct {
	UserID       string                              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username     string                              `gorm:"type:varchar(100);not null;uniqueIndex"         json:"username"`
	PasswordHash string                              `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string                              `gorm:"type:varchar(20);not null;default:'Faculty'"    json:"role"`
	Status       Status                              `gorm:"type:varchar(8);not null;default:'✗'"           json:"status"`
	Timesheets   datatypes.JSONSlice[TimesheetGroup] `gorm:"type:jsonb;not null;default:'[]'"               json:"timesheets"`
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
