package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"timesheet-recon/backend/internal/model"
	pkgerrors "timesheet-recon/backend/pkg/errors"
)

// courseCodePath 任一分组任一周中存在指定课程代码的记录
const courseCodePath = `$[*].*[*] ? (@.courseCode == $code)`

// UserRepository 用户（含教师工时文档）数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// ListFaculty 按创建顺序返回全部教师
	ListFaculty(ctx context.Context) ([]model.User, error)
	// FindByCourse 查询指定教师中含该课程代码工时的记录
	FindByCourse(ctx context.Context, username, courseCode string) ([]model.User, error)
	// SetStatus 幂等更新核对状态，返回是否实际发生变化
	SetStatus(ctx context.Context, username string, status model.Status) (bool, error)
	// UpdateTimesheets 以 version 为条件整列写回工时，冲突返回 ErrOptimisticLock
	UpdateTimesheets(ctx context.Context, user *model.User) error
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	if user.Status == "" {
		user.Status = model.StatusUnverified
	}
	if user.Timesheets == nil {
		user.Timesheets = []model.TimesheetGroup{}
	}
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ListFaculty(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("role = ?", model.RoleFaculty).
		Order("created_at ASC, user_id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) FindByCourse(ctx context.Context, username, courseCode string) ([]model.User, error) {
	var users []model.User
	// jsonpath 以参数传入，避免其中的 ? 被当作占位符
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Where("jsonb_path_exists(timesheets, ?::jsonpath, jsonb_build_object('code', ?::text))", courseCodePath, courseCode).
		Order("created_at ASC, user_id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) SetStatus(ctx context.Context, username string, status model.Status) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("username = ? AND status <> ?", username, status).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *userRepo) UpdateTimesheets(ctx context.Context, user *model.User) error {
	oldVersion := user.Version
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ? AND version = ?", user.UserID, oldVersion).
		Updates(map[string]interface{}{
			"timesheets": user.Timesheets,
			"version":    oldVersion + 1,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version = oldVersion + 1
	return nil
}
