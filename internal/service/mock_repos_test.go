package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"timesheet-recon/backend/internal/model"
	"timesheet-recon/backend/internal/repository"
	"timesheet-recon/backend/internal/schedule"
	pkgerrors "timesheet-recon/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu    sync.Mutex
	users []*model.User // 按创建顺序

	listErr   error
	findErr   error
	updateErr error
	setCalls  int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	if user.Status == "" {
		user.Status = model.StatusUnverified
	}
	if user.Version == 0 {
		user.Version = 1
	}
	stored := *user
	m.users = append(m.users, &stored)
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.UserID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListFaculty(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.User
	for _, u := range m.users {
		if u.Role == model.RoleFaculty {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) FindByCourse(_ context.Context, username, courseCode string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []model.User
	for _, u := range m.users {
		if u.Username == username && hasCourse(u, courseCode) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func hasCourse(u *model.User, courseCode string) bool {
	for _, g := range u.Timesheets {
		for _, week := range g.Weeks() {
			for _, r := range week {
				if r.CourseCode == courseCode {
					return true
				}
			}
		}
	}
	return false
}

func (m *mockUserRepo) SetStatus(_ context.Context, username string, status model.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	for _, u := range m.users {
		if u.Username == username {
			if u.Status == status {
				return false, nil
			}
			u.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) UpdateTimesheets(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	for _, u := range m.users {
		if u.UserID == user.UserID {
			if u.Version != user.Version {
				return pkgerrors.ErrOptimisticLock
			}
			u.Timesheets = user.Timesheets
			u.Version++
			user.Version = u.Version
			return nil
		}
	}
	return pkgerrors.ErrOptimisticLock
}

func (m *mockUserRepo) status(username string) model.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u.Status
		}
	}
	return ""
}

func (m *mockUserRepo) stored(username string) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

// ── Mock ScheduleSource ──

type stubSchedules struct {
	sched *schedule.Schedule
	err   error
	calls int
}

func (s *stubSchedules) Load(_ context.Context) (*schedule.Schedule, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.sched, nil
}

// ── Mock RunLocker ──

type stubLocker struct {
	err      error
	acquired int
	released int
}

func (l *stubLocker) Acquire(_ context.Context) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func() { l.released++ }, nil
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Duration
	err    error
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{tokens: make(map[string]time.Duration)}
}

func (b *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.tokens[jti] = ttl
	return nil
}

func (b *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.tokens[jti]
	return ok, nil
}

// ── 测试数据构造 ──

func newTestRepo(users *mockUserRepo) *repository.Repository {
	return &repository.Repository{User: users}
}

func hashPassword(pw string) string {
	h, _ := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	return string(h)
}

func rec(date, day, course string, hours any) model.TimesheetRecord {
	raw, _ := json.Marshal(hours)
	return model.TimesheetRecord{Date: date, Day: day, CourseCode: course, HoursWorked: raw}
}

func seedFaculty(m *mockUserRepo, username string, status model.Status, records ...model.TimesheetRecord) {
	u := &model.User{
		Username: username,
		Role:     model.RoleFaculty,
		Status:   status,
	}
	if len(records) > 0 {
		u.Timesheets = []model.TimesheetGroup{{Week1: records}}
	}
	_ = m.Create(context.Background(), u)
}

func hoursJSON(raw json.RawMessage) string {
	return strings.Trim(string(raw), `"`)
}
