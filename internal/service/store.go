package service

import (
	"context"

	"timesheet-recon/backend/internal/model"
	"timesheet-recon/backend/internal/reconcile"
	"timesheet-recon/backend/internal/repository"
)

// facultyStore 将 UserRepository 适配为核对引擎的 Store
type facultyStore struct {
	users repository.UserRepository
}

func newFacultyStore(users repository.UserRepository) *facultyStore {
	return &facultyStore{users: users}
}

func (s *facultyStore) ListFaculty(ctx context.Context) ([]reconcile.FacultyRecord, error) {
	users, err := s.users.ListFaculty(ctx)
	if err != nil {
		return nil, err
	}
	return toRecords(users), nil
}

func (s *facultyStore) FindByCourse(ctx context.Context, username, courseCode string) ([]reconcile.FacultyRecord, error) {
	users, err := s.users.FindByCourse(ctx, username, courseCode)
	if err != nil {
		return nil, err
	}
	return toRecords(users), nil
}

func (s *facultyStore) SetStatus(ctx context.Context, username string, status model.Status) (bool, error) {
	return s.users.SetStatus(ctx, username, status)
}

func toRecords(users []model.User) []reconcile.FacultyRecord {
	out := make([]reconcile.FacultyRecord, 0, len(users))
	for _, u := range users {
		out = append(out, reconcile.FacultyRecord{
			Username:   u.Username,
			Status:     u.Status,
			Timesheets: u.Timesheets,
		})
	}
	return out
}
