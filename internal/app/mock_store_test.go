package app

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shrimpsizemoose/labscore/internal/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Close() error {
	return nil
}

func (m *MockStore) ApplyMigrations(dir string) error {
	return nil
}

func (m *MockStore) ListLabs(ctx context.Context) ([]models.Lab, error) {
	args := m.Called()
	return args.Get(0).([]models.Lab), args.Error(1)
}

func (m *MockStore) GetLab(ctx context.Context, id int64) (*models.Lab, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lab), args.Error(1)
}

func (m *MockStore) ListSlots(ctx context.Context) ([]models.Slot, error) {
	return nil, nil
}

func (m *MockStore) ListGroups(ctx context.Context) ([]models.Group, error) {
	args := m.Called()
	return args.Get(0).([]models.Group), args.Error(1)
}

func (m *MockStore) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	return nil, nil
}

func (m *MockStore) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called()
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) ListExercises(ctx context.Context, labIDs []int64) ([]models.Exercise, error) {
	args := m.Called(labIDs)
	return args.Get(0).([]models.Exercise), args.Error(1)
}

func (m *MockStore) GetExercise(ctx context.Context, id int64) (*models.Exercise, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exercise), args.Error(1)
}

func (m *MockStore) ListFlags(ctx context.Context, labIDs []int64) ([]models.Flag, error) {
	args := m.Called(labIDs)
	return args.Get(0).([]models.Flag), args.Error(1)
}

func (m *MockStore) GetFlagByCode(ctx context.Context, labID int64, code string) (*models.Flag, error) {
	args := m.Called(labID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Flag), args.Error(1)
}

func (m *MockStore) ListLabExecutions(ctx context.Context, labIDs []int64) ([]models.LabExecution, error) {
	args := m.Called(labIDs)
	return args.Get(0).([]models.LabExecution), args.Error(1)
}

func (m *MockStore) ListGroupExecutions(ctx context.Context, groupID int64) ([]models.LabExecution, error) {
	args := m.Called(groupID)
	return args.Get(0).([]models.LabExecution), args.Error(1)
}

func (m *MockStore) ListExerciseSubmissions(ctx context.Context, labIDs []int64) ([]models.ExerciseSubmission, error) {
	args := m.Called(labIDs)
	return args.Get(0).([]models.ExerciseSubmission), args.Error(1)
}

func (m *MockStore) GetExerciseSubmission(ctx context.Context, id int64) (*models.ExerciseSubmission, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExerciseSubmission), args.Error(1)
}

func (m *MockStore) CreateExerciseSubmission(ctx context.Context, s *models.ExerciseSubmission) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockStore) UpdateExerciseSubmission(ctx context.Context, s *models.ExerciseSubmission) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockStore) DeleteExerciseSubmission(ctx context.Context, id int64) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockStore) ListFlagSubmissions(ctx context.Context, labIDs []int64) ([]models.FlagSubmission, error) {
	args := m.Called(labIDs)
	return args.Get(0).([]models.FlagSubmission), args.Error(1)
}

func (m *MockStore) CreateFlagSubmission(ctx context.Context, s *models.FlagSubmission) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockStore) DeleteFlagSubmission(ctx context.Context, id int64) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockStore) CreateLab(ctx context.Context, l *models.Lab) error                 { return nil }
func (m *MockStore) CreateSlot(ctx context.Context, s *models.Slot) error               { return nil }
func (m *MockStore) CreateGroup(ctx context.Context, g *models.Group) error             { return nil }
func (m *MockStore) CreateUser(ctx context.Context, u *models.User) error               { return nil }
func (m *MockStore) CreateExercise(ctx context.Context, e *models.Exercise) error       { return nil }
func (m *MockStore) CreateFlag(ctx context.Context, f *models.Flag) error               { return nil }
func (m *MockStore) SaveLabExecution(ctx context.Context, e *models.LabExecution) error { return nil }
