package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/labscore/internal/models"
)

var (
	ErrDuplicate = errors.New("duplicate entry")
	ErrNotFound  = errors.New("not found")
)

type ScoreStore interface {
	Close() error
	ApplyMigrations(dir string) error

	ListLabs(ctx context.Context) ([]models.Lab, error)
	GetLab(ctx context.Context, id int64) (*models.Lab, error)
	ListSlots(ctx context.Context) ([]models.Slot, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	GetGroup(ctx context.Context, id int64) (*models.Group, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)

	ListExercises(ctx context.Context, labIDs []int64) ([]models.Exercise, error)
	GetExercise(ctx context.Context, id int64) (*models.Exercise, error)
	ListFlags(ctx context.Context, labIDs []int64) ([]models.Flag, error)
	GetFlagByCode(ctx context.Context, labID int64, code string) (*models.Flag, error)
	ListLabExecutions(ctx context.Context, labIDs []int64) ([]models.LabExecution, error)
	ListGroupExecutions(ctx context.Context, groupID int64) ([]models.LabExecution, error)

	ListExerciseSubmissions(ctx context.Context, labIDs []int64) ([]models.ExerciseSubmission, error)
	GetExerciseSubmission(ctx context.Context, id int64) (*models.ExerciseSubmission, error)
	CreateExerciseSubmission(ctx context.Context, s *models.ExerciseSubmission) error
	UpdateExerciseSubmission(ctx context.Context, s *models.ExerciseSubmission) error
	DeleteExerciseSubmission(ctx context.Context, id int64) error

	ListFlagSubmissions(ctx context.Context, labIDs []int64) ([]models.FlagSubmission, error)
	CreateFlagSubmission(ctx context.Context, s *models.FlagSubmission) error
	DeleteFlagSubmission(ctx context.Context, id int64) error

	CreateLab(ctx context.Context, l *models.Lab) error
	CreateSlot(ctx context.Context, s *models.Slot) error
	CreateGroup(ctx context.Context, g *models.Group) error
	CreateUser(ctx context.Context, u *models.User) error
	CreateExercise(ctx context.Context, e *models.Exercise) error
	CreateFlag(ctx context.Context, f *models.Flag) error
	SaveLabExecution(ctx context.Context, e *models.LabExecution) error
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB              *sqlx.DB
	Converter       func(string) string
	UniqueViolation func(error) bool
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory in file name order, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		logger.Info.Printf("Applying migration: %s", file.Name())
		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

// selectIn runs a query with a single "IN (?)" list. An empty list selects nothing.
func selectIn[T any](ctx context.Context, s *BaseStore, query string, ids []int64) ([]T, error) {
	var out []T
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to expand query: %w", err)
	}
	if err := s.DB.SelectContext(ctx, &out, s.Converter(q), args...); err != nil {
		return nil, err
	}
	return out, nil
}

func getOne[T any](ctx context.Context, s *BaseStore, query string, args ...interface{}) (*T, error) {
	var out T
	err := s.DB.GetContext(ctx, &out, s.Converter(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *BaseStore) insertReturningID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var id int64
	err := s.DB.QueryRowxContext(ctx, s.Converter(query), args...).Scan(&id)
	if err != nil && s.UniqueViolation != nil && s.UniqueViolation(err) {
		return 0, fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return id, err
}

func (s *BaseStore) execAffecting(ctx context.Context, query string, args ...interface{}) error {
	res, err := s.DB.ExecContext(ctx, s.Converter(query), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *BaseStore) ListLabs(ctx context.Context) ([]models.Lab, error) {
	var labs []models.Lab
	err := s.DB.SelectContext(ctx, &labs, `SELECT id, name, max_flag_points FROM labs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list labs: %w", err)
	}
	return labs, nil
}

func (s *BaseStore) GetLab(ctx context.Context, id int64) (*models.Lab, error) {
	lab, err := getOne[models.Lab](ctx, s, `SELECT id, name, max_flag_points FROM labs WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get lab: %w", err)
	}
	return lab, nil
}

func (s *BaseStore) ListSlots(ctx context.Context) ([]models.Slot, error) {
	var slots []models.Slot
	if err := s.DB.SelectContext(ctx, &slots, `SELECT id, name FROM slots ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

func (s *BaseStore) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := s.DB.SelectContext(ctx, &groups, `
		SELECT id, name, slot_id, show_in_scoreboard
		FROM student_groups
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

func (s *BaseStore) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	group, err := getOne[models.Group](ctx, s, `
		SELECT id, name, slot_id, show_in_scoreboard
		FROM student_groups
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

func (s *BaseStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.DB.SelectContext(ctx, &users, `
		SELECT id, name, group_id, tutor, admin
		FROM users
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *BaseStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := getOne[models.User](ctx, s, `
		SELECT id, name, group_id, tutor, admin
		FROM users
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *BaseStore) ListExercises(ctx context.Context, labIDs []int64) ([]models.Exercise, error) {
	exercises, err := selectIn[models.Exercise](ctx, s, `
		SELECT id, lab_id, number, mandatory, base_points, penalty_points, prestart_available
		FROM exercises
		WHERE lab_id IN (?)
		ORDER BY lab_id, number
	`, labIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	return exercises, nil
}

func (s *BaseStore) GetExercise(ctx context.Context, id int64) (*models.Exercise, error) {
	ex, err := getOne[models.Exercise](ctx, s, `
		SELECT id, lab_id, number, mandatory, base_points, penalty_points, prestart_available
		FROM exercises
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	return ex, nil
}

func (s *BaseStore) ListFlags(ctx context.Context, labIDs []int64) ([]models.Flag, error) {
	flags, err := selectIn[models.Flag](ctx, s, `
		SELECT id, lab_id, code, description, base_points, bounty
		FROM flags
		WHERE lab_id IN (?)
		ORDER BY lab_id, bounty, id
	`, labIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list flags: %w", err)
	}
	return flags, nil
}

func (s *BaseStore) GetFlagByCode(ctx context.Context, labID int64, code string) (*models.Flag, error) {
	flag, err := getOne[models.Flag](ctx, s, `
		SELECT id, lab_id, code, description, base_points, bounty
		FROM flags
		WHERE lab_id = ? AND code = ?
	`, labID, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get flag: %w", err)
	}
	return flag, nil
}

func (s *BaseStore) ListLabExecutions(ctx context.Context, labIDs []int64) ([]models.LabExecution, error) {
	execs, err := selectIn[models.LabExecution](ctx, s, `
		SELECT group_id, lab_id, prestart, start_time, end_time
		FROM lab_executions
		WHERE lab_id IN (?)
		ORDER BY group_id, lab_id
	`, labIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list lab executions: %w", err)
	}
	return execs, nil
}

func (s *BaseStore) ListGroupExecutions(ctx context.Context, groupID int64) ([]models.LabExecution, error) {
	var execs []models.LabExecution
	err := s.DB.SelectContext(ctx, &execs, s.Converter(`
		SELECT group_id, lab_id, prestart, start_time, end_time
		FROM lab_executions
		WHERE group_id = ?
		ORDER BY start_time
	`), groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group executions: %w", err)
	}
	return execs, nil
}

func (s *BaseStore) ListExerciseSubmissions(ctx context.Context, labIDs []int64) ([]models.ExerciseSubmission, error) {
	subs, err := selectIn[models.ExerciseSubmission](ctx, s, `
		SELECT es.id, es.exercise_id, es.user_id, es.created_at, es.passed, es.weight, es.admin_created
		FROM exercise_submissions es
		JOIN exercises e ON e.id = es.exercise_id
		WHERE e.lab_id IN (?)
		ORDER BY es.created_at, es.id
	`, labIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercise submissions: %w", err)
	}
	return subs, nil
}

func (s *BaseStore) GetExerciseSubmission(ctx context.Context, id int64) (*models.ExerciseSubmission, error) {
	sub, err := getOne[models.ExerciseSubmission](ctx, s, `
		SELECT id, exercise_id, user_id, created_at, passed, weight, admin_created
		FROM exercise_submissions
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get exercise submission: %w", err)
	}
	return sub, nil
}

func (s *BaseStore) CreateExerciseSubmission(ctx context.Context, sub *models.ExerciseSubmission) error {
	id, err := s.insertReturningID(ctx, `
		INSERT INTO exercise_submissions (exercise_id, user_id, created_at, passed, weight, admin_created)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`, sub.ExerciseID, sub.UserID, sub.Timestamp, sub.Passed, sub.Weight, sub.AdminCreated)
	if err != nil {
		return fmt.Errorf("failed to create exercise submission: %w", err)
	}
	sub.ID = id
	return nil
}

func (s *BaseStore) UpdateExerciseSubmission(ctx context.Context, sub *models.ExerciseSubmission) error {
	err := s.execAffecting(ctx, `
		UPDATE exercise_submissions
		SET exercise_id = ?, user_id = ?, created_at = ?, passed = ?, weight = ?, admin_created = ?
		WHERE id = ?
	`, sub.ExerciseID, sub.UserID, sub.Timestamp, sub.Passed, sub.Weight, sub.AdminCreated, sub.ID)
	if err != nil {
		return fmt.Errorf("failed to update exercise submission %d: %w", sub.ID, err)
	}
	return nil
}

func (s *BaseStore) DeleteExerciseSubmission(ctx context.Context, id int64) error {
	if err := s.execAffecting(ctx, `DELETE FROM exercise_submissions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete exercise submission %d: %w", id, err)
	}
	return nil
}

func (s *BaseStore) ListFlagSubmissions(ctx context.Context, labIDs []int64) ([]models.FlagSubmission, error) {
	subs, err := selectIn[models.FlagSubmission](ctx, s, `
		SELECT fs.id, fs.flag_id, fs.user_id, fs.created_at
		FROM flag_submissions fs
		JOIN flags f ON f.id = fs.flag_id
		WHERE f.lab_id IN (?)
		ORDER BY fs.created_at, fs.id
	`, labIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list flag submissions: %w", err)
	}
	return subs, nil
}

func (s *BaseStore) CreateFlagSubmission(ctx context.Context, sub *models.FlagSubmission) error {
	id, err := s.insertReturningID(ctx, `
		INSERT INTO flag_submissions (flag_id, user_id, created_at)
		VALUES (?, ?, ?)
		RETURNING id
	`, sub.FlagID, sub.UserID, sub.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to create flag submission: %w", err)
	}
	sub.ID = id
	return nil
}

func (s *BaseStore) DeleteFlagSubmission(ctx context.Context, id int64) error {
	if err := s.execAffecting(ctx, `DELETE FROM flag_submissions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete flag submission %d: %w", id, err)
	}
	return nil
}

func (s *BaseStore) CreateLab(ctx context.Context, l *models.Lab) error {
	id, err := s.insertReturningID(ctx, `
		INSERT INTO labs (name, max_flag_points) VALUES (?, ?) RETURNING id
	`, l.Name, l.MaxFlagPoints)
	if err != nil {
		return fmt.Errorf("failed to create lab: %w", err)
	}
	l.ID = id
	return nil
}

func (s *BaseStore) CreateSlot(ctx context.Context, sl *models.Slot) error {
	id, err := s.insertReturningID(ctx, `INSERT INTO slots (name) VALUES (?) RETURNING id`, sl.Name)
	if err != nil {
		return fmt.Errorf("failed to create slot: %w", err)
	}
	sl.ID = id
	return nil
}

func (s *BaseStore) CreateGroup(ctx context.Context, g *models.Group) error {
	id, err := s.insertReturningID(ctx, `
		INSERT INTO student_groups (name, slot_id, show_in_scoreboard) VALUES (?, ?, ?) RETURNING id
	`, g.Name, g.SlotID, g.ShowInScoreboard)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	g.ID = id
	return nil
}

func (s *BaseStore) CreateUser(ctx context.Context, u *models.User) error {
	id, err := s.insertReturningID(ctx, `
		INSERT INTO users (name, group_id, tutor, admin) VALUES (?, ?, ?, ?) RETURNING id
	`, u.Name, u.GroupID, u.Tutor, u.Admin)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.ID = id
	return nil
}

func (s *BaseStore) CreateExercise(ctx context.Context, e *models.Exercise) error {
	id, err := s.insertReturningID(ctx, `
		INSERT INTO exercises (lab_id, number, mandatory, base_points, penalty_points, prestart_available)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`, e.LabID, e.Number, e.Mandatory, e.BasePoints, e.PenaltyPoints, e.PreStartAvailable)
	if err != nil {
		return fmt.Errorf("failed to create exercise: %w", err)
	}
	e.ID = id
	return nil
}

func (s *BaseStore) CreateFlag(ctx context.Context, f *models.Flag) error {
	id, err := s.insertReturningID(ctx, `
		INSERT INTO flags (lab_id, code, description, base_points, bounty)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, f.LabID, f.Code, f.Description, f.BasePoints, f.Bounty)
	if err != nil {
		return fmt.Errorf("failed to create flag: %w", err)
	}
	f.ID = id
	return nil
}

func (s *BaseStore) SaveLabExecution(ctx context.Context, e *models.LabExecution) error {
	_, err := s.DB.ExecContext(ctx, s.Converter(`
		INSERT INTO lab_executions (group_id, lab_id, prestart, start_time, end_time)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (group_id, lab_id) DO UPDATE SET
		prestart = excluded.prestart,
		start_time = excluded.start_time,
		end_time = excluded.end_time
	`), e.GroupID, e.LabID, e.PreStart, e.Start, e.End)
	if err != nil {
		return fmt.Errorf("failed to save lab execution: %w", err)
	}
	return nil
}
