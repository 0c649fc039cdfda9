package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/labscore/internal/cache"
	"github.com/shrimpsizemoose/labscore/internal/models"
	"github.com/shrimpsizemoose/labscore/internal/scoring"
	"github.com/shrimpsizemoose/labscore/internal/store"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

const testConfig = `
[server]
port = ":8080"

[database]
dsn = "file::memory:"

[scoring]
min_points_divisor = 4
half_points_count = 5
pass_as_group = true

[scoreboard]
entry_count = 3
cache_seconds = 30
`

func id(v int64) *int64 {
	return &v
}

func newTestService(t *testing.T, withCache bool) (*Service, *MockStore, *time.Time) {
	config, err := ParseConfig([]byte(testConfig))
	require.NoError(t, err)

	st := new(MockStore)
	var boardCache cache.BoardCache
	if withCache {
		boardCache = cache.NewMemoryCache()
	}

	s, err := NewServiceWith(config, st, boardCache, nil)
	require.NoError(t, err)

	now := t0.Add(time.Hour)
	s.Now = func() time.Time { return now }
	return s, st, &now
}

func expectLab(st *MockStore) {
	st.On("GetLab", int64(1)).Return(&models.Lab{ID: 1, Name: "web"}, nil)
	st.On("GetLab", int64(99)).Return(nil, nil)
	st.On("ListGroups").Return([]models.Group{
		{ID: 1, Name: "alpha", ShowInScoreboard: true},
		{ID: 2, Name: "bravo", ShowInScoreboard: true},
	}, nil)
	st.On("ListUsers").Return([]models.User{
		{ID: 1, Name: "ann", GroupID: id(1)},
		{ID: 2, Name: "bob", GroupID: id(2)},
	}, nil)
	st.On("ListExercises", mock.Anything).Return([]models.Exercise{
		{ID: 11, LabID: 1, Number: 1, Mandatory: true, BasePoints: 100, PenaltyPoints: 20},
	}, nil)
	st.On("ListFlags", mock.Anything).Return([]models.Flag{
		{ID: 21, LabID: 1, Code: "FLAG{sqli}", BasePoints: 100},
	}, nil)
	st.On("ListLabExecutions", mock.Anything).Return([]models.LabExecution{
		{GroupID: 1, LabID: 1, Start: t0, End: t0.Add(2 * time.Hour)},
		{GroupID: 2, LabID: 1, Start: t0, End: t0.Add(2 * time.Hour)},
	}, nil)
	st.On("ListExerciseSubmissions", mock.Anything).Return([]models.ExerciseSubmission{
		{ID: 1, ExerciseID: 11, UserID: 1, Timestamp: t0.Add(5 * time.Minute), Passed: true, Weight: 1},
	}, nil)
	st.On("ListFlagSubmissions", mock.Anything).Return([]models.FlagSubmission{}, nil)
}

func TestScoreboard_CacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, st, _ := newTestService(t, true)
	expectLab(st)

	first, err := s.Scoreboard(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "alpha", first.Entries[0].GroupName)
	assert.Equal(t, 100, first.Entries[0].TotalPoints)
	assert.Equal(t, t0.Add(time.Hour+30*time.Second), first.ValidUntil)

	second, err := s.Scoreboard(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	st.AssertNumberOfCalls(t, "GetLab", 1)
	st.AssertNumberOfCalls(t, "ListGroups", 1)
	st.AssertNumberOfCalls(t, "ListExerciseSubmissions", 1)
}

func TestScoreboard_Expiry(t *testing.T) {
	ctx := context.Background()
	s, st, now := newTestService(t, true)
	expectLab(st)

	_, err := s.Scoreboard(ctx, 1)
	require.NoError(t, err)

	*now = now.Add(31 * time.Second)
	_, err = s.Scoreboard(ctx, 1)
	require.NoError(t, err)

	st.AssertNumberOfCalls(t, "ListGroups", 2)
}

func TestScoreboard_WithoutCache(t *testing.T) {
	ctx := context.Background()
	s, st, _ := newTestService(t, false)
	expectLab(st)

	for i := 0; i < 3; i++ {
		_, err := s.Scoreboard(ctx, 1)
		require.NoError(t, err)
	}

	st.AssertNumberOfCalls(t, "ListGroups", 3)
}

func TestScoreboard_MissingLab(t *testing.T) {
	s, st, _ := newTestService(t, true)
	expectLab(st)

	board, err := s.Scoreboard(context.Background(), 99)
	assert.NoError(t, err)
	assert.Nil(t, board)
	st.AssertNotCalled(t, "ListGroups")
}

func TestScoreboard_StoreError(t *testing.T) {
	s, st, _ := newTestService(t, true)
	st.On("ListLabs").Return([]models.Lab(nil), fmt.Errorf("connection refused"))

	board, err := s.Scoreboard(context.Background(), scoring.AllLabs)
	assert.Error(t, err)
	assert.Nil(t, board)
}

func TestSubmissions_InvalidateCache(t *testing.T) {
	ctx := context.Background()
	s, st, _ := newTestService(t, true)
	expectLab(st)
	st.On("GetExercise", int64(11)).Return(&models.Exercise{ID: 11, LabID: 1}, nil)
	st.On("GetUser", int64(2)).Return(&models.User{ID: 2, GroupID: id(2)}, nil)
	st.On("CreateExerciseSubmission", mock.Anything).Return(nil)
	st.On("DeleteExerciseSubmission", int64(1)).Return(nil)

	_, err := s.Scoreboard(ctx, 1)
	require.NoError(t, err)

	sub := &models.ExerciseSubmission{ExerciseID: 11, UserID: 2, Passed: true, Weight: 3}
	require.NoError(t, s.CreateExerciseSubmission(ctx, sub))
	assert.Equal(t, 1, sub.Weight)
	assert.Equal(t, s.Now(), sub.Timestamp)

	_, err = s.Scoreboard(ctx, 1)
	require.NoError(t, err)
	st.AssertNumberOfCalls(t, "ListGroups", 2)

	require.NoError(t, s.DeleteExerciseSubmission(ctx, 1))
	_, err = s.Scoreboard(ctx, 1)
	require.NoError(t, err)
	st.AssertNumberOfCalls(t, "ListGroups", 3)
}

func TestCreateExerciseSubmission_Rejects(t *testing.T) {
	ctx := context.Background()
	s, st, _ := newTestService(t, true)
	st.On("GetExercise", int64(11)).Return(&models.Exercise{ID: 11, LabID: 1}, nil)
	st.On("GetExercise", int64(12)).Return(nil, nil)
	st.On("GetUser", int64(99)).Return(nil, nil)

	err := s.CreateExerciseSubmission(ctx, &models.ExerciseSubmission{ExerciseID: 12, UserID: 1})
	assert.ErrorIs(t, err, ErrExerciseNotFound)

	err = s.CreateExerciseSubmission(ctx, &models.ExerciseSubmission{ExerciseID: 11, UserID: 99})
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = s.CreateExerciseSubmission(ctx, &models.ExerciseSubmission{UserID: 1})
	assert.Error(t, err)

	st.AssertNotCalled(t, "CreateExerciseSubmission", mock.Anything)
}

func TestUpdateExerciseSubmission_KeepsStoredTimestamp(t *testing.T) {
	ctx := context.Background()
	s, st, now := newTestService(t, true)
	stamped := t0.Add(-48 * time.Hour)
	st.On("GetExerciseSubmission", int64(5)).
		Return(&models.ExerciseSubmission{ID: 5, ExerciseID: 11, UserID: 2, Timestamp: stamped}, nil)
	st.On("GetExerciseSubmission", int64(6)).Return(nil, nil)
	st.On("GetExercise", int64(11)).Return(&models.Exercise{ID: 11, LabID: 1}, nil)
	st.On("GetUser", int64(2)).Return(&models.User{ID: 2, GroupID: id(2)}, nil)
	st.On("UpdateExerciseSubmission", mock.Anything).Return(nil)
	*now = t0.Add(time.Hour)

	sub := &models.ExerciseSubmission{ID: 5, ExerciseID: 11, UserID: 2, Passed: true}
	require.NoError(t, s.UpdateExerciseSubmission(ctx, sub))
	assert.Equal(t, stamped, sub.Timestamp)
	assert.NotEqual(t, s.Now(), sub.Timestamp)

	err := s.UpdateExerciseSubmission(ctx, &models.ExerciseSubmission{ID: 6, ExerciseID: 11, UserID: 2})
	assert.ErrorIs(t, err, store.ErrNotFound)
	st.AssertNumberOfCalls(t, "UpdateExerciseSubmission", 1)

	explicit := t0.Add(-time.Hour)
	sub = &models.ExerciseSubmission{ID: 5, ExerciseID: 11, UserID: 2, Timestamp: explicit}
	require.NoError(t, s.UpdateExerciseSubmission(ctx, sub))
	assert.Equal(t, explicit, sub.Timestamp)
	st.AssertNumberOfCalls(t, "GetExerciseSubmission", 2)
}

func TestSubmitFlag(t *testing.T) {
	ctx := context.Background()
	s, st, _ := newTestService(t, true)
	flag := &models.Flag{ID: 21, LabID: 1, Code: "FLAG{sqli}", BasePoints: 100}
	st.On("GetFlagByCode", int64(1), "FLAG{sqli}").Return(flag, nil)
	st.On("GetFlagByCode", int64(1), "FLAG{nope}").Return(nil, nil)

	t.Run("accepted", func(t *testing.T) {
		st.On("CreateFlagSubmission", mock.Anything).Return(nil).Once()

		sub, err := s.SubmitFlag(ctx, 1, 7, "FLAG{sqli}")
		require.NoError(t, err)
		assert.Equal(t, int64(21), sub.FlagID)
		assert.Equal(t, int64(7), sub.UserID)
		assert.Equal(t, s.Now(), sub.Timestamp)
	})

	t.Run("wrong code", func(t *testing.T) {
		_, err := s.SubmitFlag(ctx, 1, 7, "FLAG{nope}")
		assert.ErrorIs(t, err, ErrFlagNotFound)
	})

	t.Run("duplicate", func(t *testing.T) {
		st.On("CreateFlagSubmission", mock.Anything).
			Return(fmt.Errorf("failed to create flag submission: %w", store.ErrDuplicate)).Once()

		_, err := s.SubmitFlag(ctx, 1, 7, "FLAG{sqli}")
		assert.ErrorIs(t, err, ErrFlagAlreadySubmitted)
	})
}

func TestDefaultLab(t *testing.T) {
	ctx := context.Background()
	s, st, _ := newTestService(t, false)
	st.On("ListGroupExecutions", int64(1)).Return([]models.LabExecution{
		{GroupID: 1, LabID: 1, Start: t0.Add(-72 * time.Hour), End: t0.Add(-70 * time.Hour)},
		{GroupID: 1, LabID: 2, Start: t0, End: t0.Add(2 * time.Hour)},
	}, nil)
	st.On("ListGroupExecutions", int64(2)).Return([]models.LabExecution{}, nil)
	st.On("GetLab", int64(2)).Return(&models.Lab{ID: 2, Name: "crypto"}, nil)

	lab, err := s.DefaultLab(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, lab)
	assert.Equal(t, "crypto", lab.Name)

	lab, err = s.DefaultLab(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, lab)
}
