package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/coursehub/progress-service/internal/models"
)

func newLessonServiceForTest(
	catalog *mockCatalogRepo,
	progress *mockContentProgressRepo,
	attempts *mockQuizAttemptRepo,
	completions *mockLessonCompletionRepo,
	claimer *mockClaimer,
	milestones *mockMilestoneEvaluator,
	streaks *mockStreakToucher,
) *lessonCompletionService {
	logger, _ := zap.NewDevelopment()
	return NewLessonCompletionService(
		&mockEnrollmentRepo{enrollment: &models.Enrollment{ID: 10, UserID: 1, CourseID: 2}},
		catalog,
		progress,
		attempts,
		completions,
		claimer,
		milestones,
		streaks,
		logger,
	)
}

func TestLessonCompletionService_EvaluateLesson_Predicates(t *testing.T) {
	tests := []struct {
		name              string
		requiredCount     int
		completedRequired int
		hasQuiz           bool
		bestAttempt       *models.QuizAttempt
		expectedComplete  bool
	}{
		{
			name:              "content done and quiz passed",
			requiredCount:     2,
			completedRequired: 2,
			hasQuiz:           true,
			bestAttempt:       &models.QuizAttempt{Score: 4, Total: 5},
			expectedComplete:  true,
		},
		{
			name:              "content incomplete blocks completion",
			requiredCount:     2,
			completedRequired: 1,
			hasQuiz:           true,
			bestAttempt:       &models.QuizAttempt{Score: 5, Total: 5},
			expectedComplete:  false,
		},
		{
			name:              "best attempt below threshold blocks completion",
			requiredCount:     1,
			completedRequired: 1,
			hasQuiz:           true,
			bestAttempt:       &models.QuizAttempt{Score: 3, Total: 5},
			expectedComplete:  false,
		},
		{
			name:              "quiz never attempted blocks completion",
			requiredCount:     1,
			completedRequired: 1,
			hasQuiz:           true,
			expectedComplete:  false,
		},
		{
			name:             "no required content and no quiz is vacuously complete",
			expectedComplete: true,
		},
		{
			name:             "quiz-only lesson completes on a pass",
			hasQuiz:          true,
			bestAttempt:      &models.QuizAttempt{Score: 8, Total: 10},
			expectedComplete: true,
		},
		{
			name:              "content-only lesson completes without a quiz",
			requiredCount:     3,
			completedRequired: 3,
			expectedComplete:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completions := &mockLessonCompletionRepo{}
			svc := newLessonServiceForTest(
				&mockCatalogRepo{requiredCount: tt.requiredCount, hasQuiz: tt.hasQuiz, lessonsInCourse: 10},
				&mockContentProgressRepo{completedRequired: tt.completedRequired},
				&mockQuizAttemptRepo{best: tt.bestAttempt},
				completions,
				&mockClaimer{},
				&mockMilestoneEvaluator{},
				&mockStreakToucher{},
			)

			evaluation, err := svc.EvaluateLesson(context.Background(),
				&models.Enrollment{ID: 10, UserID: 1, CourseID: 2},
				&models.Lesson{ID: 20, UnitID: 5, CourseID: 2})

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedComplete, evaluation.NewlyComplete)
			assert.Equal(t, tt.expectedComplete, completions.completions[[2]int{10, 20}])
		})
	}
}

func TestLessonCompletionService_EvaluateLesson_SecondEvaluationIsNoOp(t *testing.T) {
	claimer := &mockClaimer{unitResult: &models.ClaimResult{Success: true, Amount: 50}}
	streaks := &mockStreakToucher{}
	svc := newLessonServiceForTest(
		&mockCatalogRepo{lessonsInCourse: 10},
		&mockContentProgressRepo{},
		&mockQuizAttemptRepo{},
		&mockLessonCompletionRepo{},
		claimer,
		&mockMilestoneEvaluator{},
		streaks,
	)
	enrollment := &models.Enrollment{ID: 10, UserID: 1, CourseID: 2}
	lesson := &models.Lesson{ID: 20, UnitID: 5, CourseID: 2}

	first, err := svc.EvaluateLesson(context.Background(), enrollment, lesson)
	assert.NoError(t, err)
	assert.True(t, first.NewlyComplete)
	assert.True(t, first.UnitRewardAwarded)

	second, err := svc.EvaluateLesson(context.Background(), enrollment, lesson)
	assert.NoError(t, err)
	assert.False(t, second.NewlyComplete)
	assert.False(t, second.UnitRewardAwarded)

	// The cascade ran only for the first transition.
	assert.Equal(t, []int{5}, claimer.claimedUnits)
	assert.Equal(t, 1, streaks.touches)
}

func TestLessonCompletionService_EvaluateLesson_Cascade(t *testing.T) {
	tests := []struct {
		name           string
		groupName      string
		expectedGroups []string
	}{
		{name: "grouped lesson claims its group", groupName: "sql-basics", expectedGroups: []string{"sql-basics"}},
		{name: "ungrouped lesson skips group claim", groupName: "", expectedGroups: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claimer := &mockClaimer{}
			milestones := &mockMilestoneEvaluator{}
			streaks := &mockStreakToucher{}
			completions := &mockLessonCompletionRepo{countByEnrollment: 5}
			svc := newLessonServiceForTest(
				&mockCatalogRepo{lessonsInCourse: 10},
				&mockContentProgressRepo{},
				&mockQuizAttemptRepo{},
				completions,
				claimer,
				milestones,
				streaks,
			)

			evaluation, err := svc.EvaluateLesson(context.Background(),
				&models.Enrollment{ID: 10, UserID: 1, CourseID: 2},
				&models.Lesson{ID: 20, UnitID: 5, CourseID: 2, GroupName: tt.groupName})

			assert.NoError(t, err)
			assert.True(t, evaluation.NewlyComplete)
			assert.Equal(t, []int{5}, claimer.claimedUnits)
			assert.Equal(t, tt.expectedGroups, claimer.claimedGroups)
			assert.Equal(t, 1, milestones.calls)
			// 6 of 10 lessons complete once MarkComplete lands; the mock count
			// is static, so the evaluator sees 5 of 10.
			assert.Equal(t, 50, milestones.lastPercent)
			assert.Equal(t, 1, streaks.touches)
		})
	}
}

func TestLessonCompletionService_EvaluateLesson_CascadeFailuresAreNotFatal(t *testing.T) {
	claimer := &mockClaimer{
		unitErr:  errors.New("database error"),
		groupErr: errors.New("database error"),
	}
	milestones := &mockMilestoneEvaluator{err: errors.New("database error")}
	streaks := &mockStreakToucher{err: errors.New("database error")}
	svc := newLessonServiceForTest(
		&mockCatalogRepo{lessonsInCourse: 10},
		&mockContentProgressRepo{},
		&mockQuizAttemptRepo{},
		&mockLessonCompletionRepo{},
		claimer,
		milestones,
		streaks,
	)

	evaluation, err := svc.EvaluateLesson(context.Background(),
		&models.Enrollment{ID: 10, UserID: 1, CourseID: 2},
		&models.Lesson{ID: 20, UnitID: 5, CourseID: 2, GroupName: "sql-basics"})

	assert.NoError(t, err)
	assert.True(t, evaluation.NewlyComplete)
	assert.False(t, evaluation.UnitRewardAwarded)
	// Every stage was attempted despite the failures before it.
	assert.Equal(t, []int{5}, claimer.claimedUnits)
	assert.Equal(t, []string{"sql-basics"}, claimer.claimedGroups)
	assert.Equal(t, 1, streaks.touches)
}

func TestLessonCompletionService_CourseProgressPercent(t *testing.T) {
	tests := []struct {
		name            string
		totalLessons    int
		completed       int
		expectedPercent int
	}{
		{name: "half complete", totalLessons: 10, completed: 5, expectedPercent: 50},
		{name: "fully complete", totalLessons: 10, completed: 10, expectedPercent: 100},
		{name: "rounds down", totalLessons: 3, completed: 2, expectedPercent: 66},
		{name: "empty course", totalLessons: 0, completed: 0, expectedPercent: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newLessonServiceForTest(
				&mockCatalogRepo{lessonsInCourse: tt.totalLessons},
				&mockContentProgressRepo{},
				&mockQuizAttemptRepo{},
				&mockLessonCompletionRepo{countByEnrollment: tt.completed},
				&mockClaimer{},
				&mockMilestoneEvaluator{},
				&mockStreakToucher{},
			)

			percent, err := svc.CourseProgressPercent(context.Background(),
				&models.Enrollment{ID: 10, UserID: 1, CourseID: 2})

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedPercent, percent)
		})
	}
}

func TestLessonCompletionService_CourseProgress(t *testing.T) {
	svc := newLessonServiceForTest(
		&mockCatalogRepo{lessonsInCourse: 8},
		&mockContentProgressRepo{},
		&mockQuizAttemptRepo{},
		&mockLessonCompletionRepo{countByEnrollment: 2},
		&mockClaimer{},
		&mockMilestoneEvaluator{},
		&mockStreakToucher{},
	)

	response, err := svc.CourseProgress(context.Background(), 1, 2)

	assert.NoError(t, err)
	assert.Equal(t, 2, response.CourseID)
	assert.Equal(t, 2, response.CompletedLessons)
	assert.Equal(t, 8, response.TotalLessons)
	assert.Equal(t, 25, response.Percent)
}

func TestLessonCompletionService_CourseProgress_NotEnrolled(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	svc := NewLessonCompletionService(
		&mockEnrollmentRepo{},
		&mockCatalogRepo{},
		&mockContentProgressRepo{},
		&mockQuizAttemptRepo{},
		&mockLessonCompletionRepo{},
		&mockClaimer{},
		&mockMilestoneEvaluator{},
		&mockStreakToucher{},
		logger,
	)

	response, err := svc.CourseProgress(context.Background(), 1, 2)

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrNotEnrolled)
	assert.Nil(t, response)
}

func TestLessonCompletionService_EvaluateMilestones(t *testing.T) {
	milestones := &mockMilestoneEvaluator{
		results: []models.MilestoneResult{
			{Threshold: 25, Awarded: true, Amount: 30},
		},
	}
	svc := newLessonServiceForTest(
		&mockCatalogRepo{lessonsInCourse: 4},
		&mockContentProgressRepo{},
		&mockQuizAttemptRepo{},
		&mockLessonCompletionRepo{countByEnrollment: 1},
		&mockClaimer{},
		milestones,
		&mockStreakToucher{},
	)

	results, err := svc.EvaluateMilestones(context.Background(), 1, 2)

	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 25, milestones.lastPercent)
}
