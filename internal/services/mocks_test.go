package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursehub/progress-service/internal/models"
)

// ledgerCall records one award request seen by the mock ledger
type ledgerCall struct {
	userID    int
	amount    int
	category  models.RewardCategory
	reference string
}

// mockLedger is an in-memory reward ledger: it pays each
// (user, category, reference) key once, like the real unique constraint
type mockLedger struct {
	err   error
	calls []ledgerCall
	paid  map[string]bool
}

func (m *mockLedger) Award(ctx context.Context, userID, amount int, category models.RewardCategory, reference, description string, metadata map[string]any) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.calls = append(m.calls, ledgerCall{userID: userID, amount: amount, category: category, reference: reference})
	key := fmt.Sprintf("%d|%s|%s", userID, category, reference)
	if m.paid == nil {
		m.paid = make(map[string]bool)
	}
	if m.paid[key] {
		return false, nil
	}
	m.paid[key] = true
	return true, nil
}

// paidTotal sums the amounts of awards that actually went through
func (m *mockLedger) paidTotal() int {
	seen := make(map[string]bool)
	total := 0
	for _, c := range m.calls {
		key := fmt.Sprintf("%d|%s|%s", c.userID, c.category, c.reference)
		if !seen[key] {
			seen[key] = true
			total += c.amount
		}
	}
	return total
}

// mockEnrollmentRepo is a mock implementation of EnrollmentRepository
type mockEnrollmentRepo struct {
	enrollment    *models.Enrollment
	err           error
	claimedUnits  map[int]bool
	claimedGroups map[string]bool
}

func (m *mockEnrollmentRepo) GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.Enrollment, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.enrollment == nil || m.enrollment.UserID != userID || m.enrollment.CourseID != courseID {
		return nil, errors.New("enrollment not found")
	}
	return m.enrollment, nil
}

func (m *mockEnrollmentRepo) HasClaimedUnit(ctx context.Context, enrollmentID, unitID int) (bool, error) {
	return m.claimedUnits[unitID], nil
}

func (m *mockEnrollmentRepo) AddClaimedUnit(ctx context.Context, enrollmentID, unitID int) (bool, error) {
	if m.claimedUnits == nil {
		m.claimedUnits = make(map[int]bool)
	}
	if m.claimedUnits[unitID] {
		return false, nil
	}
	m.claimedUnits[unitID] = true
	return true, nil
}

func (m *mockEnrollmentRepo) HasClaimedGroup(ctx context.Context, enrollmentID int, groupName string) (bool, error) {
	return m.claimedGroups[groupName], nil
}

func (m *mockEnrollmentRepo) AddClaimedGroup(ctx context.Context, enrollmentID int, groupName string) (bool, error) {
	if m.claimedGroups == nil {
		m.claimedGroups = make(map[string]bool)
	}
	if m.claimedGroups[groupName] {
		return false, nil
	}
	m.claimedGroups[groupName] = true
	return true, nil
}

func (m *mockEnrollmentRepo) CountClaimedGroups(ctx context.Context, enrollmentID int) (int, error) {
	return len(m.claimedGroups), nil
}

// mockCatalogRepo is a mock implementation of CatalogRepository
type mockCatalogRepo struct {
	course          *models.Course
	unit            *models.Unit
	lesson          *models.Lesson
	item            *models.ContentItem
	requiredCount   int
	hasQuiz         bool
	lessonsInUnit   int
	lessonsInCourse int
	lessonsInGroup  int
	err             error
}

func (m *mockCatalogRepo) GetCourse(ctx context.Context, id int) (*models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.course == nil {
		return nil, errors.New("course not found")
	}
	return m.course, nil
}

func (m *mockCatalogRepo) GetUnit(ctx context.Context, id int) (*models.Unit, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.unit == nil {
		return nil, errors.New("unit not found")
	}
	return m.unit, nil
}

func (m *mockCatalogRepo) GetLesson(ctx context.Context, id int) (*models.Lesson, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.lesson == nil {
		return nil, errors.New("lesson not found")
	}
	return m.lesson, nil
}

func (m *mockCatalogRepo) GetContentItem(ctx context.Context, id int) (*models.ContentItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.item == nil {
		return nil, errors.New("content item not found")
	}
	return m.item, nil
}

func (m *mockCatalogRepo) CountRequiredContentForLesson(ctx context.Context, lessonID int) (int, error) {
	return m.requiredCount, m.err
}

func (m *mockCatalogRepo) LessonHasQuiz(ctx context.Context, lessonID int) (bool, error) {
	return m.hasQuiz, m.err
}

func (m *mockCatalogRepo) CountLessonsInUnit(ctx context.Context, unitID int) (int, error) {
	return m.lessonsInUnit, m.err
}

func (m *mockCatalogRepo) CountLessonsInCourse(ctx context.Context, courseID int) (int, error) {
	return m.lessonsInCourse, m.err
}

func (m *mockCatalogRepo) CountLessonsInGroup(ctx context.Context, courseID int, groupName string) (int, error) {
	return m.lessonsInGroup, m.err
}

// mockContentProgressRepo is a mock implementation of ContentProgressRepository
type mockContentProgressRepo struct {
	existing          *models.ContentProgress
	upserted          []*models.ContentProgress
	completedRequired int
	err               error
}

func (m *mockContentProgressRepo) GetByEnrollmentAndContent(ctx context.Context, enrollmentID, contentID int) (*models.ContentProgress, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.existing, nil
}

func (m *mockContentProgressRepo) Upsert(ctx context.Context, progress *models.ContentProgress) error {
	if m.err != nil {
		return m.err
	}
	m.upserted = append(m.upserted, progress)
	return nil
}

func (m *mockContentProgressRepo) CountCompletedRequiredForLesson(ctx context.Context, enrollmentID, lessonID int) (int, error) {
	return m.completedRequired, m.err
}

// mockQuizAttemptRepo is a mock implementation of QuizAttemptRepository
type mockQuizAttemptRepo struct {
	created    []*models.QuizAttempt
	priorCount int
	best       *models.QuizAttempt
	err        error
}

func (m *mockQuizAttemptRepo) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	if m.err != nil {
		return m.err
	}
	attempt.ID = len(m.created) + 1
	m.created = append(m.created, attempt)
	return nil
}

func (m *mockQuizAttemptRepo) CountByEnrollmentAndLesson(ctx context.Context, enrollmentID, lessonID int) (int, error) {
	return m.priorCount, m.err
}

func (m *mockQuizAttemptRepo) GetBestAttempt(ctx context.Context, enrollmentID, lessonID int) (*models.QuizAttempt, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.best, nil
}

// mockLessonCompletionRepo is a mock implementation of LessonCompletionRepository
// with write-once MarkComplete semantics
type mockLessonCompletionRepo struct {
	completions       map[[2]int]bool
	countByEnrollment int
	countForUnit      int
	countForGroup     int
	err               error
}

func (m *mockLessonCompletionRepo) MarkComplete(ctx context.Context, enrollmentID, lessonID int) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	key := [2]int{enrollmentID, lessonID}
	if m.completions == nil {
		m.completions = make(map[[2]int]bool)
	}
	if m.completions[key] {
		return false, nil
	}
	m.completions[key] = true
	return true, nil
}

func (m *mockLessonCompletionRepo) Exists(ctx context.Context, enrollmentID, lessonID int) (bool, error) {
	return m.completions[[2]int{enrollmentID, lessonID}], m.err
}

func (m *mockLessonCompletionRepo) CountByEnrollment(ctx context.Context, enrollmentID int) (int, error) {
	return m.countByEnrollment, m.err
}

func (m *mockLessonCompletionRepo) CountCompletedForUnit(ctx context.Context, enrollmentID, unitID int) (int, error) {
	return m.countForUnit, m.err
}

func (m *mockLessonCompletionRepo) CountCompletedForGroup(ctx context.Context, enrollmentID int, groupName string) (int, error) {
	return m.countForGroup, m.err
}

// mockLessonEvaluator is a mock implementation of LessonEvaluator
type mockLessonEvaluator struct {
	evaluation *LessonEvaluation
	err        error
	calls      int
}

func (m *mockLessonEvaluator) EvaluateLesson(ctx context.Context, enrollment *models.Enrollment, lesson *models.Lesson) (*LessonEvaluation, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.evaluation == nil {
		return &LessonEvaluation{}, nil
	}
	return m.evaluation, nil
}

// mockClaimer is a mock implementation of UnitGroupClaimer
type mockClaimer struct {
	unitResult    *models.ClaimResult
	groupResult   *models.ClaimResult
	unitErr       error
	groupErr      error
	claimedUnits  []int
	claimedGroups []string
}

func (m *mockClaimer) ClaimUnit(ctx context.Context, enrollment *models.Enrollment, unitID int) (*models.ClaimResult, error) {
	m.claimedUnits = append(m.claimedUnits, unitID)
	if m.unitErr != nil {
		return nil, m.unitErr
	}
	if m.unitResult == nil {
		return &models.ClaimResult{}, nil
	}
	return m.unitResult, nil
}

func (m *mockClaimer) ClaimGroup(ctx context.Context, enrollment *models.Enrollment, groupName string) (*models.ClaimResult, error) {
	m.claimedGroups = append(m.claimedGroups, groupName)
	if m.groupErr != nil {
		return nil, m.groupErr
	}
	if m.groupResult == nil {
		return &models.ClaimResult{}, nil
	}
	return m.groupResult, nil
}

// mockMilestoneEvaluator is a mock implementation of MilestoneEvaluator
type mockMilestoneEvaluator struct {
	results     []models.MilestoneResult
	err         error
	lastPercent int
	calls       int
}

func (m *mockMilestoneEvaluator) Evaluate(ctx context.Context, enrollment *models.Enrollment, progressPercent int) ([]models.MilestoneResult, error) {
	m.calls++
	m.lastPercent = progressPercent
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

// mockStreakToucher is a mock implementation of StreakToucher
type mockStreakToucher struct {
	result  *models.TouchStreakResult
	err     error
	touches int
}

func (m *mockStreakToucher) Touch(ctx context.Context, userID int) (*models.TouchStreakResult, error) {
	m.touches++
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &models.TouchStreakResult{}, nil
	}
	return m.result, nil
}

// mockBadgeRepo is a mock implementation of BadgeRepository with
// unlock-if-not-unlocked semantics
type mockBadgeRepo struct {
	badges          []models.Badge
	userBadges      []models.UserBadge
	unlocked        map[int]bool
	progressUpserts map[int]int
	err             error
}

func (m *mockBadgeRepo) GetAll(ctx context.Context) ([]models.Badge, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.badges, nil
}

func (m *mockBadgeRepo) GetUserBadges(ctx context.Context, userID int) ([]models.UserBadge, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.userBadges, nil
}

func (m *mockBadgeRepo) Unlock(ctx context.Context, userID, badgeID, progress int) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.unlocked == nil {
		m.unlocked = make(map[int]bool)
	}
	if m.unlocked[badgeID] {
		return false, nil
	}
	m.unlocked[badgeID] = true
	return true, nil
}

func (m *mockBadgeRepo) UpsertProgress(ctx context.Context, userID, badgeID, progress int) error {
	if m.progressUpserts == nil {
		m.progressUpserts = make(map[int]int)
	}
	m.progressUpserts[badgeID] = progress
	return m.err
}

// mockStatsRepo is a mock implementation of StatsRepository
type mockStatsRepo struct {
	completedCourses           int
	completedCoursesByCategory map[string]int
	completedLessons           int
	quizAttempts               int
	perfectQuizAttempts        int
	unlockedBadges             int
	err                        error
}

func (m *mockStatsRepo) CountCompletedCourses(ctx context.Context, userID int) (int, error) {
	return m.completedCourses, m.err
}

func (m *mockStatsRepo) CountCompletedCoursesByCategory(ctx context.Context, userID int, category string) (int, error) {
	return m.completedCoursesByCategory[category], m.err
}

func (m *mockStatsRepo) CountCompletedLessons(ctx context.Context, userID int) (int, error) {
	return m.completedLessons, m.err
}

func (m *mockStatsRepo) CountQuizAttempts(ctx context.Context, userID int) (int, error) {
	return m.quizAttempts, m.err
}

func (m *mockStatsRepo) CountPerfectQuizAttempts(ctx context.Context, userID int) (int, error) {
	return m.perfectQuizAttempts, m.err
}

func (m *mockStatsRepo) CountUnlockedBadges(ctx context.Context, userID int) (int, error) {
	return m.unlockedBadges, m.err
}

// mockStreakRepo is a mock implementation of StreakRepository
type mockStreakRepo struct {
	state    *models.StreakState
	upserted *models.StreakState
	err      error
}

func (m *mockStreakRepo) Get(ctx context.Context, userID int) (*models.StreakState, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockStreakRepo) Upsert(ctx context.Context, state *models.StreakState) error {
	if m.err != nil {
		return m.err
	}
	m.upserted = state
	return nil
}

// mockBalanceReader is a mock implementation of BalanceReader
type mockBalanceReader struct {
	balance int
	err     error
}

func (m *mockBalanceReader) Balance(ctx context.Context, userID int) (int, error) {
	return m.balance, m.err
}

// mockBadgeRefresher is a mock implementation of BadgeRefresher
type mockBadgeRefresher struct {
	response *models.RefreshBadgesResponse
	err      error
	calls    int
}

func (m *mockBadgeRefresher) Refresh(ctx context.Context, userID int) (*models.RefreshBadgesResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.response == nil {
		return &models.RefreshBadgesResponse{}, nil
	}
	return m.response, nil
}

// mockRewardRepo is a mock implementation of RewardRepository
type mockRewardRepo struct {
	exists       bool
	duplicate    bool
	sum          int
	transactions []models.RewardTransaction
	total        int
	created      []*models.RewardTransaction
	existsErr    error
	createErr    error
	sumErr       error
	getErr       error
}

func (m *mockRewardRepo) Exists(ctx context.Context, userID int, category models.RewardCategory, reference string) (bool, error) {
	return m.exists, m.existsErr
}

func (m *mockRewardRepo) Create(ctx context.Context, tx *models.RewardTransaction) (bool, error) {
	if m.createErr != nil {
		return false, m.createErr
	}
	if m.duplicate {
		return false, nil
	}
	tx.ID = len(m.created) + 1
	m.created = append(m.created, tx)
	return true, nil
}

func (m *mockRewardRepo) SumByUser(ctx context.Context, userID int) (int, error) {
	return m.sum, m.sumErr
}

func (m *mockRewardRepo) GetByUser(ctx context.Context, userID, page, count int) ([]models.RewardTransaction, int, error) {
	if m.getErr != nil {
		return nil, 0, m.getErr
	}
	return m.transactions, m.total, nil
}

// mockBalanceCache is a mock implementation of BalanceCache
type mockBalanceCache struct {
	values      map[int]int
	invalidated []int
	getErr      error
	setErr      error
}

func (m *mockBalanceCache) Get(ctx context.Context, userID int) (int, bool, error) {
	if m.getErr != nil {
		return 0, false, m.getErr
	}
	value, ok := m.values[userID]
	return value, ok, nil
}

func (m *mockBalanceCache) Set(ctx context.Context, userID, balance int) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.values == nil {
		m.values = make(map[int]int)
	}
	m.values[userID] = balance
	return nil
}

func (m *mockBalanceCache) Invalidate(ctx context.Context, userID int) error {
	m.invalidated = append(m.invalidated, userID)
	delete(m.values, userID)
	return nil
}
