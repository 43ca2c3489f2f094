package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/coursehub/progress-service/internal/models"
	"go.uber.org/zap"
)

// LessonCompletionRepository defines methods for lesson completion data access
type LessonCompletionRepository interface {
	// MarkComplete records the one-time completion of a lesson; returns
	// false when the lesson was already complete
	MarkComplete(ctx context.Context, enrollmentID, lessonID int) (bool, error)
	// Exists checks whether a lesson is complete for an enrollment
	Exists(ctx context.Context, enrollmentID, lessonID int) (bool, error)
	// CountByEnrollment counts completed lessons in an enrollment
	CountByEnrollment(ctx context.Context, enrollmentID int) (int, error)
	// CountCompletedForUnit counts completed lessons belonging to a unit
	CountCompletedForUnit(ctx context.Context, enrollmentID, unitID int) (int, error)
	// CountCompletedForGroup counts completed lessons tagged with a group
	CountCompletedForGroup(ctx context.Context, enrollmentID int, groupName string) (int, error)
}

type claimService struct {
	enrollmentRepo EnrollmentRepository
	catalogRepo    CatalogRepository
	completionRepo LessonCompletionRepository
	ledger         RewardAwarder
	logger         *zap.Logger
}

// NewClaimService creates a new claim service
func NewClaimService(
	enrollmentRepo EnrollmentRepository,
	catalogRepo CatalogRepository,
	completionRepo LessonCompletionRepository,
	ledger RewardAwarder,
	logger *zap.Logger,
) *claimService {
	return &claimService{
		enrollmentRepo: enrollmentRepo,
		catalogRepo:    catalogRepo,
		completionRepo: completionRepo,
		ledger:         ledger,
		logger:         logger,
	}
}

// ClaimUnitForUser resolves the caller's enrollment and claims the unit
// reward on it
func (s *claimService) ClaimUnitForUser(ctx context.Context, userID, courseID, unitID int) (*models.ClaimResult, error) {
	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotEnrolled, err)
	}
	return s.ClaimUnit(ctx, enrollment, unitID)
}

// ClaimGroupForUser resolves the caller's enrollment and claims the group
// reward on it
func (s *claimService) ClaimGroupForUser(ctx context.Context, userID, courseID int, groupName string) (*models.ClaimResult, error) {
	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotEnrolled, err)
	}
	return s.ClaimGroup(ctx, enrollment, groupName)
}

// ClaimUnit converts a fully completed unit into its fixed reward. The claim
// is guarded twice: by the enrollment's claimed-unit set (add-if-absent) and
// by the ledger's own idempotency key.
func (s *claimService) ClaimUnit(ctx context.Context, enrollment *models.Enrollment, unitID int) (*models.ClaimResult, error) {
	unit, err := s.catalogRepo.GetUnit(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	if unit.CourseID != enrollment.CourseID {
		return nil, fmt.Errorf("unit not found")
	}

	claimed, err := s.enrollmentRepo.HasClaimedUnit(ctx, enrollment.ID, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to check unit claim: %w", err)
	}
	if claimed {
		return &models.ClaimResult{AlreadyClaimed: true, Label: unit.Title}, nil
	}

	total, err := s.catalogRepo.CountLessonsInUnit(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unit lessons: %w", err)
	}
	completed, err := s.completionRepo.CountCompletedForUnit(ctx, enrollment.ID, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed unit lessons: %w", err)
	}
	if total == 0 || completed < total {
		return &models.ClaimResult{Label: unit.Title}, nil
	}

	added, err := s.enrollmentRepo.AddClaimedUnit(ctx, enrollment.ID, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to record unit claim: %w", err)
	}
	if !added {
		return &models.ClaimResult{AlreadyClaimed: true, Label: unit.Title}, nil
	}

	awarded, err := s.ledger.Award(ctx, enrollment.UserID, unitCompletionReward,
		models.RewardCategoryUnitComplete,
		strconv.Itoa(unitID),
		fmt.Sprintf("Completed unit %q", unit.Title),
		map[string]any{"courseId": unit.CourseID},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to award unit reward: %w", err)
	}
	if !awarded {
		return &models.ClaimResult{AlreadyClaimed: true, Label: unit.Title}, nil
	}

	return &models.ClaimResult{Success: true, Amount: unitCompletionReward, Label: unit.Title}, nil
}

// ClaimGroup converts a fully completed named content group into its
// progressive reward. The tier is chosen from the count of groups claimed
// before this one; the tier read and the claimed-set append are not isolated
// from each other, which can mis-tier truly concurrent claims of two
// different groups, but duplication stays impossible through the ledger key.
func (s *claimService) ClaimGroup(ctx context.Context, enrollment *models.Enrollment, groupName string) (*models.ClaimResult, error) {
	total, err := s.catalogRepo.CountLessonsInGroup(ctx, enrollment.CourseID, groupName)
	if err != nil {
		return nil, fmt.Errorf("failed to count group lessons: %w", err)
	}
	if total == 0 {
		return nil, fmt.Errorf("content group not found")
	}

	claimed, err := s.enrollmentRepo.HasClaimedGroup(ctx, enrollment.ID, groupName)
	if err != nil {
		return nil, fmt.Errorf("failed to check group claim: %w", err)
	}
	if claimed {
		return &models.ClaimResult{AlreadyClaimed: true, Label: groupName}, nil
	}

	completed, err := s.completionRepo.CountCompletedForGroup(ctx, enrollment.ID, groupName)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed group lessons: %w", err)
	}
	if completed < total {
		return &models.ClaimResult{Label: groupName}, nil
	}

	claimedBefore, err := s.enrollmentRepo.CountClaimedGroups(ctx, enrollment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count claimed groups: %w", err)
	}
	amount := groupRewardForClaim(claimedBefore)

	added, err := s.enrollmentRepo.AddClaimedGroup(ctx, enrollment.ID, groupName)
	if err != nil {
		return nil, fmt.Errorf("failed to record group claim: %w", err)
	}
	if !added {
		return &models.ClaimResult{AlreadyClaimed: true, Label: groupName}, nil
	}

	awarded, err := s.ledger.Award(ctx, enrollment.UserID, amount,
		models.RewardCategoryUnitGroupMilestone,
		fmt.Sprintf("%d-%s", enrollment.ID, groupName),
		fmt.Sprintf("Completed all lessons in %q", groupName),
		map[string]any{"courseId": enrollment.CourseID, "tier": claimedBefore + 1},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to award group reward: %w", err)
	}
	if !awarded {
		return &models.ClaimResult{AlreadyClaimed: true, Label: groupName}, nil
	}

	return &models.ClaimResult{Success: true, Amount: amount, Label: groupName}, nil
}
