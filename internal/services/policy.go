package services

// Reward policy tables. Amounts are XP. Every award issued from these tables
// goes through the reward ledger, which enforces exactly-once issuance per
// idempotency key regardless of how often a rule fires.

const (
	// contentCompletionReward is paid for the first completion of a
	// rewardable content item
	contentCompletionReward = 10

	// maxQuizReward is the reward for a perfect first attempt; lower scores
	// are scaled down proportionally
	maxQuizReward = 50

	// unitCompletionReward is paid once per claimed unit
	unitCompletionReward = 50

	// courseBadgeBonus is paid once per fully completed course
	courseBadgeBonus = 50
)

// groupRewardTiers holds the progressive rewards for content-group claims,
// indexed by the number of groups already claimed for the enrollment. Claims
// beyond the table length stay at the last tier.
var groupRewardTiers = []int{30, 50, 70, 100}

// groupRewardForClaim picks the tier for the next claim given how many
// groups were claimed before it
func groupRewardForClaim(claimedBefore int) int {
	if claimedBefore >= len(groupRewardTiers) {
		return groupRewardTiers[len(groupRewardTiers)-1]
	}
	if claimedBefore < 0 {
		return groupRewardTiers[0]
	}
	return groupRewardTiers[claimedBefore]
}

// courseMilestones maps course-progress thresholds (percent) to rewards.
// Order matters only for response readability; each threshold is
// independently idempotent in the ledger.
var courseMilestones = []struct {
	Threshold int
	Reward    int
}{
	{25, 30},
	{50, 50},
	{75, 70},
	{100, 100},
}

// courseCountAchievements maps learner-wide completed-course counts to
// one-time achievement bonuses
var courseCountAchievements = []struct {
	Count  int
	Reward int
}{
	{1, 100},
	{3, 250},
	{5, 500},
}

// streakMilestones maps streak lengths (days) to bonuses. The ledger key
// embeds the exact streak length, so rebuilding a streak after a reset pays
// the same milestone again.
var streakMilestones = map[int]int{
	3:  10,
	7:  25,
	14: 50,
	30: 100,
}

// QuizPassed reports whether a quiz attempt meets the pass threshold of 80%
// of total questions, with the threshold rounded up. In integer form:
// score >= ceil(0.8 * total) is equivalent to 5*score >= 4*total.
func QuizPassed(score, total int) bool {
	if total <= 0 {
		return false
	}
	return 5*score >= 4*total
}

// QuizReward computes the reward for a quiz attempt. Retries never pay;
// first attempts pay proportionally to the score, monotonic in score.
func QuizReward(score, total int, isRetry bool) int {
	if isRetry || total <= 0 || score <= 0 {
		return 0
	}
	if score > total {
		score = total
	}
	return score * maxQuizReward / total
}
