package app

import (
	"time"

	"board-reviewer/internal/domain"
	"github.com/google/uuid"
)

// BasePoints is awarded for every correct answer.
const BasePoints = 2

// early level thresholds; past the table a level is every 10 points.
var levelThresholds = []int{3, 10, 20, 30}

// check-in rewards for days 1..6; day 7 and beyond pays maxCheckInReward.
var checkInRewards = []int{5, 10, 15, 20, 25, 30}

const maxCheckInReward = 50

// ApplyTransaction returns a new UserPoints with txn appended. The input is
// not modified.
func ApplyTransaction(p domain.UserPoints, txn domain.PointTransaction) domain.UserPoints {
	next := p
	next.Transactions = make([]domain.PointTransaction, len(p.Transactions), len(p.Transactions)+1)
	copy(next.Transactions, p.Transactions)
	next.Transactions = append(next.Transactions, txn)

	next.TotalPoints += txn.Points
	if txn.Type != domain.TxnDailyCheckIn {
		next.LevelPoints += txn.Points
	}
	switch txn.Type {
	case domain.TxnCorrectAnswer:
		next.CorrectAnswers++
	case domain.TxnPerfectAnswer:
		next.PerfectAnswers++
	}
	next.LastUpdated = txn.Timestamp
	return next
}

// LevelFromPoints maps level points to a level.
func LevelFromPoints(levelPoints int) int {
	for i, t := range levelThresholds {
		if levelPoints < t {
			return i + 1
		}
	}
	return levelPoints/10 + 1
}

// PointsForNextLevel is the level-points threshold that ends the given level.
func PointsForNextLevel(level int) int {
	if level >= 1 && level <= len(levelThresholds) {
		return levelThresholds[level-1]
	}
	return level * 10
}

// LevelProgress is the 0..1 fraction of the way through the current level.
func LevelProgress(levelPoints int) float64 {
	level := LevelFromPoints(levelPoints)
	lower := PointsForNextLevel(level - 1)
	upper := PointsForNextLevel(level)
	if upper <= lower {
		return 1
	}
	frac := float64(levelPoints-lower) / float64(upper-lower)
	switch {
	case frac < 0:
		return 0
	case frac > 1:
		return 1
	}
	return frac
}

// CheckInReward returns the points paid for a check-in on the given day.
func CheckInReward(day int) int {
	if day < 1 {
		day = 1
	}
	if day > len(checkInRewards) {
		return maxCheckInReward
	}
	return checkInRewards[day-1]
}

// NewTransaction builds a ledger entry with a fresh id.
func NewTransaction(userID string, typ domain.TransactionType, points int, at time.Time, questionID, subject string) domain.PointTransaction {
	return domain.PointTransaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Points:      points,
		Type:        typ,
		Timestamp:   at,
		QuestionID:  questionID,
		SubjectAbbr: subject,
	}
}
