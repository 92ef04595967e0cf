package app

import (
	"context"
	"sync"
	"time"

	"board-reviewer/internal/domain"
	"github.com/rs/zerolog"
)

// Wallet owns a user's point ledger and check-in state. Every course of the
// user shares one Wallet, so ledger updates and daily check-ins are
// serialized per user.
type Wallet struct {
	userID string
	policy CheckInPolicy
	store  stateStore
	log    zerolog.Logger

	mu      sync.Mutex
	loaded  bool
	points  domain.UserPoints
	checkIn domain.CheckInState
}

// NewWallet builds an empty wallet over the user's (already prefixed) store.
func NewWallet(userID string, store Gateway, policy CheckInPolicy, logger zerolog.Logger) *Wallet {
	return &Wallet{
		userID:  userID,
		policy:  policy,
		store:   stateStore{gw: store, log: logger},
		log:     logger,
		points:  domain.UserPoints{UserID: userID},
		checkIn: domain.CheckInState{Streak: 1},
	}
}

// Restore loads the saved ledger and check-in state. Only the first call
// reads storage.
func (w *Wallet) Restore(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.loaded {
		return
	}
	w.loaded = true

	var points domain.UserPoints
	if w.store.getJSON(ctx, keyUserPoints, &points) {
		if points.UserID == "" {
			points.UserID = w.userID
		}
		w.points = points
	}
	w.checkIn.LastCheckInDate, _ = w.store.getString(ctx, keyLastCheckInDate)
	if n, ok := w.store.getInt(ctx, keyCheckInStreak); ok && n >= 1 {
		w.checkIn.Streak = n
	}
	if n, ok := w.store.getInt(ctx, keyCheckInDay); ok && n >= 1 && n <= MaxCheckInDay {
		w.checkIn.CheckInDay = n
	}
}

// Credit applies txn, saves the ledger and returns the level before the
// transaction together with the updated summary.
func (w *Wallet) Credit(ctx context.Context, txn domain.PointTransaction) (int, PointsState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	before := LevelFromPoints(w.points.LevelPoints)
	w.points = ApplyTransaction(w.points, txn)
	w.store.setJSON(persistCtx(ctx), keyUserPoints, w.points)
	return before, pointsState(w.points)
}

// CheckIn claims the reward for the calendar day of now.
func (w *Wallet) CheckIn(ctx context.Context, now time.Time) (CheckInOutcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.policy.IsAvailable(w.checkIn.LastCheckInDate, now) {
		return CheckInOutcome{}, domain.ErrCheckInUnavailable
	}
	streak, day := w.policy.Advance(w.checkIn.LastCheckInDate, w.checkIn.Streak, now)
	reward := CheckInReward(day)
	txn := NewTransaction(w.userID, domain.TxnDailyCheckIn, reward, now, "", "")
	w.points = ApplyTransaction(w.points, txn)
	w.checkIn = domain.CheckInState{
		LastCheckInDate: w.policy.Today(now),
		Streak:          streak,
		CheckInDay:      day,
	}

	pctx := persistCtx(ctx)
	w.store.setJSON(pctx, keyUserPoints, w.points)
	w.store.setString(pctx, keyLastCheckInDate, w.checkIn.LastCheckInDate)
	w.store.setInt(pctx, keyCheckInStreak, streak)
	w.store.setInt(pctx, keyCheckInDay, day)

	w.log.Info().Int("streak", streak).Int("day", day).Int("reward", reward).Msg("checked in")
	return CheckInOutcome{
		Reward:      reward,
		Streak:      streak,
		Day:         day,
		Transaction: txn,
		TotalPoints: w.points.TotalPoints,
	}, nil
}

// Points returns a copy of the ledger.
func (w *Wallet) Points() domain.UserPoints {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.points
	p.Transactions = append([]domain.PointTransaction(nil), w.points.Transactions...)
	return p
}

// Summary reports the ledger and check-in status at now.
func (w *Wallet) Summary(now time.Time) (PointsState, CheckInStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := CheckInStatus{
		Available:       w.policy.IsAvailable(w.checkIn.LastCheckInDate, now),
		LastCheckInDate: w.checkIn.LastCheckInDate,
		Streak:          w.checkIn.Streak,
		Day:             w.checkIn.CheckInDay,
	}
	if st.Available {
		_, day := w.policy.Advance(w.checkIn.LastCheckInDate, w.checkIn.Streak, now)
		st.NextReward = CheckInReward(day)
	}
	return pointsState(w.points), st
}
