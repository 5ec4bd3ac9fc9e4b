package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gameon-esports/gameon-rooms/repositories"
)

// RoomLocker is the single transition the scheduler drives.
type RoomLocker interface {
	LockRoomForStart(ctx context.Context, tournamentID int) error
}

// LockScheduler enforces the time-based Open -> Locked transition: each
// unlocked room gets a cancelable timer firing at the earlier of
// (startDate - lockWindow) and the room's slot_change_deadline. Locked ->
// Open is only ever an explicit admin unlock, which re-arms the timer via
// Schedule.
//
// A periodic sweep re-derives every pending timer from the database, so
// start-date changes made by the tournament service are picked up without a
// dedicated notification channel, and timers survive process restarts.
type LockScheduler struct {
	locker     RoomLocker
	rooms      repositories.RoomRepository
	clock      Clock
	lockWindow time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	pending map[int]*pendingLock
}

type pendingLock struct {
	deadline time.Time
	cancel   chan struct{}
}

func NewLockScheduler(
	locker RoomLocker,
	rooms repositories.RoomRepository,
	clock Clock,
	lockWindow time.Duration,
	logger *slog.Logger,
) *LockScheduler {
	return &LockScheduler{
		locker:     locker,
		rooms:      rooms,
		clock:      clock,
		lockWindow: lockWindow,
		logger:     logger,
		pending:    make(map[int]*pendingLock),
	}
}

// EffectiveDeadline is the instant the room must lock: startDate minus the
// lock window, or the slot-change deadline if that comes first.
func (s *LockScheduler) EffectiveDeadline(startDate time.Time, slotChangeDeadline *time.Time) time.Time {
	deadline := startDate.Add(-s.lockWindow)
	if slotChangeDeadline != nil && slotChangeDeadline.Before(deadline) {
		deadline = *slotChangeDeadline
	}
	return deadline
}

// DeadlinePassed reports whether the room's lock deadline is already behind
// the scheduler's clock. An unlock performed after that point is a deliberate
// post-deadline override and must not be re-armed.
func (s *LockScheduler) DeadlinePassed(startDate time.Time, slotChangeDeadline *time.Time) bool {
	return !s.EffectiveDeadline(startDate, slotChangeDeadline).After(s.clock.Now())
}

// Schedule (re)arms the lock timer for a tournament's room. Rescheduling to
// the same deadline is a no-op; a changed deadline cancels the pending timer
// and starts a fresh one.
func (s *LockScheduler) Schedule(tournamentID int, startDate time.Time, slotChangeDeadline *time.Time) {
	deadline := s.EffectiveDeadline(startDate, slotChangeDeadline)

	s.mu.Lock()
	if p, ok := s.pending[tournamentID]; ok {
		if p.deadline.Equal(deadline) {
			s.mu.Unlock()
			return
		}
		close(p.cancel)
	}
	cancel := make(chan struct{})
	s.pending[tournamentID] = &pendingLock{deadline: deadline, cancel: cancel}
	s.mu.Unlock()

	go s.waitAndFire(tournamentID, deadline, cancel)
}

// Cancel drops the pending timer, typically after a manual room lock.
func (s *LockScheduler) Cancel(tournamentID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[tournamentID]; ok {
		close(p.cancel)
		delete(s.pending, tournamentID)
	}
}

func (s *LockScheduler) waitAndFire(tournamentID int, deadline time.Time, cancel chan struct{}) {
	if delay := deadline.Sub(s.clock.Now()); delay > 0 {
		select {
		case <-s.clock.After(delay):
		case <-cancel:
			return
		}
	}

	// Fire only if this timer still owns the pending entry; a reschedule
	// or cancel in the meantime hands ownership to a newer timer.
	s.mu.Lock()
	p, ok := s.pending[tournamentID]
	if !ok || p.cancel != cancel {
		s.mu.Unlock()
		return
	}
	delete(s.pending, tournamentID)
	s.mu.Unlock()

	if err := s.locker.LockRoomForStart(context.Background(), tournamentID); err != nil {
		s.logger.Error("automatic room lock failed",
			slog.Int("tournament_id", tournamentID),
			slog.Any("error", err))
		return
	}
	s.logger.Info("room locked before tournament start",
		slog.Int("tournament_id", tournamentID),
		slog.Time("deadline", deadline))
}

// Run sweeps the database on an interval and (re)schedules a timer for every
// unlocked room. Runs until the context is canceled.
func (s *LockScheduler) Run(ctx context.Context, interval time.Duration) {
	s.sweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			s.cancelAll()
			return
		}
	}
}

func (s *LockScheduler) sweep(ctx context.Context) {
	deadlines, err := s.rooms.ListLockDeadlines(ctx, nil)
	if err != nil {
		s.logger.Error("lock scheduler sweep failed", slog.Any("error", err))
		return
	}
	for _, d := range deadlines {
		s.Schedule(d.TournamentID, d.StartDate, d.SlotChangeDeadline)
	}
}

func (s *LockScheduler) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.pending {
		close(p.cancel)
		delete(s.pending, id)
	}
}
