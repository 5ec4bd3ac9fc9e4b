package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gameon-esports/gameon-rooms/live"
	"github.com/gameon-esports/gameon-rooms/models"
	"github.com/gameon-esports/gameon-rooms/repositories"
	"github.com/stretchr/testify/require"
)

// In-memory repositories. The service mutates the room object it loaded, so
// the per-field update methods only need to acknowledge the write.

type fakeRoomRepo struct {
	mu             sync.Mutex
	rooms          map[int]*models.Room
	startDates     map[int]time.Time
	pendingArchive []int
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{
		rooms:      make(map[int]*models.Room),
		startDates: make(map[int]time.Time),
	}
}

func (f *fakeRoomRepo) Create(_ context.Context, _ repositories.SQLExecutor, room *models.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[room.TournamentID]; ok {
		return repositories.ErrRoomAlreadyExists
	}
	f.rooms[room.TournamentID] = room
	return nil
}

func (f *fakeRoomRepo) GetByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[tournamentID]
	if !ok {
		return nil, repositories.ErrRoomNotFound
	}
	return room, nil
}

func (f *fakeRoomRepo) UpdateSlotPlayer(context.Context, repositories.SQLExecutor, int, models.SlotRef, *int) error {
	return nil
}

func (f *fakeRoomRepo) UpdateSlotLock(context.Context, repositories.SQLExecutor, int, models.SlotRef, bool) error {
	return nil
}

func (f *fakeRoomRepo) UpdateTeamCaptain(context.Context, repositories.SQLExecutor, int, int, *int) error {
	return nil
}

func (f *fakeRoomRepo) UpdateRoomLock(context.Context, repositories.SQLExecutor, int, bool, bool) error {
	return nil
}

func (f *fakeRoomRepo) UpdateSettings(context.Context, repositories.SQLExecutor, int, models.RoomSettings) error {
	return nil
}

func (f *fakeRoomRepo) MarkArchived(_ context.Context, _ repositories.SQLExecutor, tournamentID int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[tournamentID]
	if !ok {
		return repositories.ErrRoomNotFound
	}
	room.ArchivedAt = &at
	return nil
}

func (f *fakeRoomRepo) ListLockDeadlines(context.Context, repositories.SQLExecutor) ([]repositories.RoomLockDeadline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repositories.RoomLockDeadline
	for id, room := range f.rooms {
		if room.IsLocked || room.LockOverride || room.ArchivedAt != nil {
			continue
		}
		start, ok := f.startDates[id]
		if !ok {
			continue
		}
		out = append(out, repositories.RoomLockDeadline{
			TournamentID:       id,
			StartDate:          start,
			SlotChangeDeadline: room.Settings.SlotChangeDeadline,
		})
	}
	return out, nil
}

func (f *fakeRoomRepo) ListPendingArchive(context.Context, repositories.SQLExecutor) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for _, id := range f.pendingArchive {
		if room, ok := f.rooms[id]; ok && room.ArchivedAt == nil {
			out = append(out, id)
		}
	}
	return out, nil
}

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
}

func (f *fakeTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return t, nil
}

func (f *fakeTournamentRepo) ReleaseRoomCredentials(_ context.Context, _ repositories.SQLExecutor, id int, roomID, password string) error {
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.RoomID = &roomID
	t.RoomPassword = &password
	t.CredentialsReleased = true
	return nil
}

type fakeParticipantRepo struct {
	members map[int]map[int]bool
}

func (f *fakeParticipantRepo) IsParticipant(_ context.Context, _ repositories.SQLExecutor, tournamentID, userID int) (bool, error) {
	return f.members[tournamentID][userID], nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []models.RoomAuditEntry
}

func (f *fakeAuditRepo) Insert(_ context.Context, _ repositories.SQLExecutor, entry *models.RoomAuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID, _ int) ([]models.RoomAuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RoomAuditEntry
	for _, e := range f.entries {
		if e.TournamentID == tournamentID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []live.RoomEvent
}

func (f *fakeBroadcaster) BroadcastRoomEvent(event live.RoomEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeBroadcaster) last() (live.RoomEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return live.RoomEvent{}, false
	}
	return f.events[len(f.events)-1], true
}

func (f *fakeBroadcaster) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type testEnv struct {
	service     *RoomService
	rooms       *fakeRoomRepo
	tournaments *fakeTournamentRepo
	broadcaster *fakeBroadcaster
	audit       *fakeAuditRepo
}

const squadTournamentID = 1

// newTestEnv wires the service against in-memory repositories with one
// squad tournament (4 teams of 4) and players 101..116 registered.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tournament := &models.Tournament{
		ID:              squadTournamentID,
		Name:            "GameOn Squad Cup",
		Mode:            models.ModeSquad,
		Status:          models.StatusUpcoming,
		StartDate:       time.Now().Add(2 * time.Hour),
		MaxParticipants: 16,
	}
	members := map[int]bool{}
	for id := 101; id <= 116; id++ {
		members[id] = true
	}

	rooms := newFakeRoomRepo()
	tournaments := &fakeTournamentRepo{tournaments: map[int]*models.Tournament{tournament.ID: tournament}}
	participants := &fakeParticipantRepo{members: map[int]map[int]bool{tournament.ID: members}}
	audit := &fakeAuditRepo{}
	broadcaster := &fakeBroadcaster{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewRoomService(nil, rooms, tournaments, participants, audit, broadcaster, logger)
	return &testEnv{
		service:     service,
		rooms:       rooms,
		tournaments: tournaments,
		broadcaster: broadcaster,
		audit:       audit,
	}
}

func player(id int) Actor {
	return Actor{UserID: id, Role: models.RolePlayer}
}

var admin = Actor{UserID: 900, Role: models.RoleAdmin}

func ref(team, slot int) models.SlotRef {
	return models.SlotRef{TeamNumber: team, SlotNumber: slot}
}

// requireNoDuplicateOccupancy asserts the core uniqueness invariant.
func requireNoDuplicateOccupancy(t *testing.T, room *models.Room) {
	t.Helper()
	seen := make(map[int]models.SlotRef)
	for _, team := range room.Teams {
		for _, slot := range team.Slots {
			if slot.PlayerID == nil {
				continue
			}
			if prev, dup := seen[*slot.PlayerID]; dup {
				t.Fatalf("player %d occupies both %+v and team %d slot %d",
					*slot.PlayerID, prev, team.TeamNumber, slot.SlotNumber)
			}
			seen[*slot.PlayerID] = models.SlotRef{TeamNumber: team.TeamNumber, SlotNumber: slot.SlotNumber}
		}
	}
}

func TestSnapshotProvisionsRoomLazily(t *testing.T) {
	env := newTestEnv(t)

	snap, err := env.service.Snapshot(context.Background(), player(101), squadTournamentID)
	require.NoError(t, err)
	require.Equal(t, 4, snap.Room.MaxTeams)
	require.Equal(t, 4, snap.Room.MaxPlayersPerTeam)
	require.Equal(t, 0, snap.Room.TotalPlayers)
	require.Nil(t, snap.Tournament.Credentials())
}

func TestSnapshotRequiresParticipant(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Snapshot(context.Background(), player(999), squadTournamentID)
	require.ErrorIs(t, err, ErrNotParticipant)

	// Admins are not participants but always see the room.
	_, err = env.service.Snapshot(context.Background(), admin, squadTournamentID)
	require.NoError(t, err)
}

func TestSnapshotUnknownTournament(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Snapshot(context.Background(), admin, 404)
	require.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestMoveScenarioPlacementConflictRelocation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Player A takes (1,1).
	room, err := env.service.RequestMove(ctx, player(101), squadTournamentID, 101, ref(1, 1))
	require.NoError(t, err)
	require.Equal(t, 1, room.TotalPlayers)
	require.False(t, room.Team(1).IsComplete)

	// Player B hits the same slot and loses.
	_, err = env.service.RequestMove(ctx, player(102), squadTournamentID, 102, ref(1, 1))
	require.ErrorIs(t, err, ErrSlotOccupied)

	// A relocates within the team: conservation, not addition.
	room, err = env.service.RequestMove(ctx, player(101), squadTournamentID, 101, ref(1, 2))
	require.NoError(t, err)
	require.Equal(t, 1, room.TotalPlayers)
	require.False(t, room.Slot(ref(1, 1)).Occupied())
	require.True(t, room.Slot(ref(1, 2)).OccupiedBy(101))
	requireNoDuplicateOccupancy(t, room)
}

func TestMoveToOwnSlotIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.RequestMove(ctx, player(101), squadTournamentID, 101, ref(1, 1))
	require.NoError(t, err)
	before := env.broadcaster.count()

	room, err := env.service.RequestMove(ctx, player(101), squadTournamentID, 101, ref(1, 1))
	require.NoError(t, err)
	require.Equal(t, 1, room.TotalPlayers)
	require.Equal(t, before, env.broadcaster.count(), "no-op move must not broadcast")
}

func TestParticipantCannotMoveOthers(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.RequestMove(context.Background(), player(101), squadTournamentID, 102, ref(1, 1))
	require.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestRoomLockBlocksParticipantsNotAdmins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.SetRoomLock(ctx, admin, squadTournamentID, true)
	require.NoError(t, err)

	// Unseated participant C cannot sit down in a locked room.
	_, err = env.service.RequestMove(ctx, player(103), squadTournamentID, 103, ref(2, 1))
	require.ErrorIs(t, err, ErrRoomLocked)

	// The identical move performed by an admin succeeds.
	room, err := env.service.RequestMove(ctx, admin, squadTournamentID, 103, ref(2, 1))
	require.NoError(t, err)
	require.True(t, room.Slot(ref(2, 1)).OccupiedBy(103))
}

func TestSlotLockBlocksParticipantsNotAdmins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.SetSlotLock(ctx, admin, squadTournamentID, ref(1, 1), true)
	require.NoError(t, err)

	_, err = env.service.RequestMove(ctx, player(101), squadTournamentID, 101, ref(1, 1))
	require.ErrorIs(t, err, ErrSlotLocked)

	room, err := env.service.RequestMove(ctx, admin, squadTournamentID, 101, ref(1, 1))
	require.NoError(t, err)
	require.True(t, room.Slot(ref(1, 1)).OccupiedBy(101))
}

func TestLockedSourceSlotPinsPlayer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.RequestMove(ctx, player(101), squadTournamentID, 101, ref(1, 1))
	require.NoError(t, err)
	_, err = env.service.SetSlotLock(ctx, admin, squadTournamentID, ref(1, 1), true)
	require.NoError(t, err)

	_, err = env.service.RequestMove(ctx, player(101), squadTournamentID, 101, ref(1, 2))
	require.ErrorIs(t, err, ErrSlotLocked)
}

func TestSettingsRestrictions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Seat player D on team 1.
	_, err := env.service.RequestMove(ctx, player(104), squadTournamentID, 104, ref(1, 3))
	require.NoError(t, err)

	// Disable team switching only.
	off := false
	_, err = env.service.UpdateSettings(ctx, admin, squadTournamentID, UpdateSettingsInput{AllowTeamSwitch: &off})
	require.NoError(t, err)

	_, err = env.service.RequestMove(ctx, player(104), squadTournamentID, 104, ref(2, 1))
	require.ErrorIs(t, err, ErrTeamSwitchNotAllowed)

	// Same-team moves are unaffected.
	room, err := env.service.RequestMove(ctx, player(104), squadTournamentID, 104, ref(1, 4))
	require.NoError(t, err)
	require.True(t, room.Slot(ref(1, 4)).OccupiedBy(104))

	// Disabling slot changes stops participants entirely, but not admins.
	_, err = env.service.UpdateSettings(ctx, admin, squadTournamentID, UpdateSettingsInput{AllowSlotChange: &off})
	require.NoError(t, err)

	_, err = env.service.RequestMove(ctx, player(104), squadTournamentID, 104, ref(1, 1))
	require.ErrorIs(t, err, ErrSlotChangeNotAllowed)

	_, err = env.service.RequestMove(ctx, admin, squadTournamentID, 104, ref(1, 1))
	require.NoError(t, err)
}

func TestSettingsPartialMerge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	deadline := time.Now().Add(30 * time.Minute).UTC().Truncate(time.Second)
	room, err := env.service.UpdateSettings(ctx, admin, squadTournamentID, UpdateSettingsInput{SlotChangeDeadline: &deadline})
	require.NoError(t, err)

	// Only the provided field changed.
	require.True(t, room.Settings.AllowSlotChange)
	require.True(t, room.Settings.AllowTeamSwitch)
	require.NotNil(t, room.Settings.SlotChangeDeadline)
	require.True(t, deadline.Equal(*room.Settings.SlotChangeDeadline))

	room, err = env.service.UpdateSettings(ctx, admin, squadTournamentID, UpdateSettingsInput{ClearSlotChangeDeadline: true})
	require.NoError(t, err)
	require.Nil(t, room.Settings.SlotChangeDeadline)

	_, err = env.service.UpdateSettings(ctx, admin, squadTournamentID, UpdateSettingsInput{
		SlotChangeDeadline:      &deadline,
		ClearSlotChangeDeadline: true,
	})
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestSettingsAdminOnly(t *testing.T) {
	env := newTestEnv(t)

	on := true
	_, err := env.service.UpdateSettings(context.Background(), player(101), squadTournamentID, UpdateSettingsInput{AutoAssignTeams: &on})
	require.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestLockIdempotence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room, err := env.service.SetRoomLock(ctx, admin, squadTournamentID, true)
	require.NoError(t, err)
	require.True(t, room.IsLocked)
	events := env.broadcaster.count()

	room, err = env.service.SetRoomLock(ctx, admin, squadTournamentID, true)
	require.NoError(t, err)
	require.True(t, room.IsLocked)
	require.Equal(t, events, env.broadcaster.count(), "repeated lock must not re-broadcast")

	room, err = env.service.SetSlotLock(ctx, admin, squadTournamentID, ref(1, 1), true)
	require.NoError(t, err)
	require.True(t, room.Slot(ref(1, 1)).IsLocked)
	events = env.broadcaster.count()

	room, err = env.service.SetSlotLock(ctx, admin, squadTournamentID, ref(1, 1), true)
	require.NoError(t, err)
	require.True(t, room.Slot(ref(1, 1)).IsLocked)
	require.Equal(t, events, env.broadcaster.count())
}

func TestCapacityBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Fill team 1 with players 101..104.
	for i := 0; i < 4; i++ {
		_, err := env.service.RequestMove(ctx, player(101+i), squadTournamentID, 101+i, ref(1, i+1))
		require.NoError(t, err)
	}

	// Every slot of the full team rejects a fifth player.
	for slot := 1; slot <= 4; slot++ {
		_, err := env.service.RequestMove(ctx, player(105), squadTournamentID, 105, ref(1, slot))
		require.ErrorIs(t, err, ErrSlotOccupied)
	}

	room, err := env.rooms.GetByTournament(ctx, nil, squadTournamentID)
	require.NoError(t, err)
	require.True(t, room.Team(1).IsComplete)
	requireNoDuplicateOccupancy(t, room)
}

func TestAutoAssignFillsInOrderThenFull(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.service.AutoAssign(ctx, squadTournamentID, 101)
	require.NoError(t, err)
	require.Equal(t, ref(1, 1), first)

	// Idempotent for a seated player.
	again, err := env.service.AutoAssign(ctx, squadTournamentID, 101)
	require.NoError(t, err)
	require.Equal(t, first, again)

	// Seat the remaining 15 players.
	for id := 102; id <= 116; id++ {
		_, err := env.service.AutoAssign(ctx, squadTournamentID, id)
		require.NoError(t, err)
	}

	room, err := env.rooms.GetByTournament(ctx, nil, squadTournamentID)
	require.NoError(t, err)
	require.Equal(t, room.Capacity(), room.TotalPlayers)
	requireNoDuplicateOccupancy(t, room)

	_, err = env.service.AutoAssign(ctx, squadTournamentID, 117)
	require.ErrorIs(t, err, ErrRoomFull)
}

func TestAutoAssignSkipsLockedSlots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.SetSlotLock(ctx, admin, squadTournamentID, ref(1, 1), true)
	require.NoError(t, err)

	got, err := env.service.AutoAssign(ctx, squadTournamentID, 101)
	require.NoError(t, err)
	require.Equal(t, ref(1, 2), got)
}

func TestSwapPlayers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.RequestMove(ctx, player(101), squadTournamentID, 101, ref(1, 1))
	require.NoError(t, err)
	_, err = env.service.RequestMove(ctx, player(102), squadTournamentID, 102, ref(2, 3))
	require.NoError(t, err)

	room, err := env.service.SwapPlayers(ctx, admin, squadTournamentID, 101, 102)
	require.NoError(t, err)
	require.True(t, room.Slot(ref(1, 1)).OccupiedBy(102))
	require.True(t, room.Slot(ref(2, 3)).OccupiedBy(101))
	require.Equal(t, 2, room.TotalPlayers)
	requireNoDuplicateOccupancy(t, room)

	_, err = env.service.SwapPlayers(ctx, admin, squadTournamentID, 101, 999)
	require.ErrorIs(t, err, ErrPlayerNotSeated)

	_, err = env.service.SwapPlayers(ctx, player(101), squadTournamentID, 101, 102)
	require.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestRemovePlayer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.RequestMove(ctx, player(101), squadTournamentID, 101, ref(1, 1))
	require.NoError(t, err)

	// Participants vacate only themselves.
	_, err = env.service.RemovePlayer(ctx, player(102), squadTournamentID, 101)
	require.ErrorIs(t, err, ErrForbiddenOperation)

	room, err := env.service.RemovePlayer(ctx, player(101), squadTournamentID, 101)
	require.NoError(t, err)
	require.Equal(t, 0, room.TotalPlayers)

	_, err = env.service.RemovePlayer(ctx, player(101), squadTournamentID, 101)
	require.ErrorIs(t, err, ErrPlayerNotSeated)
}

func TestAdminActionsAreAudited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.RequestMove(ctx, admin, squadTournamentID, 101, ref(1, 1))
	require.NoError(t, err)
	_, err = env.service.SetRoomLock(ctx, admin, squadTournamentID, true)
	require.NoError(t, err)

	entries, err := env.service.AuditTrail(ctx, admin, squadTournamentID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.Equal(t, admin.UserID, e.AdminID)
	}

	// Participant self-moves leave no audit trail.
	_, err = env.service.RequestMove(ctx, player(102), squadTournamentID, 102, ref(1, 2))
	require.NoError(t, err)
	entries, err = env.service.AuditTrail(ctx, admin, squadTournamentID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	_, err = env.service.AuditTrail(ctx, player(101), squadTournamentID, 10)
	require.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestBroadcastCarriesSnapshotAndAdminIdentity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.RequestMove(ctx, player(101), squadTournamentID, 101, ref(1, 1))
	require.NoError(t, err)
	event, ok := env.broadcaster.last()
	require.True(t, ok)
	require.Equal(t, live.EventPlayerMoved, event.Type)
	require.Equal(t, squadTournamentID, event.TournamentID)
	require.NotNil(t, event.Room)
	require.Nil(t, event.AdminID, "participant moves carry no admin identity")

	_, err = env.service.SetRoomLock(ctx, admin, squadTournamentID, true)
	require.NoError(t, err)
	event, ok = env.broadcaster.last()
	require.True(t, ok)
	require.Equal(t, live.EventSlotsLocked, event.Type)
	require.NotNil(t, event.AdminID)
	require.Equal(t, admin.UserID, *event.AdminID)
}

func TestReleaseCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.ReleaseCredentials(ctx, player(101), squadTournamentID, "BGMI-42", "hush")
	require.ErrorIs(t, err, ErrForbiddenOperation)

	_, err = env.service.ReleaseCredentials(ctx, admin, squadTournamentID, "", "")
	require.ErrorIs(t, err, ErrValidationFailed)

	_, err = env.service.ReleaseCredentials(ctx, admin, squadTournamentID, "BGMI-42", "hush")
	require.NoError(t, err)

	event, ok := env.broadcaster.last()
	require.True(t, ok)
	require.Equal(t, live.EventCredentialsReleased, event.Type)

	snap, err := env.service.Snapshot(ctx, player(101), squadTournamentID)
	require.NoError(t, err)
	creds := snap.Tournament.Credentials()
	require.NotNil(t, creds)
	require.Equal(t, "BGMI-42", creds.RoomID)
	require.Equal(t, "hush", creds.Password)
}

func TestFinishedTournamentRejectsMoves(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Provision the room while the tournament is running.
	_, err := env.service.Snapshot(ctx, admin, squadTournamentID)
	require.NoError(t, err)

	env.tournaments.tournaments[squadTournamentID].Status = models.StatusCompleted

	_, err = env.service.RequestMove(ctx, player(101), squadTournamentID, 101, ref(1, 1))
	require.ErrorIs(t, err, ErrRoomNotJoinable)
}

func TestMoveValidatesCoordinates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.RequestMove(ctx, player(101), squadTournamentID, 101, ref(5, 1))
	require.ErrorIs(t, err, ErrTeamNotFound)

	_, err = env.service.RequestMove(ctx, player(101), squadTournamentID, 101, ref(1, 5))
	require.ErrorIs(t, err, ErrSlotNotFound)
}

func TestPostDeadlineUnlockIsNotReverted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Five minutes to start puts the lock deadline five minutes in the past.
	start := time.Now().Add(5 * time.Minute)
	env.tournaments.tournaments[squadTournamentID].StartDate = start
	env.rooms.startDates[squadTournamentID] = start

	// Provision the room before wiring the scheduler so no timer is armed yet.
	_, err := env.service.Snapshot(ctx, admin, squadTournamentID)
	require.NoError(t, err)

	clock := newFakeClock(time.Now())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scheduler := NewLockScheduler(env.service, env.rooms, clock, 10*time.Minute, logger)
	env.service.SetLockScheduler(scheduler)

	_, err = env.service.SetRoomLock(ctx, admin, squadTournamentID, true)
	require.NoError(t, err)

	room, err := env.service.SetRoomLock(ctx, admin, squadTournamentID, false)
	require.NoError(t, err)
	require.False(t, room.IsLocked)
	require.True(t, room.LockOverride, "a post-deadline unlock must persist as an override")

	// No timer fires behind the admin's back.
	time.Sleep(50 * time.Millisecond)
	room, err = env.rooms.GetByTournament(ctx, nil, squadTournamentID)
	require.NoError(t, err)
	require.False(t, room.IsLocked, "admin unlock must not be reverted by the lock timer")

	// The periodic sweep skips overridden rooms as well.
	scheduler.sweep(ctx)
	time.Sleep(50 * time.Millisecond)
	room, err = env.rooms.GetByTournament(ctx, nil, squadTournamentID)
	require.NoError(t, err)
	require.False(t, room.IsLocked, "admin unlock must not be reverted by the sweep")

	// Participants can use the reopened room.
	_, err = env.service.RequestMove(ctx, player(101), squadTournamentID, 101, ref(1, 1))
	require.NoError(t, err)

	// Locking again clears the override and restores automatic behavior.
	room, err = env.service.SetRoomLock(ctx, admin, squadTournamentID, true)
	require.NoError(t, err)
	require.True(t, room.IsLocked)
	require.False(t, room.LockOverride)
}

func TestPreDeadlineUnlockRearmsTimer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	start := time.Now().Add(2 * time.Hour)
	env.tournaments.tournaments[squadTournamentID].StartDate = start
	env.rooms.startDates[squadTournamentID] = start

	_, err := env.service.Snapshot(ctx, admin, squadTournamentID)
	require.NoError(t, err)

	clock := newFakeClock(time.Now())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scheduler := NewLockScheduler(env.service, env.rooms, clock, 10*time.Minute, logger)
	env.service.SetLockScheduler(scheduler)

	_, err = env.service.SetRoomLock(ctx, admin, squadTournamentID, true)
	require.NoError(t, err)

	room, err := env.service.SetRoomLock(ctx, admin, squadTournamentID, false)
	require.NoError(t, err)
	require.False(t, room.IsLocked)
	require.False(t, room.LockOverride, "an in-window unlock is not an override")

	scheduler.mu.Lock()
	_, armed := scheduler.pending[squadTournamentID]
	scheduler.mu.Unlock()
	require.True(t, armed, "unlocking before the deadline must re-arm the timer")
}

func TestConcurrentClaimsOnOneSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const contenders = 8
	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := 101 + i
			_, errs[i] = env.service.RequestMove(ctx, player(id), squadTournamentID, id, ref(1, 1))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, ErrSlotOccupied):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, winners, "exactly one contender may claim the slot")

	room, err := env.rooms.GetByTournament(ctx, nil, squadTournamentID)
	require.NoError(t, err)
	require.Equal(t, 1, room.TotalPlayers)
	requireNoDuplicateOccupancy(t, room)
}
