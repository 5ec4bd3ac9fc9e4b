package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gameon-esports/gameon-rooms/repositories"
	"github.com/gameon-esports/gameon-rooms/storage"
	"golang.org/x/sync/errgroup"
)

const archiveConcurrency = 4

// ArchiveService uploads the final room snapshot of every finished
// tournament to object storage and marks the room archived, so room rows can
// later be pruned without losing the audit trail of final placements.
type ArchiveService struct {
	rooms    repositories.RoomRepository
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewArchiveService(rooms repositories.RoomRepository, uploader storage.FileUploader, logger *slog.Logger) *ArchiveService {
	return &ArchiveService{
		rooms:    rooms,
		uploader: uploader,
		logger:   logger,
	}
}

// Run sweeps for unarchived finished rooms on an interval until the context
// is canceled.
func (s *ArchiveService) Run(ctx context.Context, interval time.Duration) {
	if err := s.ArchiveFinishedRooms(ctx); err != nil {
		s.logger.Error("initial archive sweep failed", slog.Any("error", err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.ArchiveFinishedRooms(ctx); err != nil {
				s.logger.Error("archive sweep failed", slog.Any("error", err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// ArchiveFinishedRooms archives every pending room, a few at a time.
func (s *ArchiveService) ArchiveFinishedRooms(ctx context.Context) error {
	ids, err := s.rooms.ListPendingArchive(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to list rooms pending archive: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(archiveConcurrency)
	for _, tournamentID := range ids {
		tournamentID := tournamentID
		g.Go(func() error {
			return s.archiveRoom(gctx, tournamentID)
		})
	}
	return g.Wait()
}

func (s *ArchiveService) archiveRoom(ctx context.Context, tournamentID int) error {
	room, err := s.rooms.GetByTournament(ctx, nil, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to load room %d for archiving: %w", tournamentID, err)
	}

	payload, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room %d snapshot: %w", tournamentID, err)
	}

	key := fmt.Sprintf("room-archives/%d.json", tournamentID)
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to upload room %d snapshot: %w", tournamentID, err)
	}

	if err := s.rooms.MarkArchived(ctx, nil, tournamentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark room %d archived: %w", tournamentID, err)
	}

	s.logger.Info("room snapshot archived",
		slog.Int("tournament_id", tournamentID),
		slog.String("key", result.Key),
		slog.String("location", result.Location))
	return nil
}
