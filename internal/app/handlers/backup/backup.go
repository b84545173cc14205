package backup

import (
	"context"
	"log/slog"
	"time"

	"villaledger/internal/app/commands"
	"villaledger/internal/app/dto"
	"villaledger/internal/app/handlers/support"
	"villaledger/internal/app/policies"
	"villaledger/internal/app/queries"
	"villaledger/internal/domain/pricing"
	"villaledger/internal/domain/reservations"
)

const (
	runKey  = "backup.run"
	readKey = "backup.read"
)

const (
	SourceLedger   = "ledger"
	SourceSnapshot = "snapshot"
)

// Service writes the ledger and price list into the snapshot file.
type Service struct {
	Reservations reservations.Repository
	Rules        pricing.RuleRepository
	Snapshot     policies.SnapshotStore
	Logger       *slog.Logger
	Now          func() time.Time
}

// Run keeps the reservations of the previous snapshot when the ledger cannot
// be read, so that a price change never wipes them from the backup.
func (s *Service) Run(ctx context.Context) (dto.BackupResult, error) {
	source := SourceLedger
	list, err := s.Reservations.List(ctx)
	if err != nil {
		s.logger().WarnContext(ctx, "ledger unreadable, keeping reservations from previous snapshot", "error", err)
		source = SourceSnapshot
		previous, readErr := s.Snapshot.Read(ctx)
		if readErr != nil {
			s.logger().ErrorContext(ctx, "previous snapshot unreadable", "error", readErr)
		}
		list = previous.Reservations
	}
	rules, err := s.Rules.Snapshot(ctx)
	if err != nil {
		return dto.BackupResult{}, err
	}
	at := support.Clock(s.Now)
	payload := policies.Backup{
		Reservations: reservations.SortByCheckInDesc(list),
		Prices:       rules,
		UpdatedAt:    at,
	}
	if err := s.Snapshot.Write(ctx, payload); err != nil {
		return dto.BackupResult{}, err
	}
	return dto.BackupResult{
		Reservations: len(payload.Reservations),
		Prices:       len(payload.Prices),
		Source:       source,
		WrittenAt:    at,
	}, nil
}

// AfterChange runs the backup and only logs failures.
func (s *Service) AfterChange(ctx context.Context, reason string) {
	res, err := s.Run(ctx)
	if err != nil {
		s.logger().WarnContext(ctx, "snapshot backup failed", "reason", reason, "error", err)
		return
	}
	s.logger().DebugContext(ctx, "snapshot backup written", "reason", reason, "reservations", res.Reservations, "prices", res.Prices)
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

type RunBackupCommand struct{}

func (c RunBackupCommand) Key() string { return runKey }

type RunBackupHandler struct {
	Service *Service
}

func (h *RunBackupHandler) Handle(ctx context.Context, _ RunBackupCommand) (dto.BackupResult, error) {
	return h.Service.Run(ctx)
}

type ReadBackupQuery struct{}

func (q ReadBackupQuery) Key() string { return readKey }

type ReadBackupHandler struct {
	Snapshot policies.SnapshotStore
}

func (h *ReadBackupHandler) Handle(ctx context.Context, _ ReadBackupQuery) (dto.Backup, error) {
	b, err := h.Snapshot.Read(ctx)
	if err != nil {
		return dto.Backup{}, err
	}
	return dto.MapBackup(b), nil
}

var (
	_ policies.BackupTrigger                               = (*Service)(nil)
	_ commands.Handler[RunBackupCommand, dto.BackupResult] = (*RunBackupHandler)(nil)
	_ queries.Handler[ReadBackupQuery, dto.Backup]         = (*ReadBackupHandler)(nil)
)
