// Package logstore хранит логи сборок серверов.
package logstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/magabrotheeeer/hostcredit/internal/models"
	"github.com/magabrotheeeer/hostcredit/internal/storage/repository"
)

// DefaultFailureRetention срок хранения лога неудачной сборки.
const DefaultFailureRetention = 30 * 24 * time.Hour

// Repository операции с таблицей queue_logs.
type Repository interface {
	SaveQueueLog(ctx context.Context, l models.QueueLog) (int64, error)
	AppendQueueLog(ctx context.Context, id int64, text string) (int, error)
	GetQueueLogsByBuild(ctx context.Context, build int64) ([]models.QueueLog, error)
	GetExpiredQueueLogs(ctx context.Context, now time.Time) ([]models.QueueLog, error)
	MarkQueueLogsDeleted(ctx context.Context, ids []int64) (int, error)
}

// Store хранилище логов сборок.
type Store struct {
	repo      Repository
	retention time.Duration
	now       func() time.Time
	log       *slog.Logger
}

// New создаёт Store. retention срок хранения логов неудачных сборок.
func New(repo Repository, retention time.Duration, log *slog.Logger) *Store {
	if retention <= 0 {
		retention = DefaultFailureRetention
	}
	return &Store{
		repo:      repo,
		retention: retention,
		now:       time.Now,
		log:       log,
	}
}

// SaveJobLogs сохраняет строки лога сборки buildID одной записью.
func (s *Store) SaveJobLogs(ctx context.Context, buildID int64, lines []string, purge bool, expiresAt *time.Time) (int64, error) {
	return s.repo.SaveQueueLog(ctx, models.QueueLog{
		Build:     buildID,
		Log:       strings.Join(lines, "\n"),
		Purge:     purge,
		ExpiresAt: expiresAt,
	})
}

// AppendLogs дописывает строки в существующую запись.
func (s *Store) AppendLogs(ctx context.Context, id int64, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	n, err := s.repo.AppendQueueLog(ctx, id, strings.Join(lines, "\n"))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("queue log %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

// LogFailure сохраняет лог неудачной сборки со строкой ERROR.
// Такие записи удаляются после истечения срока хранения.
func (s *Store) LogFailure(ctx context.Context, buildID int64, lines []string, errMsg string) (int64, error) {
	all := make([]string, 0, len(lines)+1)
	all = append(all, lines...)
	all = append(all, "ERROR: "+errMsg)

	expiresAt := s.now().Add(s.retention)
	return s.SaveJobLogs(ctx, buildID, all, true, &expiresAt)
}

// GetExpired возвращает записи, помеченные к удалению, срок которых истёк.
func (s *Store) GetExpired(ctx context.Context) ([]models.QueueLog, error) {
	return s.repo.GetExpiredQueueLogs(ctx, s.now())
}

// GetByBuild возвращает логи сборки.
func (s *Store) GetByBuild(ctx context.Context, buildID int64) ([]models.QueueLog, error) {
	return s.repo.GetQueueLogsByBuild(ctx, buildID)
}

// Sweep мягко удаляет истёкшие записи. Заблокированные записи пропускаются.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	expired, err := s.GetExpired(ctx)
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(expired))
	for _, l := range expired {
		if l.Locked {
			continue
		}
		ids = append(ids, l.ID)
	}
	n, err := s.repo.MarkQueueLogsDeleted(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.log.Info("expired queue logs removed", slog.Int("count", n))
	return n, nil
}

// Journal собирает строки лога одной сборки. Безопасен для конкурентного использования.
type Journal struct {
	mu    sync.Mutex
	lines []string
	now   func() time.Time
}

// NewJournal создаёт пустой журнал.
func NewJournal() *Journal {
	return &Journal{now: time.Now}
}

// Printf добавляет строку с отметкой времени.
func (j *Journal) Printf(format string, args ...any) {
	line := fmt.Sprintf("[%s] %s", j.now().UTC().Format(time.RFC3339), fmt.Sprintf(format, args...))
	j.mu.Lock()
	j.lines = append(j.lines, line)
	j.mu.Unlock()
}

// Lines возвращает копию накопленных строк.
func (j *Journal) Lines() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.lines))
	copy(out, j.lines)
	return out
}
