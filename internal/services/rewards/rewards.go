// Package rewards выдаёт и погашает одноразовые ссылки, начисляющие кредиты.
package rewards

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/magabrotheeeer/hostcredit/internal/config"
	"github.com/magabrotheeeer/hostcredit/internal/lib/keymutex"
	"github.com/magabrotheeeer/hostcredit/internal/metrics"
	"github.com/magabrotheeeer/hostcredit/internal/models"
	"github.com/magabrotheeeer/hostcredit/internal/storage/repository"
)

const codeBytes = 24

// Repository операции хранилища со ссылками.
type Repository interface {
	GetUser(ctx context.Context, userUUID string) (*models.User, error)
	GetActiveRewardLink(ctx context.Context, userUUID string, now time.Time) (*models.RewardLink, error)
	GetLatestRewardLink(ctx context.Context, userUUID string) (*models.RewardLink, error)
	CreateRewardLink(ctx context.Context, l models.RewardLink) error
	RedeemRewardLink(ctx context.Context, linkID, userUUID, codeHash string, cooldown time.Duration) (int64, int64, error)
}

// Service сервис ссылок-вознаграждений.
type Service struct {
	repo     Repository
	locks    *keymutex.KeyMutex
	amount   int64
	ttl      time.Duration
	cooldown time.Duration
	log      *slog.Logger
	now      func() time.Time
}

// New создаёт Service.
func New(repo Repository, cfg config.Rewards, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		locks:    keymutex.New(),
		amount:   cfg.RewardAmount,
		ttl:      cfg.LinkTTL,
		cooldown: cfg.Cooldown,
		log:      log,
		now:      time.Now,
	}
}

// HashCode возвращает hex-строку BLAKE2b-256 от кода ссылки.
func HashCode(code string) string {
	sum := blake2b.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func newCode() (string, error) {
	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// IssueLink создаёт ссылку для пользователя. Пока есть активная ссылка, новая не выдаётся.
// Следующая ссылка выдаётся не раньше чем через cooldown после предыдущей, даже погашенной.
// Код возвращается только здесь, в базе хранится его хеш.
func (s *Service) IssueLink(ctx context.Context, userUUID string) (models.RewardLink, string, error) {
	unlock := s.locks.Lock(userUUID)
	defer unlock()

	if _, err := s.repo.GetUser(ctx, userUUID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.RewardLink{}, "", models.NewCodedError(models.CodeUserNotFound, "user not found")
		}
		return models.RewardLink{}, "", err
	}

	now := s.now()
	_, err := s.repo.GetActiveRewardLink(ctx, userUUID, now)
	if err == nil {
		return models.RewardLink{}, "", models.NewCodedError(models.CodeRewardLinkActive, "you already have an active reward link")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return models.RewardLink{}, "", err
	}

	if s.cooldown > 0 {
		latest, err := s.repo.GetLatestRewardLink(ctx, userUUID)
		switch {
		case err == nil:
			if next := latest.CreatedAt.Add(s.cooldown); now.Before(next) {
				return models.RewardLink{}, "", cooldownError(next)
			}
		case !errors.Is(err, repository.ErrNotFound):
			return models.RewardLink{}, "", err
		}
	}

	code, err := newCode()
	if err != nil {
		return models.RewardLink{}, "", fmt.Errorf("generate reward code: %w", err)
	}
	link := models.RewardLink{
		ID:        uuid.NewString(),
		UserUUID:  userUUID,
		CodeHash:  HashCode(code),
		Amount:    s.amount,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.repo.CreateRewardLink(ctx, link); err != nil {
		return models.RewardLink{}, "", err
	}

	s.log.Info("reward link issued", slog.String("user_uuid", userUUID), slog.String("link_id", link.ID))
	return link, code, nil
}

// Redeem погашает ссылку и возвращает новый баланс. Ссылка начисляет кредиты не более одного раза.
func (s *Service) Redeem(ctx context.Context, userUUID, linkID, code string) (int64, error) {
	if _, err := uuid.Parse(linkID); err != nil || code == "" {
		return 0, invalidLink()
	}

	amount, balance, err := s.repo.RedeemRewardLink(ctx, linkID, userUUID, HashCode(code), s.cooldown)
	switch {
	case errors.Is(err, repository.ErrRewardCooldown):
		metrics.LedgerOperations.WithLabelValues("reward", metrics.ResultRejected).Inc()
		return 0, models.NewCodedError(models.CodeRewardCooldown, "another reward link was redeemed recently")
	case errors.Is(err, repository.ErrLinkUnavailable):
		metrics.LedgerOperations.WithLabelValues("reward", metrics.ResultRejected).Inc()
		return 0, invalidLink()
	case errors.Is(err, repository.ErrNotFound):
		return 0, models.NewCodedError(models.CodeUserNotFound, "user not found")
	case err != nil:
		metrics.LedgerOperations.WithLabelValues("reward", metrics.ResultError).Inc()
		return 0, err
	}

	metrics.LedgerOperations.WithLabelValues("reward", metrics.ResultOK).Inc()
	s.log.Info("reward link redeemed",
		slog.String("user_uuid", userUUID), slog.String("link_id", linkID), slog.Int64("amount", amount))
	return balance, nil
}

func cooldownError(next time.Time) *models.CodedError {
	return models.NewCodedError(models.CodeRewardCooldown,
		fmt.Sprintf("next reward link is available at %s", next.UTC().Format(time.RFC3339)))
}

func invalidLink() *models.CodedError {
	return models.NewCodedError(models.CodeRewardLinkInvalid, "reward link is invalid, expired or already redeemed")
}
