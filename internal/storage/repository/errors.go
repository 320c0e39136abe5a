package repository

import "errors"

var (
	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrPendingExists у пользователя уже есть элемент очереди в статусе pending.
	ErrPendingExists = errors.New("pending queue item already exists")
	// ErrInsufficientCredits баланса не хватает для списания.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrLinkUnavailable ссылка уже погашена, истекла или код неверен.
	ErrLinkUnavailable = errors.New("reward link unavailable")
	// ErrRewardCooldown пользователь уже погасил ссылку в текущем окне.
	ErrRewardCooldown = errors.New("reward cooldown active")
)
