package models

import "time"

// RewardLink одноразовая ссылка, начисляющая кредиты при погашении.
type RewardLink struct {
	ID         string     `json:"id"`
	UserUUID   string     `json:"user_uuid"`
	CodeHash   string     `json:"-"`
	Amount     int64      `json:"amount"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// RedeemRequest тело запроса на погашение ссылки.
type RedeemRequest struct {
	Code string `json:"code" validate:"required"`
}

// AdjustCreditsRequest тело запроса администратора на изменение баланса.
// Положительное значение начисляет кредиты, отрицательное списывает.
type AdjustCreditsRequest struct {
	Amount int64 `json:"amount" validate:"required"`
}
