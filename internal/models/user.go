// Package models содержит доменные структуры хостинга: пользователей с кредитами и лимитами,
// элементы очереди сборки, серверы, логи сборок и справочники панели.
package models

// Роли пользователя.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Limits описывает лимиты ресурсов тарифа пользователя.
// Отрицательное значение DatabaseLimit или BackupLimit означает отсутствие ограничения.
type Limits struct {
	Memory      int64 `json:"memory_limit"`
	CPU         int64 `json:"cpu_limit"`
	Disk        int64 `json:"disk_limit"`
	Databases   int64 `json:"database_limit"`
	Backups     int64 `json:"backup_limit"`
	Allocations int64 `json:"allocation_limit"`
	Servers     int64 `json:"server_limit"`
}

// User представляет пользователя хостинга.
type User struct {
	UUID              string // Уникальный идентификатор пользователя
	Username          string // Имя пользователя
	Role              string // Роль пользователя, admin или user
	VIP               bool   // Доступ к VIP-локациям
	Credits           int64  // Баланс кредитов, никогда не отрицательный
	PterodactylUserID int64  // Идентификатор пользователя в панели
	Limits            Limits
}

// Sufficiency результат проверки достаточности баланса.
type Sufficiency struct {
	HasSufficient  bool  `json:"has_sufficient"`
	CurrentCredits int64 `json:"current_credits"`
}
