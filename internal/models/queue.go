package models

import "time"

// QueueStatus статус элемента очереди сборки.
type QueueStatus string

// Статусы двигаются только вперёд: pending -> building -> completed|failed.
const (
	QueueStatusPending   QueueStatus = "pending"
	QueueStatusBuilding  QueueStatus = "building"
	QueueStatusCompleted QueueStatus = "completed"
	QueueStatusFailed    QueueStatus = "failed"
)

// Terminal сообщает, является ли статус конечным.
func (s QueueStatus) Terminal() bool {
	return s == QueueStatusCompleted || s == QueueStatusFailed
}

// QueueItem запрос на создание сервера, ожидающий обработки воркером.
type QueueItem struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	RAM         int64       `json:"ram"`
	Disk        int64       `json:"disk"`
	CPU         int64       `json:"cpu"`
	Ports       int64       `json:"ports"`
	Databases   int64       `json:"databases"`
	Backups     int64       `json:"backups"`
	LocationID  int64       `json:"location_id"`
	UserUUID    string      `json:"user_uuid"`
	CategoryID  int64       `json:"category_id"`
	EggID       int64       `json:"egg_id"`
	Status      QueueStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Deleted     bool        `json:"-"`
}

// Resources ресурсы, которые займёт сервер после сборки.
func (q QueueItem) Resources() Usage {
	return Usage{
		Memory:      q.RAM,
		CPU:         q.CPU,
		Disk:        q.Disk,
		Databases:   q.Databases,
		Backups:     q.Backups,
		Allocations: q.Ports,
		Servers:     1,
	}
}

// BuildRequest тело запроса на создание сервера.
type BuildRequest struct {
	Name        string `json:"name" validate:"required,max=191"`
	Description string `json:"description" validate:"max=1024"`
	RAM         int64  `json:"ram" validate:"required,gt=0"`
	Disk        int64  `json:"disk" validate:"required,gt=0"`
	CPU         int64  `json:"cpu" validate:"required,gt=0"`
	Ports       int64  `json:"ports" validate:"required,gt=0"`
	Databases   int64  `json:"databases" validate:"gte=0"`
	Backups     int64  `json:"backups" validate:"gte=0"`
	LocationID  int64  `json:"location_id" validate:"required,gt=0"`
	CategoryID  int64  `json:"category_id" validate:"required,gt=0"`
	EggID       int64  `json:"egg_id" validate:"required,gt=0"`
}

// Resources ресурсы, запрашиваемые для нового сервера.
func (r BuildRequest) Resources() Usage {
	return Usage{
		Memory:      r.RAM,
		CPU:         r.CPU,
		Disk:        r.Disk,
		Databases:   r.Databases,
		Backups:     r.Backups,
		Allocations: r.Ports,
		Servers:     1,
	}
}

// QueueStats счётчики элементов очереди по статусам.
type QueueStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Building  int64 `json:"building"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}
