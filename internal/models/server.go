package models

import "time"

// Server локальная запись о сервере, созданном в панели.
type Server struct {
	ID            int64      `json:"id"`
	PterodactylID int64      `json:"pterodactyl_id"`
	Build         *int64     `json:"build,omitempty"`
	UserUUID      string     `json:"user_uuid"`
	LocationID    int64      `json:"location_id"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Suspended     bool       `json:"suspended"`
	Purge         bool       `json:"purge"`
	Deleted       bool       `json:"deleted"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ServerDetails данные сервера из панели вместе с локальными метаданными.
type ServerDetails struct {
	Server
	Identifier  string `json:"identifier"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
	Limits      Usage  `json:"limits"`
}

// UpdateResourcesRequest тело запроса на изменение ресурсов сервера.
type UpdateResourcesRequest struct {
	RAM       int64 `json:"ram" validate:"required,gt=0"`
	Disk      int64 `json:"disk" validate:"required,gt=0"`
	CPU       int64 `json:"cpu" validate:"required,gt=0"`
	Ports     int64 `json:"ports" validate:"required,gt=0"`
	Databases int64 `json:"databases" validate:"gte=0"`
	Backups   int64 `json:"backups" validate:"gte=0"`
}

// Resources ресурсы после изменения.
func (r UpdateResourcesRequest) Resources() Usage {
	return Usage{
		Memory:      r.RAM,
		CPU:         r.CPU,
		Disk:        r.Disk,
		Databases:   r.Databases,
		Backups:     r.Backups,
		Allocations: r.Ports,
	}
}
