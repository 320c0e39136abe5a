package models

// Usage агрегированное потребление ресурсов пользователем.
type Usage struct {
	Memory      int64 `json:"memory"`
	CPU         int64 `json:"cpu"`
	Disk        int64 `json:"disk"`
	Databases   int64 `json:"databases"`
	Backups     int64 `json:"backups"`
	Allocations int64 `json:"allocations"`
	Servers     int64 `json:"servers"`
}

// Add возвращает сумму двух значений потребления.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		Memory:      u.Memory + other.Memory,
		CPU:         u.CPU + other.CPU,
		Disk:        u.Disk + other.Disk,
		Databases:   u.Databases + other.Databases,
		Backups:     u.Backups + other.Backups,
		Allocations: u.Allocations + other.Allocations,
		Servers:     u.Servers + other.Servers,
	}
}

// Sub возвращает разность двух значений потребления.
func (u Usage) Sub(other Usage) Usage {
	return Usage{
		Memory:      u.Memory - other.Memory,
		CPU:         u.CPU - other.CPU,
		Disk:        u.Disk - other.Disk,
		Databases:   u.Databases - other.Databases,
		Backups:     u.Backups - other.Backups,
		Allocations: u.Allocations - other.Allocations,
		Servers:     u.Servers - other.Servers,
	}
}
