package models

// Location локальное зеркало локации панели.
type Location struct {
	ID                    int64
	Name                  string
	PterodactylLocationID int64
	MaxServers            int64 // 0 - без ограничения
	VIPOnly               bool
}

// Category категория серверов, соответствует nest в панели.
type Category struct {
	ID                int64
	Name              string
	PterodactylNestID int64
}

// Egg шаблон сервера внутри категории.
type Egg struct {
	ID               int64
	Name             string
	CategoryID       int64
	PterodactylEggID int64
}
