package hosting

// Limits ресурсы сервера в панели.
type Limits struct {
	Memory int64 `json:"memory"`
	Swap   int64 `json:"swap"`
	Disk   int64 `json:"disk"`
	IO     int64 `json:"io"`
	CPU    int64 `json:"cpu"`
}

// FeatureLimits дополнительные лимиты сервера.
type FeatureLimits struct {
	Databases   int64 `json:"databases"`
	Backups     int64 `json:"backups"`
	Allocations int64 `json:"allocations"`
}

// Deploy параметры автоматического размещения.
type Deploy struct {
	Locations   []int64  `json:"locations"`
	DedicatedIP bool     `json:"dedicated_ip"`
	PortRange   []string `json:"port_range"`
}

// CreateServerRequest тело запроса на создание сервера.
type CreateServerRequest struct {
	Name              string            `json:"name"`
	Description       string            `json:"description,omitempty"`
	User              int64             `json:"user"`
	Egg               int64             `json:"egg"`
	DockerImage       string            `json:"docker_image"`
	Startup           string            `json:"startup"`
	Environment       map[string]string `json:"environment"`
	Limits            Limits            `json:"limits"`
	FeatureLimits     FeatureLimits     `json:"feature_limits"`
	Deploy            Deploy            `json:"deploy"`
	ExternalID        string            `json:"external_id,omitempty"`
	StartOnCompletion bool              `json:"start_on_completion"`
}

// UpdateBuildRequest тело запроса на изменение ресурсов.
type UpdateBuildRequest struct {
	Allocation    int64         `json:"allocation"`
	Memory        int64         `json:"memory"`
	Swap          int64         `json:"swap"`
	Disk          int64         `json:"disk"`
	IO            int64         `json:"io"`
	CPU           int64         `json:"cpu"`
	FeatureLimits FeatureLimits `json:"feature_limits"`
}

// UpdateDetailsRequest тело запроса на изменение названия и описания.
type UpdateDetailsRequest struct {
	Name        string `json:"name"`
	User        int64  `json:"user"`
	ExternalID  string `json:"external_id,omitempty"`
	Description string `json:"description"`
}

// Server атрибуты сервера в панели.
type Server struct {
	ID            int64         `json:"id"`
	ExternalID    string        `json:"external_id"`
	UUID          string        `json:"uuid"`
	Identifier    string        `json:"identifier"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Status        string        `json:"status"`
	Suspended     bool          `json:"suspended"`
	Limits        Limits        `json:"limits"`
	FeatureLimits FeatureLimits `json:"feature_limits"`
	User          int64         `json:"user"`
	Node          int64         `json:"node"`
	Allocation    int64         `json:"allocation"`
	Nest          int64         `json:"nest"`
	Egg           int64         `json:"egg"`
}

// User атрибуты пользователя панели.
type User struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"external_id"`
	UUID       string `json:"uuid"`
	Username   string `json:"username"`
	Email      string `json:"email"`
}

// Location атрибуты локации панели.
type Location struct {
	ID    int64  `json:"id"`
	Short string `json:"short"`
	Long  string `json:"long"`
}

// Nest атрибуты группы шаблонов.
type Nest struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Egg шаблон сервера вместе с переменными окружения по умолчанию.
type Egg struct {
	ID          int64             `json:"id"`
	Nest        int64             `json:"nest"`
	Name        string            `json:"name"`
	DockerImage string            `json:"docker_image"`
	Startup     string            `json:"startup"`
	Environment map[string]string `json:"-"`
}

type object[T any] struct {
	Object     string `json:"object"`
	Attributes T      `json:"attributes"`
}

type list[T any] struct {
	Object string      `json:"object"`
	Data   []object[T] `json:"data"`
}

type eggVariable struct {
	EnvVariable  string `json:"env_variable"`
	DefaultValue string `json:"default_value"`
}

type eggAttributes struct {
	Egg
	Relationships struct {
		Variables list[eggVariable] `json:"variables"`
	} `json:"relationships"`
}

type userWithServers struct {
	User
	Relationships struct {
		Servers list[Server] `json:"servers"`
	} `json:"relationships"`
}

type errorBody struct {
	Errors []struct {
		Code   string `json:"code"`
		Status string `json:"status"`
		Detail string `json:"detail"`
	} `json:"errors"`
}
