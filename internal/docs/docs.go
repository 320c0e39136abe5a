// Package docs регистрирует swagger-спецификацию HTTP API для /docs.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{.Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/servers": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Servers"],
                "summary": "Создать сервер",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.BuildRequest"}}],
                "responses": {
                    "200": {"description": "Элемент очереди создан"},
                    "409": {"description": "Уже есть запрос в очереди", "schema": {"$ref": "#/definitions/response.CodedErrorResponse"}},
                    "422": {"description": "Ошибка валидации или превышен лимит", "schema": {"$ref": "#/definitions/response.CodedErrorResponse"}},
                    "503": {"description": "Создание серверов отключено", "schema": {"$ref": "#/definitions/response.CodedErrorResponse"}}
                }
            }
        },
        "/queue/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Queue"],
                "summary": "Отменить создание сервера",
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "Элемент отменён"},
                    "404": {"description": "Элемент не найден", "schema": {"$ref": "#/definitions/response.CodedErrorResponse"}},
                    "409": {"description": "Элемент уже обрабатывается", "schema": {"$ref": "#/definitions/response.CodedErrorResponse"}}
                }
            }
        },
        "/servers/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Servers"],
                "summary": "Данные сервера",
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {"200": {"description": "Данные сервера"}, "404": {"description": "Сервер не найден"}}
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["Servers"],
                "summary": "Переименовать сервер",
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {"200": {"description": "Сервер переименован"}}
            }
        },
        "/servers/{id}/renew": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Servers"],
                "summary": "Продлить сервер",
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "Новый срок действия"},
                    "402": {"description": "Недостаточно кредитов", "schema": {"$ref": "#/definitions/response.CodedErrorResponse"}},
                    "503": {"description": "Продление отключено", "schema": {"$ref": "#/definitions/response.CodedErrorResponse"}}
                }
            }
        },
        "/servers/{id}/build": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Servers"],
                "summary": "Изменить ресурсы сервера",
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.UpdateResourcesRequest"}}
                ],
                "responses": {"200": {"description": "Ресурсы изменены"}, "422": {"description": "Превышен лимит"}}
            }
        },
        "/credits": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Credits"],
                "summary": "Баланс кредитов",
                "parameters": [{"in": "query", "name": "amount", "type": "integer"}],
                "responses": {"200": {"description": "Баланс"}}
            }
        },
        "/rewards/links": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Rewards"],
                "summary": "Получить ссылку на награду",
                "responses": {"200": {"description": "Ссылка и код"}, "409": {"description": "Уже есть активная ссылка"}}
            }
        },
        "/rewards/links/{id}/redeem": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Rewards"],
                "summary": "Погасить ссылку на награду",
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.RedeemRequest"}}
                ],
                "responses": {"200": {"description": "Новый баланс"}, "422": {"description": "Ссылка недействительна"}}
            }
        },
        "/admin/queue": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Очередь сборки",
                "parameters": [
                    {"in": "query", "name": "page", "type": "integer", "default": 1},
                    {"in": "query", "name": "limit", "type": "integer", "default": 20}
                ],
                "responses": {"200": {"description": "Элементы очереди"}}
            }
        },
        "/admin/queue/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Статистика очереди",
                "responses": {"200": {"description": "Счётчики по статусам"}}
            }
        },
        "/admin/queue/{id}/logs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Логи сборки",
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {"200": {"description": "Логи"}}
            }
        },
        "/admin/credits/{uuid}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Изменить баланс пользователя",
                "parameters": [
                    {"in": "path", "name": "uuid", "type": "string", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.AdjustCreditsRequest"}}
                ],
                "responses": {"200": {"description": "Новый баланс"}, "402": {"description": "Недостаточно кредитов"}}
            }
        }
    },
    "definitions": {
        "models.BuildRequest": {
            "type": "object",
            "required": ["name", "ram", "disk", "cpu", "ports", "location_id", "category_id", "egg_id"],
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "ram": {"type": "integer"},
                "disk": {"type": "integer"},
                "cpu": {"type": "integer"},
                "ports": {"type": "integer"},
                "databases": {"type": "integer"},
                "backups": {"type": "integer"},
                "location_id": {"type": "integer"},
                "category_id": {"type": "integer"},
                "egg_id": {"type": "integer"}
            }
        },
        "models.UpdateResourcesRequest": {
            "type": "object",
            "required": ["ram", "disk", "cpu", "ports"],
            "properties": {
                "ram": {"type": "integer"},
                "disk": {"type": "integer"},
                "cpu": {"type": "integer"},
                "ports": {"type": "integer"},
                "databases": {"type": "integer"},
                "backups": {"type": "integer"}
            }
        },
        "models.RedeemRequest": {
            "type": "object",
            "required": ["code"],
            "properties": {"code": {"type": "string"}}
        },
        "models.AdjustCreditsRequest": {
            "type": "object",
            "required": ["amount"],
            "properties": {"amount": {"type": "integer"}}
        },
        "response.ErrorResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "Error"},
                "error": {"type": "string", "example": "invalid request body"}
            }
        },
        "response.CodedErrorResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "Error"},
                "error_code": {"type": "string", "example": "MAX_MEMORY_LIMIT"},
                "error": {"type": "string"},
                "current_usage": {"type": "integer"},
                "required": {"type": "integer"},
                "attempted_to_add": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo метаданные спецификации.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "HostCredit API",
	Description:      "API хостинга игровых серверов за кредиты",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
