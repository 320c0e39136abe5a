package models

import "fmt"

// Коды ошибок, которые видит пользователь.
const (
	CodeServerCreationDisabled = "SERVER_CREATION_DISABLED"
	CodeUserNotFound           = "USER_NOT_FOUND"
	CodePendingRequest         = "PENDING_SERVER_CREATION_REQUEST"
	CodeLocationNotFound       = "LOCATION_NOT_FOUND"
	CodeCategoryNotFound       = "CATEGORY_NOT_FOUND"
	CodeEggNotFound            = "EGG_NOT_FOUND"
	CodeEggCategoryMismatch    = "EGG_CATEGORY_MISMATCH"
	CodeVIPRequired            = "VIP_REQUIRED"
	CodeLocationFull           = "LOCATION_FULL"

	CodeMaxMemory     = "MAX_MEMORY_LIMIT"
	CodeMaxCPU        = "MAX_CPU_LIMIT"
	CodeMaxDisk       = "MAX_DISK_LIMIT"
	CodeMaxDatabase   = "MAX_DATABASE_LIMIT"
	CodeMaxBackup     = "MAX_BACKUP_LIMIT"
	CodeMaxAllocation = "MAX_ALLOCATION_LIMIT"
	CodeMaxServer     = "MAX_SERVER_LIMIT"

	CodeQueueItemNotFound   = "QUEUE_ITEM_NOT_FOUND"
	CodeQueueItemNotPending = "QUEUE_ITEM_NOT_PENDING"

	CodeServerNotFound      = "SERVER_NOT_FOUND"
	CodeRenewalDisabled     = "RENEWAL_DISABLED"
	CodeInsufficientCredits = "INSUFFICIENT_CREDITS"

	CodeRewardLinkActive   = "REWARD_LINK_ACTIVE"
	CodeRewardLinkInvalid  = "REWARD_LINK_INVALID"
	CodeRewardCooldown     = "REWARD_COOLDOWN"
	CodeInvalidAmount      = "INVALID_AMOUNT"
	CodeHostingUnavailable = "HOSTING_UNAVAILABLE"
)

// CodedError ошибка с машинно-читаемым кодом. Для ошибок квоты заполняются
// поля текущего потребления, лимита и запрошенного объёма.
type CodedError struct {
	Code           string `json:"error_code"`
	Message        string `json:"error"`
	CurrentUsage   *int64 `json:"current_usage,omitempty"`
	Required       *int64 `json:"required,omitempty"`
	AttemptedToAdd *int64 `json:"attempted_to_add,omitempty"`
}

func (e *CodedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewCodedError создаёт ошибку с кодом и сообщением.
func NewCodedError(code, msg string) *CodedError {
	return &CodedError{Code: code, Message: msg}
}

// NewLimitError создаёт ошибку превышения лимита ресурса.
func NewLimitError(code, resource string, current, limit, add int64) *CodedError {
	return &CodedError{
		Code:           code,
		Message:        fmt.Sprintf("%s limit exceeded: %d used, %d requested, limit %d", resource, current, add, limit),
		CurrentUsage:   &current,
		Required:       &limit,
		AttemptedToAdd: &add,
	}
}
