package rabbitmq

// Ключи маршрутизации событий сборки.
const (
	RoutingBuildCompleted = "build.completed"
	RoutingBuildFailed    = "build.failed"
)

// QueueConfig очередь и ключ, которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetProvisioningQueues возвращает очереди событий сборки.
func GetProvisioningQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "provisioning.completed", RoutingKey: RoutingBuildCompleted},
		{QueueName: "provisioning.failed", RoutingKey: RoutingBuildFailed},
	}
}
