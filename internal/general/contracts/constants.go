package contracts

// Exchanges
const (
	ExchangeRideTopic     = "ride_topic"
	ExchangeNotifications = "notifications_topic"
)

// Queues
const (
	QueueRideStatus  = "ride_status"
	QueuePushGateway = "push_gateway"
)

// Routing patterns
const (
	RouteRideStatusPrefix = "ride.status." // {status}
	RoutePushPrefix       = "push."        // {device_kind}
)
