package metrics

// Prometheus metric namespaces
const (
	namespaceMint = "minimint"
)

// Consensus subsystems
const (
	subsystemDriver = "driver"
)

// Network subsystems
const (
	subsystemTransport = "transport"
	subsystemGateway   = "gateway"
)
