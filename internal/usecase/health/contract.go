package health

import "context"

// RegistryPinger checks document registry availability.
type RegistryPinger interface {
	Ping(ctx context.Context) error
}

// CachePinger checks embedding cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks an external model provider.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
