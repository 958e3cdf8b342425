// shared/registry/constants.go
package registry

const (
	// RedisRegistryHashPrefix prefixes the per-type registry hash key, e.g.
	// "services:game-service". Registrars write their ServiceInfo into that
	// hash; RegistryClient reads it back.
	RedisRegistryHashPrefix = "services:"
)
