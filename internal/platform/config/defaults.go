package config

const (
	defaultServerPort = 8080

	defaultRetryMaxAttempts = 3
	defaultRetryMultiplier  = 2.0

	defaultCircuitBreakerMaxFailures = 5
	defaultCircuitBreakerHalfOpen    = 1
)

// defaults returns the built-in configuration values, overridable by
// base.yaml, the profile YAML, and env vars.
func defaults() map[string]any {
	return map[string]any{
		"server.host":          "0.0.0.0",
		"server.port":          defaultServerPort,
		"server.read_timeout":  "5s",
		"server.write_timeout": "10s",
		"server.idle_timeout":  "120s",

		"log.level":  "info",
		"log.format": "json",

		"database.path": "data/taskledger.db",

		"directory.cache_ttl": "10m",
		"directory.client.base_url":                        "http://localhost:8081",
		"directory.client.timeout":                         "10s",
		"directory.client.retry.max_attempts":              defaultRetryMaxAttempts,
		"directory.client.retry.initial_interval":          "100ms",
		"directory.client.retry.max_interval":              "10s",
		"directory.client.retry.multiplier":                defaultRetryMultiplier,
		"directory.client.circuit_breaker.max_failures":    defaultCircuitBreakerMaxFailures,
		"directory.client.circuit_breaker.timeout":         "30s",
		"directory.client.circuit_breaker.half_open_limit": defaultCircuitBreakerHalfOpen,

		"notifier.enabled": false,
		"notifier.client.base_url":                        "http://localhost:8082",
		"notifier.client.timeout":                         "10s",
		"notifier.client.retry.max_attempts":              defaultRetryMaxAttempts,
		"notifier.client.retry.initial_interval":          "100ms",
		"notifier.client.retry.max_interval":              "10s",
		"notifier.client.retry.multiplier":                defaultRetryMultiplier,
		"notifier.client.circuit_breaker.max_failures":    defaultCircuitBreakerMaxFailures,
		"notifier.client.circuit_breaker.timeout":         "30s",
		"notifier.client.circuit_breaker.half_open_limit": defaultCircuitBreakerHalfOpen,

		"telemetry.enabled":  false,
		"telemetry.exporter": "stdout",
		"telemetry.endpoint": "",
	}
}
