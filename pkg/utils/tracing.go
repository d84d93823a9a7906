package utils

const DefaultServiceName = "digitalcraft-dispatch"

// IsTracingEnabled reads OTEL_TRACES_ENABLED. Unset or unparsable values
// leave tracing off.
func IsTracingEnabled() bool {
	return GetEnvBool("OTEL_TRACES_ENABLED", false)
}

// OTelServiceName names the dispatch service in spans and the gin middleware.
func OTelServiceName() string {
	return GetEnvTrimmedOrDefault("OTEL_SERVICE_NAME", DefaultServiceName)
}
