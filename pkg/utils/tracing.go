package utils

import "strconv"

const defaultServiceName = "archive-waitlist"

func IsTracingEnabled() bool {
	return GetEnvBool("OTEL_TRACES_ENABLED", false)
}

func OTelServiceName() string {
	return GetEnvTrimmedOrDefault("OTEL_SERVICE_NAME", defaultServiceName)
}

// TraceSampleRatio reads OTEL_TRACES_SAMPLER_ARG, clamped to [0,1]. Unset or
// malformed values sample everything.
func TraceSampleRatio() float64 {
	raw := GetEnvTrimmed("OTEL_TRACES_SAMPLER_ARG")
	if raw == "" {
		return 1
	}

	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 1
	}

	switch {
	case ratio < 0:
		return 0
	case ratio > 1:
		return 1
	default:
		return ratio
	}
}
