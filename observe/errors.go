package observe

import "errors"

var (
	// ErrMissingServiceName is returned by Config.Validate when ServiceName
	// is empty.
	ErrMissingServiceName = errors.New("observe: service name is required")

	// ErrInvalidSamplePct is returned for a Tracing.SamplePct outside
	// [MinSamplePct, MaxSamplePct].
	ErrInvalidSamplePct = errors.New("observe: sample ratio out of range")

	// ErrInvalidTracingExporter is returned for a name missing from
	// ValidTracingExporters.
	ErrInvalidTracingExporter = errors.New("observe: invalid tracing exporter")

	// ErrInvalidMetricsExporter is returned for a name missing from
	// ValidMetricsExporters.
	ErrInvalidMetricsExporter = errors.New("observe: invalid metrics exporter")

	// ErrInvalidLogLevel is returned for a name missing from ValidLogLevels.
	ErrInvalidLogLevel = errors.New("observe: invalid log level")

	// ErrNilObserver is returned by MiddlewareFromObserver for a nil
	// Observer.
	ErrNilObserver = errors.New("observe: observer is nil")

	// ErrMissingProviderName is returned by ProviderMeta.Validate.
	ErrMissingProviderName = errors.New("observe: provider name is required")
)

// Sampling bounds for TracingConfig.SamplePct.
const (
	MinSamplePct = 0.0
	MaxSamplePct = 1.0
)

// Accepted names. The empty string selects the exporter's no-op form.
var (
	ValidTracingExporters = []string{"otlp", "jaeger", "stdout", "none", ""}
	ValidMetricsExporters = []string{"otlp", "prometheus", "stdout", "none", ""}
	ValidLogLevels        = []string{"debug", "info", "warn", "error", ""}
)

// RedactedFields lists log field keys whose values are replaced before
// writing. Matching ignores case.
var RedactedFields = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"credential",
	"authorization",
	"redis_url",
	"cookie",
}
