package prometheus

// NormalizerMetrics holds every metric recorded by the normalizer.
type NormalizerMetrics struct {
	// Parsing
	RecordsParsedTotal  CounterVec   // format, status
	RecordParseDuration HistogramVec // format
	RecordSizeBytes     HistogramVec // format
	FieldErrorsTotal    CounterVec   // format, field
	DetectTotal         CounterVec   // format, method

	// Pipeline
	PipelineInFlight   GaugeVec   // stage
	ArchivesTotal      CounterVec // status
	RecordsSkipped     CounterVec // reason
	ReorderBufferDepth GaugeVec   // run

	// Sinks
	SinkWritesTotal   CounterVec   // sink, status
	SinkWriteDuration HistogramVec // sink

	// HTTP
	HTTPRequestsTotal   CounterVec   // method, path, status
	HTTPRequestDuration HistogramVec // method, path
}

// Default buckets.
var (
	DefaultParseDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	DefaultSizeBuckets          = []float64{1 << 10, 8 << 10, 64 << 10, 512 << 10, 4 << 20, 32 << 20, 100 << 20}
	DefaultSinkDurationBuckets  = []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10}
)

// NewNormalizerMetrics registers all normalizer metrics on c.
func NewNormalizerMetrics(c MetricsCollector) *NormalizerMetrics {
	if c == nil {
		c = NewNoopCollector()
	}
	return &NormalizerMetrics{
		RecordsParsedTotal:  c.RegisterCounter("records_parsed_total", "Records handed to the parser, by format and outcome.", "format", "status"),
		RecordParseDuration: c.RegisterHistogram("record_parse_duration_seconds", "Wall time spent parsing one record.", DefaultParseDurationBuckets, "format"),
		RecordSizeBytes:     c.RegisterHistogram("record_size_bytes", "Encoded size of parsed records.", DefaultSizeBuckets, "format"),
		FieldErrorsTotal:    c.RegisterCounter("field_errors_total", "Field-level extraction failures that left a field empty.", "format", "field"),
		DetectTotal:         c.RegisterCounter("detect_total", "Format detections, by result and method.", "format", "method"),

		PipelineInFlight:   c.RegisterGauge("pipeline_in_flight", "Records currently held by a pipeline stage.", "stage"),
		ArchivesTotal:      c.RegisterCounter("archives_total", "Archives processed, by outcome.", "status"),
		RecordsSkipped:     c.RegisterCounter("records_skipped_total", "Records skipped before parsing.", "reason"),
		ReorderBufferDepth: c.RegisterGauge("reorder_buffer_depth", "Parsed records waiting for an earlier index.", "run"),

		SinkWritesTotal:   c.RegisterCounter("sink_writes_total", "Sink writes, by sink and outcome.", "sink", "status"),
		SinkWriteDuration: c.RegisterHistogram("sink_write_duration_seconds", "Wall time of one sink write.", DefaultSinkDurationBuckets, "sink"),

		HTTPRequestsTotal:   c.RegisterCounter("http_requests_total", "HTTP requests served.", "method", "path", "status"),
		HTTPRequestDuration: c.RegisterHistogram("http_request_duration_seconds", "HTTP request latency.", nil, "method", "path"),
	}
}

// NewNoopNormalizerMetrics returns metrics that discard every observation.
func NewNoopNormalizerMetrics() *NormalizerMetrics {
	return NewNormalizerMetrics(NewNoopCollector())
}

// Status label values.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// ObserveParse records one parse outcome for format.
func (m *NormalizerMetrics) ObserveParse(format string, sizeBytes int, seconds float64, err error) {
	status := StatusOK
	if err != nil {
		status = StatusFailed
	}
	m.RecordsParsedTotal.WithLabelValues(format, status).Inc()
	m.RecordParseDuration.WithLabelValues(format).Observe(seconds)
	m.RecordSizeBytes.WithLabelValues(format).Observe(float64(sizeBytes))
}

// ObserveSink records one sink write outcome.
func (m *NormalizerMetrics) ObserveSink(sink string, seconds float64, err error) {
	status := StatusOK
	if err != nil {
		status = StatusFailed
	}
	m.SinkWritesTotal.WithLabelValues(sink, status).Inc()
	m.SinkWriteDuration.WithLabelValues(sink).Observe(seconds)
}

//Personal.AI order the ending
