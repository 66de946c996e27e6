package prometheus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNormalizerMetrics_AllRegistered(t *testing.T) {
	c := newTestCollector(t)
	m := NewNormalizerMetrics(c)
	require.NotNil(t, m)

	m.ObserveParse("XML_V4", 2048, 0.01, nil)
	m.ObserveParse("SGML", 512, 0.02, errors.New("bad root"))
	m.FieldErrorsTotal.WithLabelValues("SGML", "publication_date").Inc()
	m.DetectTotal.WithLabelValues("GREENBOOK", "content").Inc()
	m.PipelineInFlight.WithLabelValues("parse").Inc()
	m.ArchivesTotal.WithLabelValues(StatusOK).Inc()
	m.RecordsSkipped.WithLabelValues("duplicate").Inc()
	m.ReorderBufferDepth.WithLabelValues("run").Set(3)
	m.ObserveSink("kafka", 0.1, nil)
	m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/parse", "200").Inc()
	m.HTTPRequestDuration.WithLabelValues("POST", "/api/v1/parse").Observe(0.05)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_records_parsed_total{format="XML_V4",status="ok"} 1`)
	assert.Contains(t, out, `test_unit_records_parsed_total{format="SGML",status="failed"} 1`)
	assert.Contains(t, out, `test_unit_field_errors_total{field="publication_date",format="SGML"} 1`)
	assert.Contains(t, out, `test_unit_sink_writes_total{sink="kafka",status="ok"} 1`)
	assert.Contains(t, out, "test_unit_record_size_bytes_bucket")
	assert.Contains(t, out, "test_unit_reorder_buffer_depth")
}

func TestNewNormalizerMetrics_NilCollector(t *testing.T) {
	m := NewNormalizerMetrics(nil)
	assert.NotPanics(t, func() {
		m.ObserveParse("PAP", 1, 1, nil)
		m.ObserveSink("neo4j", 1, errors.New("down"))
	})
}

func TestNewNoopNormalizerMetrics(t *testing.T) {
	assert.NotNil(t, NewNoopNormalizerMetrics())
}

//Personal.AI order the ending
