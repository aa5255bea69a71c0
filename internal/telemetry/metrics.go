package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/agendapp/office-service"

// Metrics holds the service's custom instruments. Every Record method is
// safe on a nil *Metrics.
type Metrics struct {
	HTTPRequestsTotal metric.Int64Counter
	HTTPDurationMs    metric.Float64Histogram

	AppointmentsGenerated metric.Int64Counter
	DocumentsRendered     metric.Int64Counter
	UnresolvedTokens      metric.Int64Counter
	PatientTotal          metric.Int64Counter
	ProfileCacheTotal     metric.Int64Counter

	AuthFailuresTotal       metric.Int64Counter
	PermissionCheckDuration metric.Float64Histogram
}

// InitMetrics registers the instruments on the global meter provider.
func InitMetrics() (*Metrics, error) {
	return NewMetrics(otel.Meter(meterName))
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	counter := func(name, desc, unit string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		return c
	}
	histogram := func(name, desc string) metric.Float64Histogram {
		if err != nil {
			return nil
		}
		var h metric.Float64Histogram
		h, err = meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("ms"))
		return h
	}

	m.HTTPRequestsTotal = counter("http_server_requests_total", "Total number of HTTP requests", "{request}")
	m.HTTPDurationMs = histogram("http_server_duration_milliseconds", "HTTP request duration in milliseconds")
	m.AppointmentsGenerated = counter("appointments_generated_total", "Appointments produced by recurrence expansion", "{appointment}")
	m.DocumentsRendered = counter("documents_rendered_total", "Documents rendered from templates", "{document}")
	m.UnresolvedTokens = counter("document_unresolved_tokens_total", "Placeholders left unresolved after rendering", "{token}")
	m.PatientTotal = counter("patient_total", "Total number of patient operations", "{operation}")
	m.ProfileCacheTotal = counter("profile_cache_total", "Profile cache lookups by result", "{lookup}")
	m.AuthFailuresTotal = counter("auth_failures_total", "Total number of authentication failures", "{failure}")
	m.PermissionCheckDuration = histogram("permission_check_duration_ms", "Permission check duration in milliseconds")
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, durationMs float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http_method", method),
		attribute.String("http_route", route),
		attribute.Int("http_status_code", statusCode),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPDurationMs.Record(ctx, durationMs, attrs)
}

// RecordAppointmentsGenerated counts the occurrences of one created series.
// frequency is "none" for a single appointment.
func (m *Metrics) RecordAppointmentsGenerated(ctx context.Context, frequency string, count int) {
	if m == nil {
		return
	}
	m.AppointmentsGenerated.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("frequency", frequency),
	))
}

func (m *Metrics) RecordDocumentRendered(ctx context.Context, kind string, unresolved int) {
	if m == nil {
		return
	}
	m.DocumentsRendered.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	if unresolved > 0 {
		m.UnresolvedTokens.Add(ctx, int64(unresolved), metric.WithAttributes(attribute.String("kind", kind)))
	}
}

func (m *Metrics) RecordPatientOperation(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.PatientTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordCacheResult takes "hit", "miss" or "error".
func (m *Metrics) RecordCacheResult(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.ProfileCacheTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) RecordAuthFailure(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.AuthFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) RecordPermissionCheck(ctx context.Context, permission string, durationMs float64, allowed bool) {
	if m == nil {
		return
	}
	m.PermissionCheckDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("permission", permission),
		attribute.Bool("allowed", allowed),
	))
}
