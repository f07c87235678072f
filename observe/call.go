package observe

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/jonwraymond/genops/generation"
)

// Attribute keys shared by spans, metrics and log entries.
const (
	AttrRequestID  = "generation.request_id"
	AttrProvider   = "generation.provider"
	AttrModel      = "generation.model"
	AttrKind       = "generation.kind"
	AttrProject    = "generation.project"
	AttrErrorClass = "error.class"
)

// CallMeta identifies one generation call for telemetry purposes.
type CallMeta struct {
	RequestID string
	Provider  string
	Model     string
	Kind      string
	Project   string
}

// CallMetaFor builds the metadata for req.
func CallMetaFor(req generation.Request) CallMeta {
	return CallMeta{
		RequestID: req.ID,
		Provider:  req.Provider,
		Model:     req.Model,
		Kind:      string(req.Kind),
		Project:   req.ProjectID,
	}
}

// SpanName returns the deterministic span name for this call.
// Format: generate.<provider>, or generate when no provider is known yet.
func (m CallMeta) SpanName() string {
	if m.Provider == "" {
		return "generate"
	}
	return "generate." + m.Provider
}

// metricAttributes are the low-cardinality attributes used on instruments.
func (m CallMeta) metricAttributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrProvider, m.Provider),
		attribute.String(AttrKind, m.Kind),
	}
	if m.Model != "" {
		attrs = append(attrs, attribute.String(AttrModel, m.Model))
	}
	return attrs
}

// spanAttributes include the request and project identifiers.
func (m CallMeta) spanAttributes() []attribute.KeyValue {
	attrs := m.metricAttributes()
	if m.RequestID != "" {
		attrs = append(attrs, attribute.String(AttrRequestID, m.RequestID))
	}
	if m.Project != "" {
		attrs = append(attrs, attribute.String(AttrProject, m.Project))
	}
	return attrs
}
