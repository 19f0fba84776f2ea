package xrotate

import (
	"context"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	instrumentationName = "github.com/omeyang/picasso/xrotate"

	metricRotations    = "picasso.rotate.rotations"
	metricCompressions = "picasso.rotate.compressions"
	metricErrors       = "picasso.rotate.errors"
)

// rotateMetrics 轮转器指标
type rotateMetrics struct {
	rotations    metric.Int64Counter
	compressions metric.Int64Counter
	errors       metric.Int64Counter
	fileAttr     attribute.KeyValue
}

func newRotateMetrics(provider metric.MeterProvider, filename string) (*rotateMetrics, error) {
	if provider == nil {
		provider = noop.NewMeterProvider()
	}
	meter := provider.Meter(instrumentationName)

	rotations, err := meter.Int64Counter(metricRotations,
		metric.WithDescription("Number of completed log file rotations"))
	if err != nil {
		return nil, err
	}
	compressions, err := meter.Int64Counter(metricCompressions,
		metric.WithDescription("Number of backups compressed into archives"))
	if err != nil {
		return nil, err
	}
	errs, err := meter.Int64Counter(metricErrors,
		metric.WithDescription("Number of failed file operations"))
	if err != nil {
		return nil, err
	}

	return &rotateMetrics{
		rotations:    rotations,
		compressions: compressions,
		errors:       errs,
		fileAttr:     attribute.String("file", filepath.Base(filename)),
	}, nil
}

func (m *rotateMetrics) rotated() {
	m.rotations.Add(context.Background(), 1, metric.WithAttributes(m.fileAttr))
}

func (m *rotateMetrics) compressed(codec string) {
	m.compressions.Add(context.Background(), 1,
		metric.WithAttributes(m.fileAttr, attribute.String("codec", codec)))
}

func (m *rotateMetrics) failed(op string) {
	m.errors.Add(context.Background(), 1,
		metric.WithAttributes(m.fileAttr, attribute.String("op", op)))
}
