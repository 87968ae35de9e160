package observability

import (
	"context"
	"time"

	"github.com/annel0/blockworld/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// RunIDKey атрибут ресурса с идентификатором запуска
const RunIDKey = attribute.Key("blockworld.run_id")

// TelemetryOptions параметры экспорта трассировки
type TelemetryOptions struct {
	ServiceName string
	RunID       string
	Endpoint    string  // host:port OTLP HTTP; пусто означает localhost:4318 или OTEL_EXPORTER_OTLP_ENDPOINT
	Insecure    bool    // HTTP без TLS
	SampleRatio float64 // доля сохраняемых трасс; <= 0 или >= 1 означает все
}

// sampler выбирает семплер по доле; решение родительского span сохраняется
func (o TelemetryOptions) sampler() trace.Sampler {
	if o.SampleRatio <= 0 || o.SampleRatio >= 1 {
		return trace.ParentBased(trace.AlwaysSample())
	}
	return trace.ParentBased(trace.TraceIDRatioBased(o.SampleRatio))
}

func (o TelemetryOptions) exporterOptions() []otlptracehttp.Option {
	var opts []otlptracehttp.Option
	if o.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(o.Endpoint))
	}
	if o.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

// NewTracerProvider создаёт провайдер с OTLP HTTP экспортером и пакетной отправкой
func NewTracerProvider(ctx context.Context, o TelemetryOptions) (*trace.TracerProvider, error) {
	exp, err := otlptracehttp.New(ctx, o.exporterOptions()...)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(o.ServiceName),
			RunIDKey.String(o.RunID),
		),
	)
	if err != nil {
		return nil, err
	}

	return trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
		trace.WithSampler(o.sampler()),
	), nil
}

// InitTelemetry устанавливает глобальный TracerProvider.
// Возвращает функцию shutdown, которую нужно вызвать при завершении приложения.
func InitTelemetry(ctx context.Context, o TelemetryOptions) (func(context.Context) error, error) {
	tp, err := NewTracerProvider(ctx, o)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)
	endpoint := o.Endpoint
	if endpoint == "" {
		endpoint = "default"
	}
	logging.Info("📡 OpenTelemetry инициализирован (service=%s, run=%s, endpoint=%s)", o.ServiceName, o.RunID, endpoint)

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
	return shutdown, nil
}
