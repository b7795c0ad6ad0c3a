package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestConfig(t *testing.T) {
	cfg := Config{
		Enabled:     true,
		Endpoint:    "localhost:4317",
		ServiceName: "test-service",
		Version:     "1.0.0",
		Environment: "test",
		SampleRate:  0.5,
	}

	if cfg.ServiceName != "test-service" {
		t.Errorf("ServiceName = %s, want test-service", cfg.ServiceName)
	}
}

func TestInit_Disabled(t *testing.T) {
	cfg := Config{
		Enabled:     false,
		ServiceName: "test",
	}

	provider, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if provider == nil {
		t.Fatal("provider should not be nil")
	}

	if provider.tracer == nil {
		t.Error("tracer should not be nil even when disabled")
	}
}

func TestGet_Uninitialized(t *testing.T) {
	// Reset global
	globalProvider = nil

	provider := Get()
	if provider == nil {
		t.Fatal("Get() should return provider even when uninitialized")
	}

	if provider.tracer == nil {
		t.Error("tracer should not be nil")
	}
}

func TestStartSpan(t *testing.T) {
	globalProvider = nil

	ctx := context.Background()
	newCtx, span := StartSpan(ctx, "test-span")

	if span == nil {
		t.Error("span should not be nil")
	}

	// Проверяем, что контекст изменился (содержит span)
	_ = newCtx

	span.End()
}

func TestSpanFromContext(t *testing.T) {
	ctx := context.Background()
	span := SpanFromContext(ctx)

	// Should return noop span for context without span
	if span == nil {
		t.Error("SpanFromContext should return span (noop)")
	}
}

func TestAddEvent(t *testing.T) {
	ctx := context.Background()
	newCtx, span := StartSpan(ctx, "test-span")
	defer span.End()

	// Should not panic
	AddEvent(newCtx, "test-event",
		attribute.String("key", "value"),
		attribute.Int("count", 42),
	)
}

func TestSetError(t *testing.T) {
	ctx := context.Background()
	newCtx, span := StartSpan(ctx, "test-span")
	defer span.End()

	// Should not panic
	SetError(newCtx, context.DeadlineExceeded)
}

func TestSetAttributes(t *testing.T) {
	ctx := context.Background()
	newCtx, span := StartSpan(ctx, "test-span")
	defer span.End()

	// Should not panic
	SetAttributes(newCtx,
		attribute.String("key1", "value1"),
		attribute.Int("key2", 42),
	)
}

func TestWithAttributes(t *testing.T) {
	opt := WithAttributes(
		attribute.String("key", "value"),
	)

	if opt == nil {
		t.Error("WithAttributes should return option")
	}
}

func TestProvider_Tracer(t *testing.T) {
	provider := &Provider{
		tracer: noop.NewTracerProvider().Tracer("test"),
	}

	tracer := provider.Tracer()
	if tracer == nil {
		t.Error("Tracer() should not return nil")
	}
}

func TestProvider_Shutdown(t *testing.T) {
	provider := &Provider{
		tp:     nil,
		tracer: noop.NewTracerProvider().Tracer("test"),
	}

	err := provider.Shutdown(context.Background())
	if err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestScenarioAttributes(t *testing.T) {
	attrs := ScenarioAttributes(10, 20, "src-1", "sink-5")

	if len(attrs) != 4 {
		t.Errorf("expected 4 attributes, got %d", len(attrs))
	}

	expected := map[string]bool{
		AttrScenarioNodes:    true,
		AttrScenarioArcs:     true,
		AttrScenarioSourceID: true,
		AttrScenarioSinkID:   true,
	}

	for _, attr := range attrs {
		key := string(attr.Key)
		if !expected[key] {
			t.Errorf("unexpected attribute key: %s", key)
		}
	}
}

func TestAlgorithmAttributes(t *testing.T) {
	attrs := AlgorithmAttributes("ssp", 100, 50.5, 25.0)

	if len(attrs) != 4 {
		t.Errorf("expected 4 attributes, got %d", len(attrs))
	}
}

func TestValidationAttributes(t *testing.T) {
	attrs := ValidationAttributes("strict", 3, false)

	if len(attrs) != 3 {
		t.Errorf("expected 3 attributes, got %d", len(attrs))
	}
}

func TestCacheAttributes(t *testing.T) {
	attrs := CacheAttributes(true)

	if len(attrs) != 1 {
		t.Errorf("expected 1 attribute, got %d", len(attrs))
	}
}

func TestHTTPMiddleware(t *testing.T) {
	globalProvider = nil

	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/solve", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestHTTPMiddleware_ServerError(t *testing.T) {
	globalProvider = nil

	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/solve", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
}
