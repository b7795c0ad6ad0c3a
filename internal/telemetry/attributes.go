package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Сценарий
	AttrScenarioNodes    = "scenario.nodes"
	AttrScenarioArcs     = "scenario.arcs"
	AttrScenarioSourceID = "scenario.source_id"
	AttrScenarioSinkID   = "scenario.sink_id"

	// Алгоритм
	AttrAlgorithm  = "algorithm.name"
	AttrIterations = "algorithm.iterations"
	AttrMaxFlow    = "algorithm.max_flow"
	AttrTotalCost  = "algorithm.total_cost"
	AttrPathsFound = "algorithm.paths_found"

	// Валидация
	AttrValidationLevel  = "validation.level"
	AttrValidationErrors = "validation.errors"
	AttrValidationPassed = "validation.passed"

	// Кэш
	AttrCacheHit = "cache.hit"
)

// ScenarioAttributes возвращает атрибуты сценария
func ScenarioAttributes(nodes, arcs int, sourceID, sinkID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrScenarioNodes, nodes),
		attribute.Int(AttrScenarioArcs, arcs),
		attribute.String(AttrScenarioSourceID, sourceID),
		attribute.String(AttrScenarioSinkID, sinkID),
	}
}

// AlgorithmAttributes возвращает атрибуты алгоритма
func AlgorithmAttributes(name string, iterations int, maxFlow, totalCost float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrAlgorithm, name),
		attribute.Int(AttrIterations, iterations),
		attribute.Float64(AttrMaxFlow, maxFlow),
		attribute.Float64(AttrTotalCost, totalCost),
	}
}

// ValidationAttributes возвращает атрибуты валидации
func ValidationAttributes(level string, errorsCount int, passed bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrValidationLevel, level),
		attribute.Int(AttrValidationErrors, errorsCount),
		attribute.Bool(AttrValidationPassed, passed),
	}
}

// CacheAttributes возвращает атрибуты обращения к кэшу результатов
func CacheAttributes(hit bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(AttrCacheHit, hit),
	}
}
