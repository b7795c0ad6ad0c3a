package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Стандартные ошибки репозитория
var (
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrSolveNotFound    = errors.New("solve not found")
)

// ScenarioRecord персистентное представление сценария: топология
// хранится как JSON-снимок (узлы/дуги), достаточный для повторного
// решения без повторной передачи всей сцены клиентом.
type ScenarioRecord struct {
	ID        uuid.UUID
	Name      string
	NodeCount int
	ArcCount  int
	SourceID  int
	SinkID    int
	Demand    int64
	Topology  []byte // JSON-снимок Nodes/Arcs сценария
	CreatedAt time.Time
}

// SolveRecord персистентный результат одного решения сценария.
type SolveRecord struct {
	ID            uuid.UUID
	ScenarioID    uuid.UUID
	Algorithm     string
	TotalFlow     int64
	TotalCost     int64
	Satisfied     bool
	ElapsedTimeMs int64
	CreatedAt     time.Time
}

// ListOptions опции постраничного листинга
type ListOptions struct {
	Limit  int
	Offset int
}

// ScenarioRepository хранит и извлекает сценарии маршрутизации CDN.
type ScenarioRepository interface {
	Create(ctx context.Context, s *ScenarioRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*ScenarioRecord, error)
	List(ctx context.Context, opts *ListOptions) ([]*ScenarioRecord, int64, error)
}

// SolveRepository хранит и извлекает результаты решений.
type SolveRepository interface {
	Create(ctx context.Context, r *SolveRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*SolveRecord, error)
	ListByScenario(ctx context.Context, scenarioID uuid.UUID, opts *ListOptions) ([]*SolveRecord, error)
}
