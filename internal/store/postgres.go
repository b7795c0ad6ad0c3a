package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"context"

	"cdnflow/internal/telemetry"
)

// PostgresStore реализует ScenarioRepository и SolveRepository поверх pgx.
type PostgresStore struct {
	db DB
}

// NewPostgresStore создаёт репозиторий над подключением к PostgreSQL.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ==================== Scenarios ====================

func (r *PostgresStore) Create(ctx context.Context, s *ScenarioRecord) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresStore.CreateScenario")
	defer span.End()

	query := `
		INSERT INTO scenarios (id, name, node_count, arc_count, source_id, sink_id, demand, topology)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		s.ID, s.Name, s.NodeCount, s.ArcCount, s.SourceID, s.SinkID, s.Demand, s.Topology,
	).Scan(&s.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create scenario: %w", err)
	}
	return nil
}

func (r *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*ScenarioRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresStore.GetScenario")
	defer span.End()

	query := `
		SELECT id, name, node_count, arc_count, source_id, sink_id, demand, topology, created_at
		FROM scenarios
		WHERE id = $1
	`

	s := &ScenarioRecord{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.NodeCount, &s.ArcCount, &s.SourceID, &s.SinkID, &s.Demand, &s.Topology, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScenarioNotFound
		}
		return nil, fmt.Errorf("failed to get scenario: %w", err)
	}
	return s, nil
}

func (r *PostgresStore) List(ctx context.Context, opts *ListOptions) ([]*ScenarioRecord, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresStore.ListScenarios")
	defer span.End()

	if opts == nil {
		opts = &ListOptions{Limit: 20, Offset: 0}
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM scenarios`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count scenarios: %w", err)
	}

	query := `
		SELECT id, name, node_count, arc_count, source_id, sink_id, demand, created_at
		FROM scenarios
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	var results []*ScenarioRecord
	for rows.Next() {
		s := &ScenarioRecord{}
		if err := rows.Scan(&s.ID, &s.Name, &s.NodeCount, &s.ArcCount, &s.SourceID, &s.SinkID, &s.Demand, &s.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan scenario: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	return results, total, nil
}

// ==================== Solves ====================

// SolveStore реализует SolveRepository поверх pgx, под отдельным именем
// от PostgresStore так как обе реализации делят одно подключение, но
// адресуются разными репозиторными интерфейсами у вызывающей стороны.
type SolveStore struct {
	db DB
}

// NewSolveStore создаёт репозиторий результатов решений.
func NewSolveStore(db DB) *SolveStore {
	return &SolveStore{db: db}
}

func (r *SolveStore) Create(ctx context.Context, s *SolveRecord) error {
	ctx, span := telemetry.StartSpan(ctx, "SolveStore.Create")
	defer span.End()

	query := `
		INSERT INTO solves (id, scenario_id, algorithm, total_flow, total_cost, satisfied, elapsed_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		s.ID, s.ScenarioID, s.Algorithm, s.TotalFlow, s.TotalCost, s.Satisfied, s.ElapsedTimeMs,
	).Scan(&s.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create solve: %w", err)
	}
	return nil
}

func (r *SolveStore) GetByID(ctx context.Context, id uuid.UUID) (*SolveRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "SolveStore.GetByID")
	defer span.End()

	query := `
		SELECT id, scenario_id, algorithm, total_flow, total_cost, satisfied, elapsed_time_ms, created_at
		FROM solves
		WHERE id = $1
	`

	s := &SolveRecord{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.ScenarioID, &s.Algorithm, &s.TotalFlow, &s.TotalCost, &s.Satisfied, &s.ElapsedTimeMs, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSolveNotFound
		}
		return nil, fmt.Errorf("failed to get solve: %w", err)
	}
	return s, nil
}

func (r *SolveStore) ListByScenario(ctx context.Context, scenarioID uuid.UUID, opts *ListOptions) ([]*SolveRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "SolveStore.ListByScenario")
	defer span.End()

	if opts == nil {
		opts = &ListOptions{Limit: 20, Offset: 0}
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}

	query := `
		SELECT id, scenario_id, algorithm, total_flow, total_cost, satisfied, elapsed_time_ms, created_at
		FROM solves
		WHERE scenario_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, scenarioID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list solves: %w", err)
	}
	defer rows.Close()

	var results []*SolveRecord
	for rows.Next() {
		s := &SolveRecord{}
		if err := rows.Scan(&s.ID, &s.ScenarioID, &s.Algorithm, &s.TotalFlow, &s.TotalCost, &s.Satisfied, &s.ElapsedTimeMs, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan solve: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return results, nil
}
