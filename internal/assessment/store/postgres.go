package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/lib/pq"

	"caseflow/internal/assessment/models"
	"caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/platform/tx"
)

// PostgresProjectStore persists assessment projects. Stages are a JSONB
// column: they are always read and written with their parent and never
// queried independently.
type PostgresProjectStore struct {
	db *sql.DB
}

func NewPostgresProjectStore(db *sql.DB) *PostgresProjectStore {
	return &PostgresProjectStore{db: db}
}

const projectColumns = `id, request_id, template_id, stages, budgeted_hours,
	actual_hours, actual_cost_minor, currency, overall_status, created_at, updated_at`

func (s *PostgresProjectStore) Create(ctx context.Context, project *models.Project) error {
	q := tx.Resolve(ctx, s.db)
	stages, err := json.Marshal(project.Stages)
	if err != nil {
		return fmt.Errorf("marshal stages: %w", err)
	}
	costMinor, currency := moneyParts(project.ActualCost)
	_, err = q.ExecContext(ctx, `
		INSERT INTO assessments (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		project.ID.String(), project.RequestID.String(), project.TemplateID, stages,
		project.BudgetedHours, project.ActualHours, costMinor, currency,
		string(project.OverallStatus), project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (s *PostgresProjectStore) Get(ctx context.Context, id domain.AssessmentID) (*models.Project, error) {
	q := tx.Resolve(ctx, s.db)
	row := q.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM assessments WHERE id = $1`, id.String())
	return scanProject(row)
}

func (s *PostgresProjectStore) GetByRequest(ctx context.Context, requestID domain.RequestID) (*models.Project, error) {
	q := tx.Resolve(ctx, s.db)
	row := q.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM assessments WHERE request_id = $1`, requestID.String())
	return scanProject(row)
}

func (s *PostgresProjectStore) Update(ctx context.Context, project *models.Project) error {
	q := tx.Resolve(ctx, s.db)
	stages, err := json.Marshal(project.Stages)
	if err != nil {
		return fmt.Errorf("marshal stages: %w", err)
	}
	costMinor, currency := moneyParts(project.ActualCost)
	res, err := q.ExecContext(ctx, `
		UPDATE assessments SET stages = $1, actual_hours = $2, actual_cost_minor = $3,
			currency = $4, overall_status = $5, updated_at = $6
		WHERE id = $7`,
		stages, project.ActualHours, costMinor, currency,
		string(project.OverallStatus), project.UpdatedAt, project.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update assessment rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanProject(row *sql.Row) (*models.Project, error) {
	var (
		project   models.Project
		id, rid   string
		stages    []byte
		costMinor sql.NullInt64
		currency  sql.NullString
		status    string
	)
	err := row.Scan(&id, &rid, &project.TemplateID, &stages, &project.BudgetedHours,
		&project.ActualHours, &costMinor, &currency, &status, &project.CreatedAt, &project.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan assessment: %w", err)
	}
	project.ID, err = domain.ParseAssessmentID(id)
	if err != nil {
		return nil, fmt.Errorf("parse assessment id: %w", err)
	}
	project.RequestID, err = domain.ParseRequestID(rid)
	if err != nil {
		return nil, fmt.Errorf("parse assessment request id: %w", err)
	}
	if err := json.Unmarshal(stages, &project.Stages); err != nil {
		return nil, fmt.Errorf("unmarshal stages: %w", err)
	}
	project.OverallStatus = models.ProjectStatus(status)
	if costMinor.Valid && currency.Valid {
		project.ActualCost = money.New(costMinor.Int64, currency.String)
	}
	return &project, nil
}

// PostgresTaskStore persists tasks.
type PostgresTaskStore struct {
	db *sql.DB
}

func NewPostgresTaskStore(db *sql.DB) *PostgresTaskStore {
	return &PostgresTaskStore{db: db}
}

const taskColumns = `id, assessment_id, request_id, stage_sequence, code, name, status,
	assigned_to, estimated_hours, actual_hours, hourly_rate_minor, total_cost_minor,
	currency, created_at, updated_at`

func (s *PostgresTaskStore) Create(ctx context.Context, task *models.Task) error {
	q := tx.Resolve(ctx, s.db)
	rateMinor, currency := moneyParts(task.HourlyRate)
	costMinor, _ := moneyParts(task.TotalCost)
	_, err := q.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		task.ID.String(), task.AssessmentID.String(), task.RequestID.String(),
		task.StageSequence, task.Code, task.Name, string(task.Status), task.AssignedTo,
		task.EstimatedHours, task.ActualHours, rateMinor, costMinor, currency,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *PostgresTaskStore) Get(ctx context.Context, id domain.TaskID) (*models.Task, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id.String())
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get task: %w", err)
		}
		return nil, sentinel.ErrNotFound
	}
	return scanTask(rows)
}

func (s *PostgresTaskStore) Update(ctx context.Context, task *models.Task) error {
	q := tx.Resolve(ctx, s.db)
	costMinor, _ := moneyParts(task.TotalCost)
	res, err := q.ExecContext(ctx, `
		UPDATE tasks SET status = $1, assigned_to = $2, actual_hours = $3,
			total_cost_minor = $4, updated_at = $5
		WHERE id = $6`,
		string(task.Status), task.AssignedTo, task.ActualHours, costMinor,
		task.UpdatedAt, task.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresTaskStore) ListByAssessment(ctx context.Context, assessmentID domain.AssessmentID) ([]*models.Task, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE assessment_id = $1 ORDER BY stage_sequence, code`, assessmentID.String())
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func scanTask(rows *sql.Rows) (*models.Task, error) {
	var (
		task         models.Task
		id, aid, rid string
		status       string
		rateMinor    sql.NullInt64
		costMinor    sql.NullInt64
		currency     sql.NullString
	)
	err := rows.Scan(&id, &aid, &rid, &task.StageSequence, &task.Code, &task.Name,
		&status, &task.AssignedTo, &task.EstimatedHours, &task.ActualHours,
		&rateMinor, &costMinor, &currency, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	task.ID, err = domain.ParseTaskID(id)
	if err != nil {
		return nil, fmt.Errorf("parse task id: %w", err)
	}
	task.AssessmentID, err = domain.ParseAssessmentID(aid)
	if err != nil {
		return nil, fmt.Errorf("parse task assessment id: %w", err)
	}
	task.RequestID, err = domain.ParseRequestID(rid)
	if err != nil {
		return nil, fmt.Errorf("parse task request id: %w", err)
	}
	task.Status = models.TaskStatus(status)
	if currency.Valid {
		if rateMinor.Valid {
			task.HourlyRate = money.New(rateMinor.Int64, currency.String)
		}
		if costMinor.Valid {
			task.TotalCost = money.New(costMinor.Int64, currency.String)
		}
	}
	return &task, nil
}

func moneyParts(m *money.Money) (sql.NullInt64, sql.NullString) {
	if m == nil {
		return sql.NullInt64{}, sql.NullString{}
	}
	return sql.NullInt64{Int64: m.Amount(), Valid: true},
		sql.NullString{String: m.Currency().Code, Valid: true}
}
