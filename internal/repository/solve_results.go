package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/domain"
)

func (r *Repository) InsertSolveResult(result *domain.SolveResult) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 每个配置只保留最新一次求解结果，先把之前的删除
	query := `DELETE FROM solve_results WHERE config_name = $1`
	if _, err := tx.ExecContext(ctx, query, result.ConfigName); err != nil {
		return err
	}

	query = `
		INSERT INTO solve_results (config_name, status, started_at, finished_at, duration_seconds)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`
	params := []any{result.ConfigName, string(result.Status), result.StartedAt, result.FinishedAt, result.DurationSeconds}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&result.ID, &result.CreatedAt, &result.Version); err != nil {
		return err
	}

	for _, duty := range result.Assignments {
		query := `
			INSERT INTO solve_result_assignments (solve_result_id, duty_id, duty_code, date, start_time, end_time)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`
		params := []any{result.ID, duty.DutyID, duty.DutyCode, duty.Date, duty.StartTime, duty.EndTime}

		var assignmentID int64
		if err := tx.QueryRowContext(ctx, query, params...).Scan(&assignmentID); err != nil {
			return err
		}

		for _, emp := range duty.Employees {
			query := `
				INSERT INTO solve_result_assignment_employees (assignment_id, employee_id, employee_name)
				VALUES ($1, $2, $3)
			`
			if _, err := tx.ExecContext(ctx, query, assignmentID, emp.EmployeeID, emp.EmployeeName); err != nil {
				return err
			}
		}
	}

	for _, diag := range result.Diagnostics {
		query := `
			INSERT INTO solve_result_diagnostics (solve_result_id, kind, employee_id, duty_id, message)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.ExecContext(ctx, query, result.ID, diag.Kind, diag.EmployeeID, diag.DutyID, diag.Message); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) GetSolveResultByConfigName(configName string) (*domain.SolveResult, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		SELECT
			sr.id,
			sr.status,
			sr.started_at,
			sr.finished_at,
			sr.duration_seconds,
			sr.created_at,
			sr.version,
			sra.id,
			sra.duty_id,
			sra.duty_code,
			sra.date,
			sra.start_time,
			sra.end_time,
			srae.employee_id,
			srae.employee_name
		FROM solve_results sr
		LEFT JOIN solve_result_assignments sra ON sr.id = sra.solve_result_id
		LEFT JOIN solve_result_assignment_employees srae ON sra.id = srae.assignment_id
		WHERE sr.config_name = $1
		ORDER BY sra.duty_id, srae.employee_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, configName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := &domain.SolveResult{
		ConfigName:  configName,
		Assignments: make([]domain.DutyAssignment, 0),
	}
	assignmentsMap := make(map[int64]*domain.DutyAssignment) // 行 ID -> assignment
	var order []int64
	found := false

	for rows.Next() {
		var row struct {
			ID              int64
			Status          string
			StartedAt       time.Time
			FinishedAt      time.Time
			DurationSeconds float64
			CreatedAt       time.Time
			Version         int32

			AssignmentID sql.NullInt64
			DutyID       sql.NullInt64
			DutyCode     sql.NullString
			Date         sql.NullString
			StartTime    sql.NullString
			EndTime      sql.NullString
			EmployeeID   sql.NullInt64
			EmployeeName sql.NullString
		}

		dst := []any{
			&row.ID,
			&row.Status,
			&row.StartedAt,
			&row.FinishedAt,
			&row.DurationSeconds,
			&row.CreatedAt,
			&row.Version,
			&row.AssignmentID,
			&row.DutyID,
			&row.DutyCode,
			&row.Date,
			&row.StartTime,
			&row.EndTime,
			&row.EmployeeID,
			&row.EmployeeName,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if !found {
			result.ID = row.ID
			result.Status = domain.SolveStatus(row.Status)
			result.StartedAt = row.StartedAt
			result.FinishedAt = row.FinishedAt
			result.DurationSeconds = row.DurationSeconds
			result.CreatedAt = row.CreatedAt
			result.Version = row.Version
			found = true
		}

		// INFEASIBLE 和 UNKNOWN 的结果没有任何排班
		if !row.AssignmentID.Valid {
			continue
		}

		assignment, exists := assignmentsMap[row.AssignmentID.Int64]
		if !exists {
			assignment = &domain.DutyAssignment{
				DutyID:    row.DutyID.Int64,
				DutyCode:  row.DutyCode.String,
				Date:      row.Date.String,
				StartTime: row.StartTime.String,
				EndTime:   row.EndTime.String,
				Employees: make([]domain.AssignedEmployee, 0),
			}
			assignmentsMap[row.AssignmentID.Int64] = assignment
			order = append(order, row.AssignmentID.Int64)
		}

		if !row.EmployeeID.Valid {
			continue
		}

		assignment.Employees = append(assignment.Employees, domain.AssignedEmployee{
			EmployeeID:   row.EmployeeID.Int64,
			EmployeeName: row.EmployeeName.String,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !found {
		return nil, sql.ErrNoRows
	}

	for _, assignmentID := range order {
		result.Assignments = append(result.Assignments, *assignmentsMap[assignmentID])
	}

	if err := r.fillDiagnostics(ctx, result); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *Repository) fillDiagnostics(ctx context.Context, result *domain.SolveResult) error {
	query := `
		SELECT kind, employee_id, duty_id, message
		FROM solve_result_diagnostics
		WHERE solve_result_id = $1
		ORDER BY id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, result.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var diag domain.Diagnostic
		if err := rows.Scan(&diag.Kind, &diag.EmployeeID, &diag.DutyID, &diag.Message); err != nil {
			return err
		}
		result.Diagnostics = append(result.Diagnostics, diag)
	}

	return rows.Err()
}
