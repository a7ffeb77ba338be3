package repository

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/domain"
)

func (r *Repository) GetAllPlanningConfigs() ([]*domain.PlanningConfig, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		SELECT
			pc.id,
			pc.name,
			pc.description,
			pc.start_date,
			pc.end_date,
			pc.created_at,
			pc.version,
			pce.employee_id,
			pce.name,
			pce.max_days_in_a_row,
			pce.max_hours_per_day,
			pce.max_hours_in_period,
			pce.work_percentage,
			pceod.off_day
		FROM planning_configs pc
		LEFT JOIN planning_config_employees pce ON pc.id = pce.config_id
		LEFT JOIN planning_config_employee_off_days pceod
			ON pce.config_id = pceod.config_id AND pce.employee_id = pceod.employee_id
		ORDER BY pc.id, pce.employee_id, pceod.off_day
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configsMap := make(map[int64]*domain.PlanningConfig)
	employeesMap := make(map[int64]map[int64]*domain.Employee) // configID -> employeeID -> employee
	var order []int64

	for rows.Next() {
		var row struct {
			ID          int64
			Name        string
			Description string
			StartDate   string
			EndDate     string
			CreatedAt   time.Time
			Version     int32

			EmployeeID       sql.NullInt64
			EmployeeName     sql.NullString
			MaxDaysInARow    sql.NullInt32
			MaxHoursPerDay   sql.NullFloat64
			MaxHoursInPeriod sql.NullFloat64
			WorkPercentage   sql.NullInt32
			OffDay           sql.NullString
		}

		dst := []any{
			&row.ID,
			&row.Name,
			&row.Description,
			&row.StartDate,
			&row.EndDate,
			&row.CreatedAt,
			&row.Version,
			&row.EmployeeID,
			&row.EmployeeName,
			&row.MaxDaysInARow,
			&row.MaxHoursPerDay,
			&row.MaxHoursInPeriod,
			&row.WorkPercentage,
			&row.OffDay,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if _, exists := configsMap[row.ID]; !exists {
			// 说明此时是第一次查到这个配置，需要在 map 中初始化这个配置
			configsMap[row.ID] = &domain.PlanningConfig{
				ID:          row.ID,
				Name:        row.Name,
				Description: row.Description,
				StartDate:   row.StartDate,
				EndDate:     row.EndDate,
				CreatedAt:   row.CreatedAt,
				Version:     row.Version,
			}
			employeesMap[row.ID] = make(map[int64]*domain.Employee)
			order = append(order, row.ID)
		}

		// 如果 employeeID 为空，则表示这个配置不存在任何员工，此时可以跳过员工解析的部分
		if !row.EmployeeID.Valid {
			continue
		}

		// 解析员工
		emp, exists := employeesMap[row.ID][row.EmployeeID.Int64]
		if !exists {
			// 说明此时是第一次查到这个员工，需要在 map 中初始化这个员工
			emp = &domain.Employee{
				ID:               row.EmployeeID.Int64,
				Name:             row.EmployeeName.String,
				MaxDaysInARow:    int(row.MaxDaysInARow.Int32),
				MaxHoursPerDay:   row.MaxHoursPerDay.Float64,
				MaxHoursInPeriod: row.MaxHoursInPeriod.Float64,
				WorkPercentage:   int(row.WorkPercentage.Int32),
				OffDays:          make([]string, 0),
			}
			employeesMap[row.ID][row.EmployeeID.Int64] = emp
		}

		// 如果 offDay 为空，则表示这个员工不存在任何休息日，此时可以跳过休息日解析的部分
		if !row.OffDay.Valid {
			continue
		}

		emp.OffDays = append(emp.OffDays, row.OffDay.String)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 组装结果，保持主表的 id 顺序
	configs := make([]*domain.PlanningConfig, 0, len(configsMap))
	for _, configID := range order {
		cfg := configsMap[configID]
		cfg.Employees = make([]domain.Employee, 0, len(employeesMap[configID]))
		for _, emp := range employeesMap[configID] {
			cfg.Employees = append(cfg.Employees, *emp)
		}
		sortEmployeesByID(cfg.Employees)

		if err := r.fillTemplatesAndDuties(ctx, cfg); err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}

	return configs, nil
}

func sortEmployeesByID(employees []domain.Employee) {
	sort.Slice(employees, func(i, j int) bool {
		return employees[i].ID < employees[j].ID
	})
}

// fillTemplatesAndDuties 补全配置的模板和已展开的值班实例
func (r *Repository) fillTemplatesAndDuties(ctx context.Context, cfg *domain.PlanningConfig) error {
	query := `
		SELECT code, required_employees, start_time, end_time
		FROM planning_config_duty_templates
		WHERE config_id = $1
		ORDER BY id
	`
	rows, err := r.dbpool.QueryContext(ctx, query, cfg.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	cfg.DutyTemplates = make([]domain.DutyTemplate, 0)
	for rows.Next() {
		var tpl domain.DutyTemplate
		if err := rows.Scan(&tpl.Code, &tpl.RequiredEmployees, &tpl.StartTime, &tpl.EndTime); err != nil {
			return err
		}
		cfg.DutyTemplates = append(cfg.DutyTemplates, tpl)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	query = `
		SELECT duty_id, code, date, start_time, end_time, required_employees
		FROM planning_config_duties
		WHERE config_id = $1
		ORDER BY duty_id
	`
	dutyRows, err := r.dbpool.QueryContext(ctx, query, cfg.ID)
	if err != nil {
		return err
	}
	defer dutyRows.Close()

	cfg.Duties = make([]domain.DutyInstance, 0)
	for dutyRows.Next() {
		var duty domain.DutyInstance
		if err := dutyRows.Scan(&duty.ID, &duty.Code, &duty.Date, &duty.StartTime, &duty.EndTime, &duty.RequiredEmployees); err != nil {
			return err
		}
		cfg.Duties = append(cfg.Duties, duty)
	}

	return dutyRows.Err()
}

func (r *Repository) GetPlanningConfigNames() ([]string, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `SELECT name FROM planning_configs ORDER BY name`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

func (r *Repository) GetPlanningConfigByName(name string) (*domain.PlanningConfig, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `SELECT id FROM planning_configs WHERE name = $1`

	var id int64
	if err := r.dbpool.QueryRowContext(ctx, query, name).Scan(&id); err != nil {
		return nil, err
	}

	return r.getPlanningConfig(ctx, id)
}

func (r *Repository) getPlanningConfig(ctx context.Context, id int64) (*domain.PlanningConfig, error) {
	query := `
		SELECT
			pc.name,
			pc.description,
			pc.start_date,
			pc.end_date,
			pc.created_at,
			pc.version,
			pce.employee_id,
			pce.name,
			pce.max_days_in_a_row,
			pce.max_hours_per_day,
			pce.max_hours_in_period,
			pce.work_percentage,
			pceod.off_day
		FROM planning_configs pc
		LEFT JOIN planning_config_employees pce ON pc.id = pce.config_id
		LEFT JOIN planning_config_employee_off_days pceod
			ON pce.config_id = pceod.config_id AND pce.employee_id = pceod.employee_id
		WHERE pc.id = $1
		ORDER BY pce.employee_id, pceod.off_day
	`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cfg := &domain.PlanningConfig{ID: id}
	employeesMap := make(map[int64]*domain.Employee)
	var order []int64
	found := false

	for rows.Next() {
		var row struct {
			Name        string
			Description string
			StartDate   string
			EndDate     string
			CreatedAt   time.Time
			Version     int32

			EmployeeID       sql.NullInt64
			EmployeeName     sql.NullString
			MaxDaysInARow    sql.NullInt32
			MaxHoursPerDay   sql.NullFloat64
			MaxHoursInPeriod sql.NullFloat64
			WorkPercentage   sql.NullInt32
			OffDay           sql.NullString
		}

		dst := []any{
			&row.Name,
			&row.Description,
			&row.StartDate,
			&row.EndDate,
			&row.CreatedAt,
			&row.Version,
			&row.EmployeeID,
			&row.EmployeeName,
			&row.MaxDaysInARow,
			&row.MaxHoursPerDay,
			&row.MaxHoursInPeriod,
			&row.WorkPercentage,
			&row.OffDay,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if !found {
			// 说明此时是第一次查到这个配置，需要初始化这个配置
			cfg.Name = row.Name
			cfg.Description = row.Description
			cfg.StartDate = row.StartDate
			cfg.EndDate = row.EndDate
			cfg.CreatedAt = row.CreatedAt
			cfg.Version = row.Version
			found = true
		}

		if !row.EmployeeID.Valid {
			// 说明该配置不存在任何员工
			continue
		}

		emp, exists := employeesMap[row.EmployeeID.Int64]
		if !exists {
			emp = &domain.Employee{
				ID:               row.EmployeeID.Int64,
				Name:             row.EmployeeName.String,
				MaxDaysInARow:    int(row.MaxDaysInARow.Int32),
				MaxHoursPerDay:   row.MaxHoursPerDay.Float64,
				MaxHoursInPeriod: row.MaxHoursInPeriod.Float64,
				WorkPercentage:   int(row.WorkPercentage.Int32),
				OffDays:          make([]string, 0),
			}
			employeesMap[row.EmployeeID.Int64] = emp
			order = append(order, row.EmployeeID.Int64)
		}

		if !row.OffDay.Valid {
			// 说明该员工不存在任何休息日
			continue
		}

		emp.OffDays = append(emp.OffDays, row.OffDay.String)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !found {
		return nil, sql.ErrNoRows
	}

	cfg.Employees = make([]domain.Employee, 0, len(employeesMap))
	for _, employeeID := range order {
		cfg.Employees = append(cfg.Employees, *employeesMap[employeeID])
	}

	if err := r.fillTemplatesAndDuties(ctx, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (r *Repository) CreatePlanningConfig(cfg *domain.PlanningConfig) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO planning_configs (name, description, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`
	params := []any{cfg.Name, cfg.Description, cfg.StartDate, cfg.EndDate}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&cfg.ID, &cfg.CreatedAt, &cfg.Version); err != nil {
		return err
	}

	if err := insertPlanningConfigChildren(ctx, tx, cfg); err != nil {
		return err
	}

	return tx.Commit()
}

func insertPlanningConfigChildren(ctx context.Context, tx *sql.Tx, cfg *domain.PlanningConfig) error {
	for _, emp := range cfg.Employees {
		query := `
			INSERT INTO planning_config_employees
				(config_id, employee_id, name, max_days_in_a_row, max_hours_per_day, max_hours_in_period, work_percentage)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		params := []any{cfg.ID, emp.ID, emp.Name, emp.MaxDaysInARow, emp.MaxHoursPerDay, emp.MaxHoursInPeriod, emp.WorkPercentage}
		if _, err := tx.ExecContext(ctx, query, params...); err != nil {
			return err
		}

		for _, offDay := range emp.OffDays {
			query = `
				INSERT INTO planning_config_employee_off_days (config_id, employee_id, off_day)
				VALUES ($1, $2, $3)
			`
			if _, err := tx.ExecContext(ctx, query, cfg.ID, emp.ID, offDay); err != nil {
				return err
			}
		}
	}

	for _, tpl := range cfg.DutyTemplates {
		query := `
			INSERT INTO planning_config_duty_templates (config_id, code, required_employees, start_time, end_time)
			VALUES ($1, $2, $3, $4, $5)
		`
		params := []any{cfg.ID, tpl.Code, tpl.RequiredEmployees, tpl.StartTime, tpl.EndTime}
		if _, err := tx.ExecContext(ctx, query, params...); err != nil {
			return err
		}
	}

	for _, duty := range cfg.Duties {
		query := `
			INSERT INTO planning_config_duties (config_id, duty_id, code, date, start_time, end_time, required_employees)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		params := []any{cfg.ID, duty.ID, duty.Code, duty.Date, duty.StartTime, duty.EndTime, duty.RequiredEmployees}
		if _, err := tx.ExecContext(ctx, query, params...); err != nil {
			return err
		}
	}

	return nil
}

// UpdatePlanningConfig 用乐观锁整体替换配置及其子表
func (r *Repository) UpdatePlanningConfig(cfg *domain.PlanningConfig) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE planning_configs
		SET
			name = $1,
			description = $2,
			start_date = $3,
			end_date = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`
	params := []any{cfg.Name, cfg.Description, cfg.StartDate, cfg.EndDate, cfg.ID, cfg.Version}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&cfg.Version); err != nil {
		return err
	}

	// 子表直接整体重建
	for _, table := range []string{
		"planning_config_employee_off_days",
		"planning_config_employees",
		"planning_config_duty_templates",
		"planning_config_duties",
	} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE config_id = $1`, cfg.ID); err != nil {
			return err
		}
	}

	if err := insertPlanningConfigChildren(ctx, tx, cfg); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) DeletePlanningConfig(id int64) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		DELETE FROM planning_configs WHERE id = $1
	`

	_, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}
