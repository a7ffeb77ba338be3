package planner

import (
	"testing"

	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/domain"
)

// validateConfig 是校验测试共用的配置：
// 3 名员工、3 天、每天两个时间重叠的值班实例
func validateConfig() *domain.PlanningConfig {
	return &domain.PlanningConfig{
		Name:      "校验测试",
		StartDate: "2025-03-01",
		EndDate:   "2025-03-03",
		Employees: []domain.Employee{
			{ID: 1, Name: "张三", MaxDaysInARow: 2, MaxHoursPerDay: 8, MaxHoursInPeriod: 10, OffDays: []string{"2025-03-03"}},
			{ID: 2, Name: "李四", MaxDaysInARow: 6, MaxHoursPerDay: 8, MaxHoursInPeriod: 40},
			{ID: 3, Name: "王五", MaxDaysInARow: 6, MaxHoursPerDay: 8, MaxHoursInPeriod: 40},
		},
		DutyTemplates: []domain.DutyTemplate{
			{Code: "早班", RequiredEmployees: 1, StartTime: "08:00", EndTime: "12:00"},
			{Code: "午班", RequiredEmployees: 1, StartTime: "10:00", EndTime: "14:00"},
		},
	}
}

// 展开后的实例顺序：日期优先、模板其次
// ID 0: 03-01 早班  ID 1: 03-01 午班
// ID 2: 03-02 早班  ID 3: 03-02 午班
// ID 4: 03-03 早班  ID 5: 03-03 午班

func assignment(dutyID int64, date string, start string, end string, employeeIDs ...int64) domain.DutyAssignment {
	duty := domain.DutyAssignment{
		DutyID:    dutyID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Employees: []domain.AssignedEmployee{},
	}
	for _, id := range employeeIDs {
		duty.Employees = append(duty.Employees, domain.AssignedEmployee{EmployeeID: id})
	}
	return duty
}

func kinds(diags []domain.Diagnostic) map[string]int {
	counts := make(map[string]int)
	for _, d := range diags {
		counts[d.Kind]++
	}
	return counts
}

func TestValidateAcceptsValidAssignments(t *testing.T) {
	t.Parallel()

	// 同一天的两个实例分给不同的员工，张三避开休息日
	check := testPlanner(nil).Validate(validateConfig(), []domain.DutyAssignment{
		assignment(0, "2025-03-01", "08:00", "12:00", 1),
		assignment(1, "2025-03-01", "10:00", "14:00", 2),
		assignment(2, "2025-03-02", "08:00", "12:00", 1),
		assignment(3, "2025-03-02", "10:00", "14:00", 2),
		assignment(4, "2025-03-03", "08:00", "12:00", 2),
		assignment(5, "2025-03-03", "10:00", "14:00", 3),
	})

	if !check.Valid {
		t.Fatalf("合法的排班结果应该通过校验：%+v", check.Diagnostics)
	}
}

func TestValidateDetectsCoverageViolation(t *testing.T) {
	t.Parallel()

	// 03-01 的早班没有任何人
	candidate := []domain.DutyAssignment{
		assignment(0, "2025-03-01", "08:00", "12:00"),
	}

	check := testPlanner(nil).Validate(validateConfig(), candidate)
	if check.Valid {
		t.Fatal("缺人的排班结果不应该通过校验")
	}
	if kinds(check.Diagnostics)[domain.DiagnosticCoverage] == 0 {
		t.Errorf("应该给出人数覆盖诊断：%+v", check.Diagnostics)
	}
}

func TestValidateDetectsDuplicateEmployee(t *testing.T) {
	t.Parallel()

	candidate := []domain.DutyAssignment{
		assignment(0, "2025-03-01", "08:00", "12:00", 1, 1),
	}

	check := testPlanner(nil).Validate(validateConfig(), candidate)
	if check.Valid {
		t.Fatal("重复分配同一员工的结果不应该通过校验")
	}
	if kinds(check.Diagnostics)[domain.DiagnosticCoverage] == 0 {
		t.Errorf("应该给出人数覆盖诊断：%+v", check.Diagnostics)
	}
}

func TestValidateDetectsOverlap(t *testing.T) {
	t.Parallel()

	// 张三在 03-01 同时承担 08:00-12:00 和 10:00-14:00
	candidate := []domain.DutyAssignment{
		assignment(0, "2025-03-01", "08:00", "12:00", 1),
		assignment(1, "2025-03-01", "10:00", "14:00", 1),
	}

	check := testPlanner(nil).Validate(validateConfig(), candidate)
	if kinds(check.Diagnostics)[domain.DiagnosticOverlap] == 0 {
		t.Errorf("应该给出时间重叠诊断：%+v", check.Diagnostics)
	}
}

func TestValidateDetectsOffDayViolation(t *testing.T) {
	t.Parallel()

	// 03-03 是张三的休息日
	candidate := []domain.DutyAssignment{
		assignment(4, "2025-03-03", "08:00", "12:00", 1),
	}

	check := testPlanner(nil).Validate(validateConfig(), candidate)
	if kinds(check.Diagnostics)[domain.DiagnosticOffDay] == 0 {
		t.Errorf("应该给出休息日诊断：%+v", check.Diagnostics)
	}
}

func TestValidateDetectsMaxDaysInARowViolation(t *testing.T) {
	t.Parallel()

	// 张三的最大连续天数是 2，却连续工作了 3 天
	candidate := []domain.DutyAssignment{
		assignment(0, "2025-03-01", "08:00", "12:00", 1),
		assignment(2, "2025-03-02", "08:00", "12:00", 1),
		assignment(4, "2025-03-03", "08:00", "12:00", 1),
	}

	check := testPlanner(nil).Validate(validateConfig(), candidate)
	if kinds(check.Diagnostics)[domain.DiagnosticMaxDaysInARow] == 0 {
		t.Errorf("应该给出连续天数诊断：%+v", check.Diagnostics)
	}
}

func TestValidateDetectsDailyHoursViolation(t *testing.T) {
	t.Parallel()

	cfg := validateConfig()
	// 把张三的单日上限压到 4 小时，早班加午班共 8 小时就会越界
	cfg.Employees[0].MaxHoursPerDay = 4
	// 避免同时触发时间重叠诊断，把午班挪到下午
	cfg.DutyTemplates[1].StartTime = "14:00"
	cfg.DutyTemplates[1].EndTime = "18:00"

	candidate := []domain.DutyAssignment{
		assignment(0, "2025-03-01", "08:00", "12:00", 1),
		assignment(1, "2025-03-01", "14:00", "18:00", 1),
	}

	check := testPlanner(nil).Validate(cfg, candidate)
	if kinds(check.Diagnostics)[domain.DiagnosticMaxHoursPerDay] == 0 {
		t.Errorf("应该给出单日工时诊断：%+v", check.Diagnostics)
	}
}

func TestValidateDetectsPeriodHoursViolation(t *testing.T) {
	t.Parallel()

	cfg := validateConfig()
	// 张三的周期上限是 10 小时，三个早班共 12 小时
	candidate := []domain.DutyAssignment{
		assignment(0, "2025-03-01", "08:00", "12:00", 1),
		assignment(2, "2025-03-02", "08:00", "12:00", 1),
		assignment(4, "2025-03-03", "08:00", "12:00", 1),
	}

	check := testPlanner(nil).Validate(cfg, candidate)
	if kinds(check.Diagnostics)[domain.DiagnosticMaxHoursInPeriod] == 0 {
		t.Errorf("应该给出周期工时诊断：%+v", check.Diagnostics)
	}
}

func TestValidateDetectsUnknownReferences(t *testing.T) {
	t.Parallel()

	candidate := []domain.DutyAssignment{
		assignment(99, "2025-03-01", "08:00", "12:00", 1),
		assignment(0, "2025-03-01", "08:00", "12:00", 42),
	}

	check := testPlanner(nil).Validate(validateConfig(), candidate)
	if kinds(check.Diagnostics)[domain.DiagnosticUnknownReference] < 2 {
		t.Errorf("应该对未知的值班实例和员工都给出诊断：%+v", check.Diagnostics)
	}
}
