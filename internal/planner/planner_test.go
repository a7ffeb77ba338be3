package planner

import (
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/domain"
)

// staticSource 是测试用的配置来源
type staticSource map[string]*domain.PlanningConfig

func (s staticSource) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s staticSource) Get(name string) (*domain.PlanningConfig, bool) {
	cfg, ok := s[name]
	return cfg, ok
}

func testPlanner(source ConfigSource) *Planner {
	return New(source, Parameters{TimeBudget: 10 * time.Second, Seed: 42})
}

func TestSolveSimpleRoster(t *testing.T) {
	t.Parallel()

	// 2 名员工、1 个每天需要 1 人的模板、连续 5 天
	cfg := &domain.PlanningConfig{
		Name:      "简单排班",
		StartDate: "2025-03-01",
		EndDate:   "2025-03-05",
		Employees: []domain.Employee{
			{ID: 1, Name: "张三", MaxDaysInARow: 6, MaxHoursPerDay: 8, MaxHoursInPeriod: 40},
			{ID: 2, Name: "李四", MaxDaysInARow: 6, MaxHoursPerDay: 8, MaxHoursInPeriod: 40},
		},
		DutyTemplates: []domain.DutyTemplate{
			{Code: "早班", RequiredEmployees: 1, StartTime: "08:00", EndTime: "12:00"},
		},
	}

	result, err := testPlanner(nil).Solve(SolveRequest{Config: cfg})
	if err != nil {
		t.Fatalf("求解不应该失败：%v", err)
	}

	if result.Status != domain.StatusOptimal {
		t.Fatalf("状态应该是 OPTIMAL，实际为 %s", result.Status)
	}
	if len(result.Assignments) != 5 {
		t.Fatalf("应该有 5 个值班实例，实际为 %d", len(result.Assignments))
	}
	for _, duty := range result.Assignments {
		if len(duty.Employees) != 1 {
			t.Errorf("值班实例 %d 应该恰好分配 1 人，实际为 %d", duty.DutyID, len(duty.Employees))
		}
	}
	if result.DurationSeconds < 0 {
		t.Errorf("求解耗时不应该是负数：%v", result.DurationSeconds)
	}
}

func TestSolveInfeasibleNotEnoughEmployees(t *testing.T) {
	t.Parallel()

	// 模板需要 2 人但只有 1 名员工
	cfg := &domain.PlanningConfig{
		Name:      "人手不足",
		StartDate: "2025-03-01",
		EndDate:   "2025-03-01",
		Employees: []domain.Employee{
			{ID: 1, Name: "张三", MaxDaysInARow: 6, MaxHoursPerDay: 8, MaxHoursInPeriod: 40},
		},
		DutyTemplates: []domain.DutyTemplate{
			{Code: "双人班", RequiredEmployees: 2, StartTime: "08:00", EndTime: "12:00"},
		},
	}

	result, err := testPlanner(nil).Solve(SolveRequest{Config: cfg})
	if err != nil {
		t.Fatalf("求解不应该失败：%v", err)
	}

	if result.Status != domain.StatusInfeasible {
		t.Fatalf("状态应该是 INFEASIBLE，实际为 %s", result.Status)
	}
	if result.Assignments == nil || len(result.Assignments) != 0 {
		t.Error("不可行时排班结果应该是空列表而不是 null")
	}
	if len(result.Diagnostics) == 0 {
		t.Error("不可行时应该给出诊断信息")
	}
}

func TestSolveInfeasibleOffDay(t *testing.T) {
	t.Parallel()

	// 唯一值班日恰好是唯一员工的休息日
	cfg := &domain.PlanningConfig{
		Name:      "休息日冲突",
		StartDate: "2025-03-01",
		EndDate:   "2025-03-01",
		Employees: []domain.Employee{
			{ID: 1, Name: "张三", MaxDaysInARow: 6, MaxHoursPerDay: 8, MaxHoursInPeriod: 40, OffDays: []string{"2025-03-01"}},
		},
		DutyTemplates: []domain.DutyTemplate{
			{Code: "早班", RequiredEmployees: 1, StartTime: "08:00", EndTime: "12:00"},
		},
	}

	result, err := testPlanner(nil).Solve(SolveRequest{Config: cfg})
	if err != nil {
		t.Fatalf("求解不应该失败：%v", err)
	}

	if result.Status != domain.StatusInfeasible {
		t.Fatalf("状态应该是 INFEASIBLE，实际为 %s", result.Status)
	}

	found := false
	for _, diag := range result.Diagnostics {
		if diag.Kind == domain.DiagnosticOffDay {
			found = true
		}
	}
	if !found {
		t.Errorf("诊断信息应该提到休息日约束：%+v", result.Diagnostics)
	}
}

func TestSolveInfeasibleDailyCap(t *testing.T) {
	t.Parallel()

	// 唯一员工的单日工时上限低于单个值班的时长
	cfg := &domain.PlanningConfig{
		Name:      "工时上限冲突",
		StartDate: "2025-03-01",
		EndDate:   "2025-03-01",
		Employees: []domain.Employee{
			{ID: 1, Name: "张三", MaxDaysInARow: 6, MaxHoursPerDay: 2, MaxHoursInPeriod: 40},
		},
		DutyTemplates: []domain.DutyTemplate{
			{Code: "长班", RequiredEmployees: 1, StartTime: "08:00", EndTime: "16:00"},
		},
	}

	result, err := testPlanner(nil).Solve(SolveRequest{Config: cfg})
	if err != nil {
		t.Fatalf("求解不应该失败：%v", err)
	}

	if result.Status != domain.StatusInfeasible {
		t.Fatalf("状态应该是 INFEASIBLE，实际为 %s", result.Status)
	}

	found := false
	for _, diag := range result.Diagnostics {
		if diag.Kind == domain.DiagnosticMaxHoursPerDay {
			found = true
		}
	}
	if !found {
		t.Errorf("诊断信息应该提到单日工时上限：%+v", result.Diagnostics)
	}
}

func TestSolveRespectsMaxDaysInARow(t *testing.T) {
	t.Parallel()

	// 2 名员工轮流值班，任何人都不能连续工作超过 2 天
	cfg := &domain.PlanningConfig{
		Name:      "连续天数",
		StartDate: "2025-03-01",
		EndDate:   "2025-03-06",
		Employees: []domain.Employee{
			{ID: 1, Name: "张三", MaxDaysInARow: 2, MaxHoursPerDay: 8, MaxHoursInPeriod: 40},
			{ID: 2, Name: "李四", MaxDaysInARow: 2, MaxHoursPerDay: 8, MaxHoursInPeriod: 40},
		},
		DutyTemplates: []domain.DutyTemplate{
			{Code: "早班", RequiredEmployees: 1, StartTime: "08:00", EndTime: "12:00"},
		},
	}

	pl := testPlanner(nil)
	result, err := pl.Solve(SolveRequest{Config: cfg})
	if err != nil {
		t.Fatalf("求解不应该失败：%v", err)
	}
	if result.Status != domain.StatusOptimal {
		t.Fatalf("状态应该是 OPTIMAL，实际为 %s", result.Status)
	}

	// 求解器自身已经做过独立校验，这里再显式检查一次连续天数
	check := pl.Validate(cfg, result.Assignments)
	if !check.Valid {
		t.Errorf("求解器给出的解应该通过独立校验：%+v", check.Diagnostics)
	}
}

func TestSolveDeterministicResults(t *testing.T) {
	t.Parallel()

	cfg := &domain.PlanningConfig{
		Name:      "确定性",
		StartDate: "2025-03-01",
		EndDate:   "2025-03-04",
		Employees: []domain.Employee{
			{ID: 1, Name: "张三", MaxDaysInARow: 3, MaxHoursPerDay: 8, MaxHoursInPeriod: 40},
			{ID: 2, Name: "李四", MaxDaysInARow: 3, MaxHoursPerDay: 8, MaxHoursInPeriod: 40},
			{ID: 3, Name: "王五", MaxDaysInARow: 3, MaxHoursPerDay: 8, MaxHoursInPeriod: 40},
		},
		DutyTemplates: []domain.DutyTemplate{
			{Code: "早班", RequiredEmployees: 1, StartTime: "08:00", EndTime: "12:00"},
			{Code: "晚班", RequiredEmployees: 1, StartTime: "18:00", EndTime: "22:00"},
		},
	}

	pl := testPlanner(nil)

	first, err := pl.Solve(SolveRequest{Config: cfg})
	if err != nil {
		t.Fatalf("第一次求解不应该失败：%v", err)
	}
	second, err := pl.Solve(SolveRequest{Config: cfg})
	if err != nil {
		t.Fatalf("第二次求解不应该失败：%v", err)
	}

	if first.Status != second.Status {
		t.Fatalf("两次求解的状态应该相同：%s 和 %s", first.Status, second.Status)
	}
	if !reflect.DeepEqual(first.Assignments, second.Assignments) {
		t.Error("相同的配置和种子应该得到完全相同的排班结果")
	}
}

func TestSolveEmptyPeriod(t *testing.T) {
	t.Parallel()

	// 没有任何值班实例时空排班就是最优解
	cfg := &domain.PlanningConfig{
		Name:      "空周期",
		StartDate: "2025-03-01",
		EndDate:   "2025-03-05",
		Employees: []domain.Employee{
			{ID: 1, Name: "张三", MaxDaysInARow: 6, MaxHoursPerDay: 8, MaxHoursInPeriod: 40},
		},
	}

	result, err := testPlanner(nil).Solve(SolveRequest{Config: cfg})
	if err != nil {
		t.Fatalf("求解不应该失败：%v", err)
	}
	if result.Status != domain.StatusOptimal {
		t.Fatalf("状态应该是 OPTIMAL，实际为 %s", result.Status)
	}
	if result.Assignments == nil || len(result.Assignments) != 0 {
		t.Error("排班结果应该是空列表而不是 null")
	}
}

func TestSolveByConfigName(t *testing.T) {
	t.Parallel()

	source := staticSource{
		"值班室": {
			Name:      "值班室",
			StartDate: "2025-03-01",
			EndDate:   "2025-03-02",
			Employees: []domain.Employee{
				{ID: 1, Name: "张三", MaxDaysInARow: 6, MaxHoursPerDay: 8, MaxHoursInPeriod: 40},
			},
			DutyTemplates: []domain.DutyTemplate{
				{Code: "早班", RequiredEmployees: 1, StartTime: "08:00", EndTime: "12:00"},
			},
		},
	}

	pl := testPlanner(source)

	result, err := pl.Solve(SolveRequest{ConfigName: "值班室"})
	if err != nil {
		t.Fatalf("按名字求解不应该失败：%v", err)
	}
	if result.ConfigName != "值班室" {
		t.Errorf("结果应该记录配置名字，实际为 %q", result.ConfigName)
	}
	if result.Status != domain.StatusOptimal {
		t.Errorf("状态应该是 OPTIMAL，实际为 %s", result.Status)
	}
}

func TestSolveRequestErrors(t *testing.T) {
	t.Parallel()

	source := staticSource{}
	pl := testPlanner(source)
	inline := &domain.PlanningConfig{StartDate: "2025-03-01", EndDate: "2025-03-01"}

	testCases := []struct {
		name string
		req  SolveRequest
	}{
		{name: "名字和内联配置同时提供", req: SolveRequest{ConfigName: "值班室", Config: inline}},
		{name: "名字和内联配置都没有提供", req: SolveRequest{}},
		{name: "找不到指定的配置", req: SolveRequest{ConfigName: "不存在"}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := pl.Solve(tc.req)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("期望得到 *ConfigError，实际为 %v", err)
			}
		})
	}
}

func TestValidateConfigOnlyIsStructural(t *testing.T) {
	t.Parallel()

	// 没有候选排班时只校验配置结构，不能因为无人值班报 coverage 诊断
	cfg := &domain.PlanningConfig{
		Name:      "只看结构",
		StartDate: "2025-03-01",
		EndDate:   "2025-03-02",
		Employees: []domain.Employee{
			{ID: 1, Name: "张三", MaxDaysInARow: 6, MaxHoursPerDay: 8, MaxHoursInPeriod: 40},
		},
		DutyTemplates: []domain.DutyTemplate{
			{Code: "早班", RequiredEmployees: 1, StartTime: "08:00", EndTime: "12:00"},
		},
	}

	check := testPlanner(nil).Validate(cfg, nil)
	if !check.Valid {
		t.Fatalf("结构合法的配置应该通过校验：%+v", check.Diagnostics)
	}
	if check.Diagnostics == nil || len(check.Diagnostics) != 0 {
		t.Errorf("诊断列表应该是空列表而不是 null：%+v", check.Diagnostics)
	}

	// 显式给出空的候选列表时则是一次完整校验，值班无人覆盖
	check = testPlanner(nil).Validate(cfg, []domain.DutyAssignment{})
	if check.Valid {
		t.Fatal("空的候选排班不应该满足 coverage 约束")
	}
}

func TestValidateInvalidConfigBecomesDiagnostic(t *testing.T) {
	t.Parallel()

	cfg := &domain.PlanningConfig{StartDate: "非法日期", EndDate: "2025-03-01"}

	check := testPlanner(nil).Validate(cfg, nil)
	if check.Valid {
		t.Fatal("非法配置不应该通过校验")
	}
	if len(check.Diagnostics) != 1 || check.Diagnostics[0].Kind != domain.DiagnosticConfig {
		t.Errorf("应该给出 kind 为 config 的诊断：%+v", check.Diagnostics)
	}
}
