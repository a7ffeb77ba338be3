package planner

import (
	"errors"
	"testing"

	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/domain"
)

func TestNormalizeExpandsTemplates(t *testing.T) {
	t.Parallel()

	cfg := &domain.PlanningConfig{
		Name:      "展开测试",
		StartDate: "2025-03-01",
		EndDate:   "2025-03-03",
		Employees: []domain.Employee{
			{ID: 1, Name: "张三", MaxDaysInARow: 6, MaxHoursPerDay: 8, MaxHoursInPeriod: 40},
		},
		DutyTemplates: []domain.DutyTemplate{
			{Code: "早班", RequiredEmployees: 1, StartTime: "08:00", EndTime: "12:00"},
			{Code: "夜班", RequiredEmployees: 2, StartTime: "22:00", EndTime: "02:00"},
		},
	}

	norm, err := Normalize(cfg)
	if err != nil {
		t.Fatalf("规范化不应该失败：%v", err)
	}

	if norm.DutyTemplates != nil {
		t.Error("规范化后的配置不应该再包含模板")
	}
	if len(norm.Duties) != 6 {
		t.Fatalf("3 天 2 个模板应该展开成 6 个值班实例，实际为 %d", len(norm.Duties))
	}

	// 日期优先、模板其次，ID 从 0 开始顺序分配
	expected := []struct {
		id      int64
		code    string
		date    string
		minutes int
	}{
		{0, "早班", "2025-03-01", 240},
		{1, "夜班", "2025-03-01", 240},
		{2, "早班", "2025-03-02", 240},
		{3, "夜班", "2025-03-02", 240},
		{4, "早班", "2025-03-03", 240},
		{5, "夜班", "2025-03-03", 240},
	}
	for i, want := range expected {
		got := norm.Duties[i]
		if got.ID != want.id || got.Code != want.code || got.Date != want.date || got.WorkingMinutes != want.minutes {
			t.Errorf("第 %d 个实例错误：%+v", i, got)
		}
	}
}

func TestNormalizeWrapsPastMidnight(t *testing.T) {
	t.Parallel()

	cfg := &domain.PlanningConfig{
		StartDate: "2025-03-01",
		EndDate:   "2025-03-01",
		Duties: []domain.DutyInstance{
			{ID: 0, Code: "夜班", Date: "2025-03-01", StartTime: "23:00", EndTime: "01:30", RequiredEmployees: 1},
			{ID: 1, Code: "全天", Date: "2025-03-01", StartTime: "08:00", EndTime: "08:00", RequiredEmployees: 1},
			// 派生字段被预先填了错误的值，规范化必须重新计算
			{ID: 2, Code: "早班", Date: "2025-03-01", StartTime: "08:00", EndTime: "12:00", WorkingMinutes: 9999, RequiredEmployees: 1},
		},
	}

	norm, err := Normalize(cfg)
	if err != nil {
		t.Fatalf("规范化不应该失败：%v", err)
	}

	if got := norm.Duties[0].WorkingMinutes; got != 150 {
		t.Errorf("跨午夜时长应该是 150 分钟，实际为 %d", got)
	}
	if got := norm.Duties[1].WorkingMinutes; got != 1440 {
		t.Errorf("开始和结束时刻相同时应该视为 24 小时，实际为 %d 分钟", got)
	}
	if got := norm.Duties[2].WorkingMinutes; got != 240 {
		t.Errorf("派生字段应该被重新计算成 240 分钟，实际为 %d", got)
	}
}

func TestNormalizeSortsExpandedDutiesByDate(t *testing.T) {
	t.Parallel()

	cfg := &domain.PlanningConfig{
		StartDate: "2025-03-01",
		EndDate:   "2025-03-03",
		Duties: []domain.DutyInstance{
			{ID: 10, Code: "甲", Date: "2025-03-03", StartTime: "08:00", EndTime: "12:00", RequiredEmployees: 1},
			{ID: 11, Code: "乙", Date: "2025-03-01", StartTime: "08:00", EndTime: "12:00", RequiredEmployees: 1},
			{ID: 12, Code: "丙", Date: "2025-03-01", StartTime: "14:00", EndTime: "18:00", RequiredEmployees: 1},
		},
	}

	norm, err := Normalize(cfg)
	if err != nil {
		t.Fatalf("规范化不应该失败：%v", err)
	}

	// 按日期排序，同一天保持输入顺序
	wantIDs := []int64{11, 12, 10}
	for i, want := range wantIDs {
		if norm.Duties[i].ID != want {
			t.Errorf("第 %d 个实例的 ID 应该是 %d，实际为 %d", i, want, norm.Duties[i].ID)
		}
	}
}

func TestNormalizeConfigErrors(t *testing.T) {
	t.Parallel()

	base := func() *domain.PlanningConfig {
		return &domain.PlanningConfig{
			StartDate: "2025-03-01",
			EndDate:   "2025-03-05",
			Employees: []domain.Employee{
				{ID: 1, Name: "张三", MaxDaysInARow: 6, MaxHoursPerDay: 8, MaxHoursInPeriod: 40},
			},
			DutyTemplates: []domain.DutyTemplate{
				{Code: "早班", RequiredEmployees: 1, StartTime: "08:00", EndTime: "12:00"},
			},
		}
	}

	testCases := []struct {
		name      string
		mutate    func(cfg *domain.PlanningConfig)
		wantField string
	}{
		{
			name:      "非法的开始日期",
			mutate:    func(cfg *domain.PlanningConfig) { cfg.StartDate = "2025/03/01" },
			wantField: "startDate",
		},
		{
			name:      "结束日期早于开始日期",
			mutate:    func(cfg *domain.PlanningConfig) { cfg.EndDate = "2025-02-01" },
			wantField: "endDate",
		},
		{
			name: "员工 ID 重复",
			mutate: func(cfg *domain.PlanningConfig) {
				cfg.Employees = append(cfg.Employees, cfg.Employees[0])
			},
			wantField: "employees[1].id",
		},
		{
			name:      "最大连续天数不是正整数",
			mutate:    func(cfg *domain.PlanningConfig) { cfg.Employees[0].MaxDaysInARow = 0 },
			wantField: "employees[0].maxDaysInARow",
		},
		{
			name:      "单日工时上限不是正数",
			mutate:    func(cfg *domain.PlanningConfig) { cfg.Employees[0].MaxHoursPerDay = 0 },
			wantField: "employees[0].maxHoursPerDay",
		},
		{
			name:      "工作比例超出范围",
			mutate:    func(cfg *domain.PlanningConfig) { cfg.Employees[0].WorkPercentage = 120 },
			wantField: "employees[0].workPercentage",
		},
		{
			name:      "休息日无法解析",
			mutate:    func(cfg *domain.PlanningConfig) { cfg.Employees[0].OffDays = []string{"三月一日"} },
			wantField: "employees[0].offDays",
		},
		{
			name: "休息日重复",
			mutate: func(cfg *domain.PlanningConfig) {
				cfg.Employees[0].OffDays = []string{"2025-03-02", "2025-03-02"}
			},
			wantField: "employees[0].offDays",
		},
		{
			name:      "模板需要的人数不是正整数",
			mutate:    func(cfg *domain.PlanningConfig) { cfg.DutyTemplates[0].RequiredEmployees = 0 },
			wantField: "dutyTemplates[0].requiredEmployees",
		},
		{
			name:      "模板的开始时刻无法解析",
			mutate:    func(cfg *domain.PlanningConfig) { cfg.DutyTemplates[0].StartTime = "上午八点" },
			wantField: "dutyTemplates[0].startTime",
		},
		{
			name: "值班实例 ID 重复",
			mutate: func(cfg *domain.PlanningConfig) {
				cfg.Duties = []domain.DutyInstance{
					{ID: 0, Code: "甲", Date: "2025-03-01", StartTime: "08:00", EndTime: "12:00", RequiredEmployees: 1},
					{ID: 0, Code: "乙", Date: "2025-03-02", StartTime: "08:00", EndTime: "12:00", RequiredEmployees: 1},
				}
			},
			wantField: "duties[1].id",
		},
		{
			name: "值班实例日期不在周期内",
			mutate: func(cfg *domain.PlanningConfig) {
				cfg.Duties = []domain.DutyInstance{
					{ID: 0, Code: "甲", Date: "2025-04-01", StartTime: "08:00", EndTime: "12:00", RequiredEmployees: 1},
				}
			},
			wantField: "duties[0].date",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := base()
			tc.mutate(cfg)

			_, err := Normalize(cfg)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("期望得到 *ConfigError，实际为 %v", err)
			}
			if cfgErr.Field != tc.wantField {
				t.Errorf("期望的字段是 %s，实际为 %s", tc.wantField, cfgErr.Field)
			}
		})
	}
}

func TestNormalizeOffDaysOutsidePeriodAllowed(t *testing.T) {
	t.Parallel()

	cfg := &domain.PlanningConfig{
		StartDate: "2025-03-01",
		EndDate:   "2025-03-05",
		Employees: []domain.Employee{
			{ID: 1, Name: "张三", MaxDaysInARow: 6, MaxHoursPerDay: 8, MaxHoursInPeriod: 40, OffDays: []string{"2024-01-01"}},
		},
	}

	if _, err := Normalize(cfg); err != nil {
		t.Fatalf("周期外的休息日应该被允许：%v", err)
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	cfg := &domain.PlanningConfig{
		StartDate: "2025-03-01",
		EndDate:   "2025-03-02",
		Employees: []domain.Employee{
			{ID: 1, Name: "张三", MaxDaysInARow: 6, MaxHoursPerDay: 8, MaxHoursInPeriod: 40},
		},
		DutyTemplates: []domain.DutyTemplate{
			{Code: "早班", RequiredEmployees: 1, StartTime: "08:00", EndTime: "12:00"},
		},
	}

	if _, err := Normalize(cfg); err != nil {
		t.Fatalf("规范化不应该失败：%v", err)
	}

	if len(cfg.Duties) != 0 {
		t.Error("规范化不应该修改输入配置的值班实例")
	}
	if len(cfg.DutyTemplates) != 1 {
		t.Error("规范化不应该清空输入配置的模板")
	}
}
