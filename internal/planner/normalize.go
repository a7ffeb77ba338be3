package planner

import (
	"fmt"
	"sort"
	"time"

	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/domain"
)

// parseTimeOfDay 解析时刻字符串，返回从当天零点起的分钟数
func parseTimeOfDay(s string) (int, error) {
	t, err := time.Parse(domain.TimeLayout, s)
	if err != nil {
		t, err = time.Parse(domain.TimeLayoutWithSeconds, s)
		if err != nil {
			return 0, err
		}
	}
	return t.Hour()*60 + t.Minute(), nil
}

// wrappedMinutes 计算值班时长（分钟），结束时刻小于等于开始时刻时视为跨越午夜
func wrappedMinutes(startMin int, endMin int) int {
	if endMin <= startMin {
		endMin += 24 * 60
	}
	return endMin - startMin
}

// Normalize 把配置规范化成只包含已展开值班实例的形式，并校验结构合法性
//
// 规范化绝不会静默修正非法输入，任何问题都会以 *ConfigError 的形式返回。
// 返回的配置是输入的深拷贝，调用方可以独占使用。
func Normalize(cfg *domain.PlanningConfig) (*domain.PlanningConfig, error) {
	norm := cfg.Clone()

	startDate, err := time.Parse(domain.DateLayout, norm.StartDate)
	if err != nil {
		return nil, &ConfigError{Field: "startDate", Value: norm.StartDate, Message: "无法解析日期"}
	}
	endDate, err := time.Parse(domain.DateLayout, norm.EndDate)
	if err != nil {
		return nil, &ConfigError{Field: "endDate", Value: norm.EndDate, Message: "无法解析日期"}
	}
	if endDate.Before(startDate) {
		return nil, &ConfigError{Field: "endDate", Value: norm.EndDate, Message: "结束日期不能早于开始日期"}
	}

	// 校验员工
	seenIDs := make(map[int64]bool)
	for i, emp := range norm.Employees {
		field := fmt.Sprintf("employees[%d]", i)

		if seenIDs[emp.ID] {
			return nil, &ConfigError{Field: field + ".id", Value: fmt.Sprintf("%d", emp.ID), Message: "员工 ID 重复"}
		}
		seenIDs[emp.ID] = true

		if emp.MaxDaysInARow < 1 {
			return nil, &ConfigError{Field: field + ".maxDaysInARow", Value: fmt.Sprintf("%d", emp.MaxDaysInARow), Message: "必须是正整数"}
		}
		if emp.MaxHoursPerDay <= 0 {
			return nil, &ConfigError{Field: field + ".maxHoursPerDay", Value: fmt.Sprintf("%v", emp.MaxHoursPerDay), Message: "必须是正数"}
		}
		if emp.MaxHoursInPeriod <= 0 {
			return nil, &ConfigError{Field: field + ".maxHoursInPeriod", Value: fmt.Sprintf("%v", emp.MaxHoursInPeriod), Message: "必须是正数"}
		}
		if emp.WorkPercentage < 0 || emp.WorkPercentage > 100 {
			return nil, &ConfigError{Field: field + ".workPercentage", Value: fmt.Sprintf("%d", emp.WorkPercentage), Message: "必须在 0 到 100 之间"}
		}

		// 休息日必须是合法日期，允许落在排班周期之外（只是不起作用）
		seenOffDays := make(map[string]bool)
		for _, offDay := range emp.OffDays {
			if _, err := time.Parse(domain.DateLayout, offDay); err != nil {
				return nil, &ConfigError{Field: field + ".offDays", Value: offDay, Message: "无法解析日期"}
			}
			if seenOffDays[offDay] {
				return nil, &ConfigError{Field: field + ".offDays", Value: offDay, Message: "休息日重复"}
			}
			seenOffDays[offDay] = true
		}
	}

	if len(norm.Duties) > 0 {
		if err := normalizeExpandedDuties(norm, startDate, endDate); err != nil {
			return nil, err
		}
	} else {
		if err := expandTemplates(norm, startDate, endDate); err != nil {
			return nil, err
		}
	}

	// 下游只会看到已展开的实例
	norm.DutyTemplates = nil

	return norm, nil
}

// expandTemplates 把每个模板在周期内的每一天展开成一个值班实例
// 实例按日期优先、模板其次的顺序排列，ID 从 0 开始顺序分配
func expandTemplates(cfg *domain.PlanningConfig, startDate time.Time, endDate time.Time) error {
	for i, tpl := range cfg.DutyTemplates {
		field := fmt.Sprintf("dutyTemplates[%d]", i)
		if tpl.RequiredEmployees < 1 {
			return &ConfigError{Field: field + ".requiredEmployees", Value: fmt.Sprintf("%d", tpl.RequiredEmployees), Message: "必须是正整数"}
		}
		if _, err := parseTimeOfDay(tpl.StartTime); err != nil {
			return &ConfigError{Field: field + ".startTime", Value: tpl.StartTime, Message: "无法解析时刻"}
		}
		if _, err := parseTimeOfDay(tpl.EndTime); err != nil {
			return &ConfigError{Field: field + ".endTime", Value: tpl.EndTime, Message: "无法解析时刻"}
		}
	}

	duties := make([]domain.DutyInstance, 0, len(cfg.DutyTemplates))
	var nextID int64

	for date := startDate; !date.After(endDate); date = date.AddDate(0, 0, 1) {
		dateStr := date.Format(domain.DateLayout)
		for _, tpl := range cfg.DutyTemplates {
			startMin, _ := parseTimeOfDay(tpl.StartTime)
			endMin, _ := parseTimeOfDay(tpl.EndTime)

			duties = append(duties, domain.DutyInstance{
				ID:                nextID,
				Code:              tpl.Code,
				Date:              dateStr,
				StartTime:         tpl.StartTime,
				EndTime:           tpl.EndTime,
				WorkingMinutes:    wrappedMinutes(startMin, endMin),
				RequiredEmployees: tpl.RequiredEmployees,
			})
			nextID++
		}
	}

	cfg.Duties = duties
	return nil
}

// normalizeExpandedDuties 校验已展开的值班实例并补全派生字段
func normalizeExpandedDuties(cfg *domain.PlanningConfig, startDate time.Time, endDate time.Time) error {
	seenIDs := make(map[int64]bool)

	for i := range cfg.Duties {
		duty := &cfg.Duties[i]
		field := fmt.Sprintf("duties[%d]", i)

		if seenIDs[duty.ID] {
			return &ConfigError{Field: field + ".id", Value: fmt.Sprintf("%d", duty.ID), Message: "值班实例 ID 重复"}
		}
		seenIDs[duty.ID] = true

		if duty.RequiredEmployees < 1 {
			return &ConfigError{Field: field + ".requiredEmployees", Value: fmt.Sprintf("%d", duty.RequiredEmployees), Message: "必须是正整数"}
		}

		date, err := time.Parse(domain.DateLayout, duty.Date)
		if err != nil {
			return &ConfigError{Field: field + ".date", Value: duty.Date, Message: "无法解析日期"}
		}
		if date.Before(startDate) || date.After(endDate) {
			return &ConfigError{Field: field + ".date", Value: duty.Date, Message: "日期不在排班周期内"}
		}

		startMin, err := parseTimeOfDay(duty.StartTime)
		if err != nil {
			return &ConfigError{Field: field + ".startTime", Value: duty.StartTime, Message: "无法解析时刻"}
		}
		endMin, err := parseTimeOfDay(duty.EndTime)
		if err != nil {
			return &ConfigError{Field: field + ".endTime", Value: duty.EndTime, Message: "无法解析时刻"}
		}

		// WorkingMinutes 是派生字段，总是重新计算，保证恒为正
		duty.WorkingMinutes = wrappedMinutes(startMin, endMin)
	}

	// 保证实例按日期排列（同一天内保持输入的相对顺序）
	sort.SliceStable(cfg.Duties, func(i, j int) bool {
		return cfg.Duties[i].Date < cfg.Duties[j].Date
	})

	return nil
}
