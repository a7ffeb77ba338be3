package planner

import (
	"fmt"
	"math"
	"time"

	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/domain"
)

// problem 是对规范化配置建立的索引，供建模和校验共同使用
type problem struct {
	cfg *domain.PlanningConfig

	// 排班周期内每一个自然日（含没有值班的日子，连续天数窗口需要它们）
	calendarDates []string

	// 日期 -> 当天值班实例在 cfg.Duties 中的下标
	dutiesByDate map[string][]int

	// 每个值班实例相对于当天零点的开始/结束分钟数（跨午夜时结束会超过 1440）
	startMin []int
	endMin   []int

	empByID  map[int64]int // 员工 ID -> 下标
	dutyByID map[int64]int // 值班实例 ID -> 下标

	// 每个员工的休息日集合
	offDaySet []map[string]bool
}

func newProblem(cfg *domain.PlanningConfig) (*problem, error) {
	p := &problem{
		cfg:          cfg,
		dutiesByDate: make(map[string][]int),
		startMin:     make([]int, len(cfg.Duties)),
		endMin:       make([]int, len(cfg.Duties)),
		empByID:      make(map[int64]int, len(cfg.Employees)),
		dutyByID:     make(map[int64]int, len(cfg.Duties)),
		offDaySet:    make([]map[string]bool, len(cfg.Employees)),
	}

	startDate, err := time.Parse(domain.DateLayout, cfg.StartDate)
	if err != nil {
		return nil, fmt.Errorf("无法解析开始日期 %q: %w", cfg.StartDate, err)
	}
	endDate, err := time.Parse(domain.DateLayout, cfg.EndDate)
	if err != nil {
		return nil, fmt.Errorf("无法解析结束日期 %q: %w", cfg.EndDate, err)
	}

	for date := startDate; !date.After(endDate); date = date.AddDate(0, 0, 1) {
		p.calendarDates = append(p.calendarDates, date.Format(domain.DateLayout))
	}

	for i, duty := range cfg.Duties {
		p.dutyByID[duty.ID] = i
		p.dutiesByDate[duty.Date] = append(p.dutiesByDate[duty.Date], i)

		start, err := parseTimeOfDay(duty.StartTime)
		if err != nil {
			return nil, fmt.Errorf("值班实例 %d 的开始时刻非法: %w", duty.ID, err)
		}
		end, err := parseTimeOfDay(duty.EndTime)
		if err != nil {
			return nil, fmt.Errorf("值班实例 %d 的结束时刻非法: %w", duty.ID, err)
		}
		if end <= start {
			end += 24 * 60
		}
		p.startMin[i] = start
		p.endMin[i] = end
	}

	for i, emp := range cfg.Employees {
		p.empByID[emp.ID] = i
		p.offDaySet[i] = make(map[string]bool, len(emp.OffDays))
		for _, offDay := range emp.OffDays {
			p.offDaySet[i][offDay] = true
		}
	}

	return p, nil
}

// overlaps 判断同一天的两个值班实例的时间窗口是否重叠（半开区间）
func (p *problem) overlaps(dutyA int, dutyB int) bool {
	return p.startMin[dutyA] < p.endMin[dutyB] && p.startMin[dutyB] < p.endMin[dutyA]
}

// 工时上限统一换算成整数分钟，建模和校验使用同一套数字
func (p *problem) dailyCapMinutes(empIdx int) int64 {
	return int64(math.Round(p.cfg.Employees[empIdx].MaxHoursPerDay * 60))
}

func (p *problem) periodCapMinutes(empIdx int) int64 {
	return int64(math.Round(p.cfg.Employees[empIdx].MaxHoursInPeriod * 60))
}

// assignmentIndex 把候选排班结果整理成 员工下标 -> 值班实例下标集合
// 未知的员工或值班实例引用会被记入诊断（由调用方先行检查）
type assignmentIndex struct {
	byEmployee map[int][]int // 员工下标 -> 按输入顺序排列的值班实例下标
}

func (p *problem) indexAssignments(assignments []domain.DutyAssignment) *assignmentIndex {
	idx := &assignmentIndex{byEmployee: make(map[int][]int)}

	for _, duty := range assignments {
		dutyIdx, ok := p.dutyByID[duty.DutyID]
		if !ok {
			continue
		}
		for _, emp := range duty.Employees {
			empIdx, ok := p.empByID[emp.EmployeeID]
			if !ok {
				continue
			}
			idx.byEmployee[empIdx] = append(idx.byEmployee[empIdx], dutyIdx)
		}
	}

	return idx
}
