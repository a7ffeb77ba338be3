package planner

import (
	"fmt"

	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/cpmodel"
	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/domain"
)

// Constraint 是一条硬约束
// Apply 把约束发布到模型上，Check 直接对候选排班结果做布尔检查并给出诊断
// 两条路径相互独立，Check 永远不依赖求解器
type Constraint interface {
	Name() string
	Apply(p *problem, mv *modelVars)
	Check(p *problem, assignments []domain.DutyAssignment) []domain.Diagnostic
}

func defaultConstraints() []Constraint {
	return []Constraint{
		coverageConstraint{},
		offDayConstraint{},
		overlapConstraint{},
		maxDaysInARowConstraint{},
		maxHoursPerDayConstraint{},
		maxHoursInPeriodConstraint{},
	}
}

func ref(id int64) *int64 {
	return &id
}

/**********************************************
 * 人数覆盖约束：每个值班实例恰好分配 requiredEmployees 人
 **********************************************/

type coverageConstraint struct{}

func (coverageConstraint) Name() string { return domain.DiagnosticCoverage }

func (coverageConstraint) Apply(p *problem, mv *modelVars) {
	for dutyIdx, duty := range p.cfg.Duties {
		vars := make([]cpmodel.BoolVar, len(p.cfg.Employees))
		for empIdx := range p.cfg.Employees {
			vars[empIdx] = mv.assign[empIdx][dutyIdx]
		}
		mv.model.AddExactly(vars, int64(duty.RequiredEmployees))
	}
}

func (coverageConstraint) Check(p *problem, assignments []domain.DutyAssignment) []domain.Diagnostic {
	var diags []domain.Diagnostic

	// 按值班实例归并候选结果，统计去重后的人数
	counts := make(map[int]int, len(p.cfg.Duties))
	seen := make(map[int]map[int64]bool)

	for _, duty := range assignments {
		dutyIdx, ok := p.dutyByID[duty.DutyID]
		if !ok {
			continue
		}
		if seen[dutyIdx] == nil {
			seen[dutyIdx] = make(map[int64]bool)
		}
		for _, emp := range duty.Employees {
			if seen[dutyIdx][emp.EmployeeID] {
				diags = append(diags, domain.Diagnostic{
					Kind:       domain.DiagnosticCoverage,
					EmployeeID: ref(emp.EmployeeID),
					DutyID:     ref(duty.DutyID),
					Message:    fmt.Sprintf("员工 %d 被重复分配到值班实例 %d", emp.EmployeeID, duty.DutyID),
				})
				continue
			}
			seen[dutyIdx][emp.EmployeeID] = true
			counts[dutyIdx]++
		}
	}

	for dutyIdx, duty := range p.cfg.Duties {
		if counts[dutyIdx] != duty.RequiredEmployees {
			diags = append(diags, domain.Diagnostic{
				Kind:   domain.DiagnosticCoverage,
				DutyID: ref(duty.ID),
				Message: fmt.Sprintf("值班实例 %d（%s %s）需要 %d 人，实际分配了 %d 人",
					duty.ID, duty.Code, duty.Date, duty.RequiredEmployees, counts[dutyIdx]),
			})
		}
	}

	return diags
}

/**********************************************
 * 休息日约束：员工在休息日的分配变量固定为 false
 **********************************************/

type offDayConstraint struct{}

func (offDayConstraint) Name() string { return domain.DiagnosticOffDay }

func (offDayConstraint) Apply(p *problem, mv *modelVars) {
	for empIdx := range p.cfg.Employees {
		for dutyIdx, duty := range p.cfg.Duties {
			if p.offDaySet[empIdx][duty.Date] {
				mv.model.FixFalse(mv.assign[empIdx][dutyIdx])
			}
		}
	}
}

func (offDayConstraint) Check(p *problem, assignments []domain.DutyAssignment) []domain.Diagnostic {
	var diags []domain.Diagnostic

	idx := p.indexAssignments(assignments)
	for empIdx, dutyIdxs := range idx.byEmployee {
		emp := p.cfg.Employees[empIdx]
		for _, dutyIdx := range dutyIdxs {
			duty := p.cfg.Duties[dutyIdx]
			if p.offDaySet[empIdx][duty.Date] {
				diags = append(diags, domain.Diagnostic{
					Kind:       domain.DiagnosticOffDay,
					EmployeeID: ref(emp.ID),
					DutyID:     ref(duty.ID),
					Message:    fmt.Sprintf("员工 %s（%d）在休息日 %s 被分配到值班实例 %d", emp.Name, emp.ID, duty.Date, duty.ID),
				})
			}
		}
	}

	return diags
}

/**********************************************
 * 时间重叠约束：同一员工在同一天不能有时间窗口重叠的两个值班
 **********************************************/

type overlapConstraint struct{}

func (overlapConstraint) Name() string { return domain.DiagnosticOverlap }

func (overlapConstraint) Apply(p *problem, mv *modelVars) {
	for empIdx := range p.cfg.Employees {
		for _, dutyIdxs := range p.dutiesByDate {
			for i := 0; i < len(dutyIdxs); i++ {
				for j := i + 1; j < len(dutyIdxs); j++ {
					if p.overlaps(dutyIdxs[i], dutyIdxs[j]) {
						mv.model.AddAtMost([]cpmodel.BoolVar{
							mv.assign[empIdx][dutyIdxs[i]],
							mv.assign[empIdx][dutyIdxs[j]],
						}, 1)
					}
				}
			}
		}
	}
}

func (overlapConstraint) Check(p *problem, assignments []domain.DutyAssignment) []domain.Diagnostic {
	var diags []domain.Diagnostic

	idx := p.indexAssignments(assignments)
	for empIdx, dutyIdxs := range idx.byEmployee {
		emp := p.cfg.Employees[empIdx]

		byDate := make(map[string][]int)
		for _, dutyIdx := range dutyIdxs {
			date := p.cfg.Duties[dutyIdx].Date
			byDate[date] = append(byDate[date], dutyIdx)
		}

		for date, sameDay := range byDate {
			for i := 0; i < len(sameDay); i++ {
				for j := i + 1; j < len(sameDay); j++ {
					if p.overlaps(sameDay[i], sameDay[j]) {
						dutyA := p.cfg.Duties[sameDay[i]]
						dutyB := p.cfg.Duties[sameDay[j]]
						diags = append(diags, domain.Diagnostic{
							Kind:       domain.DiagnosticOverlap,
							EmployeeID: ref(emp.ID),
							DutyID:     ref(dutyA.ID),
							Message: fmt.Sprintf("员工 %s（%d）在 %s 的值班实例 %d 和 %d 时间重叠",
								emp.Name, emp.ID, date, dutyA.ID, dutyB.ID),
						})
					}
				}
			}
		}
	}

	return diags
}

/**********************************************
 * 最大连续工作天数约束
 * 对每个长度为 maxDaysInARow + 1 的自然日窗口，
 * 员工有值班的天数不能超过 maxDaysInARow
 **********************************************/

type maxDaysInARowConstraint struct{}

func (maxDaysInARowConstraint) Name() string { return domain.DiagnosticMaxDaysInARow }

func (maxDaysInARowConstraint) Apply(p *problem, mv *modelVars) {
	for empIdx, emp := range p.cfg.Employees {
		// 为每个有值班的日期建立一个“这一天是否工作”的指示变量
		// worked = OR(当天所有分配变量)
		worked := make(map[int]cpmodel.BoolVar)

		for dateIdx, date := range p.calendarDates {
			dutyIdxs := p.dutiesByDate[date]
			if len(dutyIdxs) == 0 {
				continue
			}

			w := mv.model.NewBoolVar()
			worked[dateIdx] = w

			orTerms := []cpmodel.Term{{Var: w, Coeff: 1}}
			for _, dutyIdx := range dutyIdxs {
				x := mv.assign[empIdx][dutyIdx]
				// x <= w
				mv.model.AddLinear([]cpmodel.Term{{Var: x, Coeff: 1}, {Var: w, Coeff: -1}}, cpmodel.NoLowerBound, 0)
				orTerms = append(orTerms, cpmodel.Term{Var: x, Coeff: -1})
			}
			// w <= sum(x)
			mv.model.AddLinear(orTerms, cpmodel.NoLowerBound, 0)
		}

		maxDays := emp.MaxDaysInARow
		windowLen := maxDays + 1

		for start := 0; start+windowLen <= len(p.calendarDates); start++ {
			var windowVars []cpmodel.BoolVar
			for dateIdx := start; dateIdx < start+windowLen; dateIdx++ {
				if w, ok := worked[dateIdx]; ok {
					windowVars = append(windowVars, w)
				}
			}
			// 窗口里有值班的天数不超过上限时约束是平凡的
			if len(windowVars) <= maxDays {
				continue
			}
			mv.model.AddAtMost(windowVars, int64(maxDays))
		}
	}
}

func (maxDaysInARowConstraint) Check(p *problem, assignments []domain.DutyAssignment) []domain.Diagnostic {
	var diags []domain.Diagnostic

	idx := p.indexAssignments(assignments)
	for empIdx, emp := range p.cfg.Employees {
		workedDates := make(map[string]bool)
		for _, dutyIdx := range idx.byEmployee[empIdx] {
			workedDates[p.cfg.Duties[dutyIdx].Date] = true
		}

		maxDays := emp.MaxDaysInARow
		windowLen := maxDays + 1

		for start := 0; start+windowLen <= len(p.calendarDates); start++ {
			worked := 0
			for dateIdx := start; dateIdx < start+windowLen; dateIdx++ {
				if workedDates[p.calendarDates[dateIdx]] {
					worked++
				}
			}
			if worked > maxDays {
				diags = append(diags, domain.Diagnostic{
					Kind:       domain.DiagnosticMaxDaysInARow,
					EmployeeID: ref(emp.ID),
					Message: fmt.Sprintf("员工 %s（%d）在 %s 起的 %d 天窗口内工作了 %d 天，超过上限 %d 天",
						emp.Name, emp.ID, p.calendarDates[start], windowLen, worked, maxDays),
				})
				// 每个员工只报告第一个越界的窗口，避免诊断信息爆炸
				break
			}
		}
	}

	return diags
}

/**********************************************
 * 单日工时上限约束
 **********************************************/

type maxHoursPerDayConstraint struct{}

func (maxHoursPerDayConstraint) Name() string { return domain.DiagnosticMaxHoursPerDay }

func (maxHoursPerDayConstraint) Apply(p *problem, mv *modelVars) {
	for empIdx := range p.cfg.Employees {
		limit := p.dailyCapMinutes(empIdx)
		for _, dutyIdxs := range p.dutiesByDate {
			terms := make([]cpmodel.Term, 0, len(dutyIdxs))
			for _, dutyIdx := range dutyIdxs {
				terms = append(terms, cpmodel.Term{
					Var:   mv.assign[empIdx][dutyIdx],
					Coeff: int64(p.cfg.Duties[dutyIdx].WorkingMinutes),
				})
			}
			mv.model.AddLinear(terms, cpmodel.NoLowerBound, limit)
		}
	}
}

func (maxHoursPerDayConstraint) Check(p *problem, assignments []domain.DutyAssignment) []domain.Diagnostic {
	var diags []domain.Diagnostic

	idx := p.indexAssignments(assignments)
	for empIdx, emp := range p.cfg.Employees {
		minutesByDate := make(map[string]int64)
		for _, dutyIdx := range idx.byEmployee[empIdx] {
			duty := p.cfg.Duties[dutyIdx]
			minutesByDate[duty.Date] += int64(duty.WorkingMinutes)
		}

		limit := p.dailyCapMinutes(empIdx)
		for _, date := range p.calendarDates {
			if minutes := minutesByDate[date]; minutes > limit {
				diags = append(diags, domain.Diagnostic{
					Kind:       domain.DiagnosticMaxHoursPerDay,
					EmployeeID: ref(emp.ID),
					Message: fmt.Sprintf("员工 %s（%d）在 %s 的工时为 %d 分钟，超过单日上限 %d 分钟",
						emp.Name, emp.ID, date, minutes, limit),
				})
			}
		}
	}

	return diags
}

/**********************************************
 * 周期工时上限约束
 **********************************************/

type maxHoursInPeriodConstraint struct{}

func (maxHoursInPeriodConstraint) Name() string { return domain.DiagnosticMaxHoursInPeriod }

func (maxHoursInPeriodConstraint) Apply(p *problem, mv *modelVars) {
	if len(p.cfg.Duties) == 0 {
		return
	}
	for empIdx := range p.cfg.Employees {
		terms := make([]cpmodel.Term, 0, len(p.cfg.Duties))
		for dutyIdx, duty := range p.cfg.Duties {
			terms = append(terms, cpmodel.Term{
				Var:   mv.assign[empIdx][dutyIdx],
				Coeff: int64(duty.WorkingMinutes),
			})
		}
		mv.model.AddLinear(terms, cpmodel.NoLowerBound, p.periodCapMinutes(empIdx))
	}
}

func (maxHoursInPeriodConstraint) Check(p *problem, assignments []domain.DutyAssignment) []domain.Diagnostic {
	var diags []domain.Diagnostic

	idx := p.indexAssignments(assignments)
	for empIdx, emp := range p.cfg.Employees {
		var total int64
		for _, dutyIdx := range idx.byEmployee[empIdx] {
			total += int64(p.cfg.Duties[dutyIdx].WorkingMinutes)
		}

		if limit := p.periodCapMinutes(empIdx); total > limit {
			diags = append(diags, domain.Diagnostic{
				Kind:       domain.DiagnosticMaxHoursInPeriod,
				EmployeeID: ref(emp.ID),
				Message: fmt.Sprintf("员工 %s（%d）在整个周期内的工时为 %d 分钟，超过上限 %d 分钟",
					emp.Name, emp.ID, total, limit),
			})
		}
	}

	return diags
}
