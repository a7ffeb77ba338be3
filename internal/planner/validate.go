package planner

import (
	"fmt"

	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/domain"
)

// validateAssignments 对候选排班结果做独立校验
// 校验逻辑不依赖求解器，只对照配置逐条检查硬约束
//
// 诊断粒度：除了连续天数约束，每条约束都报告全部违规；
// 连续天数的违规窗口大量重叠，每名员工只报告第一个违规窗口
func validateAssignments(p *problem, assignments []domain.DutyAssignment, constraints []Constraint) domain.ValidationResult {
	diags := checkReferences(p, assignments)

	for _, c := range constraints {
		diags = append(diags, c.Check(p, assignments)...)
	}

	return domain.ValidationResult{
		Valid:       len(diags) == 0,
		Diagnostics: diags,
	}
}

// checkReferences 检查候选结果里引用的值班实例和员工是否都存在于配置中
func checkReferences(p *problem, assignments []domain.DutyAssignment) []domain.Diagnostic {
	diags := []domain.Diagnostic{}

	for _, duty := range assignments {
		if _, ok := p.dutyByID[duty.DutyID]; !ok {
			diags = append(diags, domain.Diagnostic{
				Kind:    domain.DiagnosticUnknownReference,
				DutyID:  ref(duty.DutyID),
				Message: fmt.Sprintf("候选结果引用了配置中不存在的值班实例 %d", duty.DutyID),
			})
		}
		for _, emp := range duty.Employees {
			if _, ok := p.empByID[emp.EmployeeID]; !ok {
				diags = append(diags, domain.Diagnostic{
					Kind:       domain.DiagnosticUnknownReference,
					EmployeeID: ref(emp.EmployeeID),
					DutyID:     ref(duty.DutyID),
					Message:    fmt.Sprintf("候选结果引用了配置中不存在的员工 %d", emp.EmployeeID),
				})
			}
		}
	}

	return diags
}

// infeasibilityHints 在证明无解之后给出可能的原因
// 只做单个值班实例层面的快速检查，帮助使用者定位配置问题
func infeasibilityHints(p *problem) []domain.Diagnostic {
	var diags []domain.Diagnostic

	for _, duty := range p.cfg.Duties {
		eligible := 0
		offDayExcluded := 0
		dailyCapExcluded := 0

		for empIdx := range p.cfg.Employees {
			if p.offDaySet[empIdx][duty.Date] {
				offDayExcluded++
				continue
			}
			if int64(duty.WorkingMinutes) > p.dailyCapMinutes(empIdx) {
				dailyCapExcluded++
				continue
			}
			eligible++
		}

		if eligible >= duty.RequiredEmployees {
			continue
		}

		diags = append(diags, domain.Diagnostic{
			Kind:   domain.DiagnosticCoverage,
			DutyID: ref(duty.ID),
			Message: fmt.Sprintf("值班实例 %d（%s %s）需要 %d 人，但只有 %d 名员工可用",
				duty.ID, duty.Code, duty.Date, duty.RequiredEmployees, eligible),
		})
		if offDayExcluded > 0 {
			diags = append(diags, domain.Diagnostic{
				Kind:    domain.DiagnosticOffDay,
				DutyID:  ref(duty.ID),
				Message: fmt.Sprintf("有 %d 名员工因休息日无法参与值班实例 %d", offDayExcluded, duty.ID),
			})
		}
		if dailyCapExcluded > 0 {
			diags = append(diags, domain.Diagnostic{
				Kind:    domain.DiagnosticMaxHoursPerDay,
				DutyID:  ref(duty.ID),
				Message: fmt.Sprintf("有 %d 名员工因单日工时上限无法参与值班实例 %d", dailyCapExcluded, duty.ID),
			})
		}
	}

	return diags
}
