package planner

import (
	"sort"

	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/domain"
)

// extractAssignments 把求解器的取值映射回领域对象
// 值班实例按规范化后的顺序排列，每个实例内的员工按 ID 升序排列
func extractAssignments(p *problem, mv *modelVars, values []bool) []domain.DutyAssignment {
	assignments := make([]domain.DutyAssignment, 0, len(p.cfg.Duties))

	for dutyIdx, duty := range p.cfg.Duties {
		assigned := make([]domain.AssignedEmployee, 0, duty.RequiredEmployees)
		for empIdx, emp := range p.cfg.Employees {
			if values[mv.assign[empIdx][dutyIdx]] {
				assigned = append(assigned, domain.AssignedEmployee{
					EmployeeID:   emp.ID,
					EmployeeName: emp.Name,
				})
			}
		}
		sort.Slice(assigned, func(i, j int) bool {
			return assigned[i].EmployeeID < assigned[j].EmployeeID
		})

		assignments = append(assignments, domain.DutyAssignment{
			DutyID:    duty.ID,
			DutyCode:  duty.Code,
			Date:      duty.Date,
			StartTime: duty.StartTime,
			EndTime:   duty.EndTime,
			Employees: assigned,
		})
	}

	return assignments
}
