package domain

import "time"

type SolveStatus string

const (
	StatusOptimal    SolveStatus = "OPTIMAL"    // 找到最优解
	StatusFeasible   SolveStatus = "FEASIBLE"   // 找到可行解，但在时间预算内无法证明最优
	StatusInfeasible SolveStatus = "INFEASIBLE" // 已证明不存在可行解
	StatusUnknown    SolveStatus = "UNKNOWN"    // 时间预算耗尽，无法给出任何结论
	StatusError      SolveStatus = "ERROR"      // 求解器内部错误（区别于 INFEASIBLE）
)

type AssignedEmployee struct {
	EmployeeID   int64  `json:"employeeID"`
	EmployeeName string `json:"employeeName"`
}

// DutyAssignment 是单个值班实例的排班结果
type DutyAssignment struct {
	DutyID    int64              `json:"dutyID"`
	DutyCode  string             `json:"dutyCode"`
	Date      string             `json:"date"`
	StartTime string             `json:"startTime"`
	EndTime   string             `json:"endTime"`
	Employees []AssignedEmployee `json:"employees"`
}

type SolveResult struct {
	ID         int64       `json:"id,omitempty"`
	ConfigName string      `json:"configName"`
	Status     SolveStatus `json:"status"`

	// Assignments 按规范化配置中值班实例的顺序排列
	// 状态为 INFEASIBLE 或 UNKNOWN 时为空列表（不会是 null）
	Assignments []DutyAssignment `json:"assignments"`

	StartedAt       time.Time `json:"startedAt"`
	FinishedAt      time.Time `json:"finishedAt"`
	DurationSeconds float64   `json:"durationSeconds"`

	// 不可行时给出的诊断信息，用于帮助定位冲突的约束
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	Version   int32     `json:"-"`
}
