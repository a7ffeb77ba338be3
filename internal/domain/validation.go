package domain

// 诊断信息中约束种类的取值
const (
	DiagnosticConfig           = "config"               // 配置结构性错误
	DiagnosticUnknownReference = "unknown_reference"    // 引用了未声明的员工或值班实例
	DiagnosticCoverage         = "coverage"             // 人数覆盖约束
	DiagnosticOverlap          = "overlap"              // 同日时间重叠约束
	DiagnosticOffDay           = "off_day"              // 休息日约束
	DiagnosticMaxDaysInARow    = "max_days_in_a_row"    // 最大连续工作天数约束
	DiagnosticMaxHoursPerDay   = "max_hours_per_day"    // 单日工时上限约束
	DiagnosticMaxHoursInPeriod = "max_hours_in_period"  // 周期工时上限约束
)

type Diagnostic struct {
	Kind       string `json:"kind"`
	EmployeeID *int64 `json:"employeeID,omitempty"`
	DutyID     *int64 `json:"dutyID,omitempty"`
	Message    string `json:"message"`
}

type ValidationResult struct {
	Valid       bool         `json:"valid"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}
