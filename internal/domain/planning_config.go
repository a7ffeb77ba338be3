package domain

import "time"

const (
	// 配置中所有日期字段使用的格式
	DateLayout = "2006-01-02"
	// 值班时间字段的格式，兼容带秒的写法
	TimeLayout            = "15:04"
	TimeLayoutWithSeconds = "15:04:05"
)

type Employee struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	MaxDaysInARow int      `json:"maxDaysInARow"`
	OffDays       []string `json:"offDays"`
	// 每天和整个排班周期内允许的最大工作小时数
	MaxHoursPerDay   float64 `json:"maxHoursPerDay"`
	MaxHoursInPeriod float64 `json:"maxHoursInPeriod"`
	// 工作比例（0~100），目前仅作为数据携带，不会自动参与约束
	// 如果需要按比例缩减工时上限，调用方应自行换算 MaxHoursInPeriod
	WorkPercentage int `json:"workPercentage"`
}

type DutyTemplate struct {
	Code              string `json:"code"`
	RequiredEmployees int    `json:"requiredEmployees"`
	StartTime         string `json:"startTime"`
	// EndTime 小于等于 StartTime 时表示该值班跨越午夜到第二天
	EndTime string `json:"endTime"`
}

// DutyInstance 是值班模板在某个具体日期上的实例
type DutyInstance struct {
	ID                int64  `json:"id"`
	Code              string `json:"code"`
	Date              string `json:"date"`
	StartTime         string `json:"startTime"`
	EndTime           string `json:"endTime"`
	WorkingMinutes    int    `json:"workingMinutes"`
	RequiredEmployees int    `json:"requiredEmployees"`
}

type PlanningConfig struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`

	Employees []Employee `json:"employees"`

	// 二者只会存在其一：DutyTemplates 是尚未展开的模板，
	// Duties 是已经展开好的值班实例（规范化之后只会有 Duties）
	DutyTemplates []DutyTemplate `json:"dutyTemplates,omitempty"`
	Duties        []DutyInstance `json:"duties,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	Version   int32     `json:"-"`
}

// Clone 返回配置的深拷贝，保证每次求解都独占自己的配置
func (c *PlanningConfig) Clone() *PlanningConfig {
	clone := *c

	clone.Employees = make([]Employee, len(c.Employees))
	for i, emp := range c.Employees {
		clone.Employees[i] = emp
		clone.Employees[i].OffDays = append([]string{}, emp.OffDays...)
	}

	if c.DutyTemplates != nil {
		clone.DutyTemplates = append([]DutyTemplate{}, c.DutyTemplates...)
	}
	if c.Duties != nil {
		clone.Duties = append([]DutyInstance{}, c.Duties...)
	}

	return &clone
}
