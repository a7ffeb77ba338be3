package planner

import "fmt"

// ConfigError 表示输入配置本身结构非法，调用方不应该重试
type ConfigError struct {
	Field   string
	Value   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("配置字段 %s 非法：%s", e.Field, e.Message)
	}
	return fmt.Sprintf("配置字段 %s 非法（值 %q）：%s", e.Field, e.Value, e.Message)
}

// SolverError 表示求解器后端执行失败，与模型是否可行无关
// 这类错误是致命的，绝不会被转换成 INFEASIBLE 状态
type SolverError struct {
	Err error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("求解器执行失败：%v", e.Err)
}

func (e *SolverError) Unwrap() error {
	return e.Err
}
