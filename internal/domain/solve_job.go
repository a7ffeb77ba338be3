package domain

// SolveJob 是通过消息队列投递给 worker 的异步求解任务
type SolveJob struct {
	ConfigName string `json:"configName"`
	// 时间预算（秒）与随机种子，为 0 时由 worker 使用配置中的默认值
	TimeBudget int   `json:"timeBudget"`
	Seed       int64 `json:"seed"`
	// 不为空时，worker 会在求解完成后把结果摘要发送到该邮箱
	NotifyEmail string `json:"notifyEmail"`
}
