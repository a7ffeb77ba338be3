package handler

type ContextKey string

var (
	SubCtxKey         ContextKey = "sub"
	MyInfoCtx         ContextKey = "myInfo"
	PlanningConfigCtx ContextKey = "planningConfig"
)
