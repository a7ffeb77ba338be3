package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/domain"
)

// ValidateAssignments 校验配置结构，附带候选排班结果时再做完整的约束校验
// 不管结果合法与否，只要请求本身结构正确就返回 200 和诊断列表
func (h *Handler) ValidateAssignments(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigName  string                  `json:"configName"`
		Config      *planningConfigRequest  `json:"config"`
		Assignments []domain.DutyAssignment `json:"assignments"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	var cfg *domain.PlanningConfig
	switch {
	case req.ConfigName != "" && req.Config != nil:
		h.errorResponse(w, r, "配置名字和内联配置只能提供一个")
		return
	case req.ConfigName != "":
		found, ok := h.registry.Get(req.ConfigName)
		if !ok {
			h.errorResponse(w, r, "排班配置不存在")
			return
		}
		cfg = found
	case req.Config != nil:
		cfg = req.Config.toDomain()
	default:
		h.errorResponse(w, r, "必须提供配置名字或内联配置")
		return
	}

	result := h.planner.Validate(cfg, req.Assignments)

	h.successResponse(w, r, "校验完成", result)
}
