package handler

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/planner"
)

func (h *Handler) GetAllPlanningConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.repository.GetAllPlanningConfigs()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有排班配置成功", configs)
}

func (h *Handler) GetPlanningConfigNames(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "获取配置名字成功", h.registry.Names())
}

// planningConfigRequest 是创建和更新配置共用的请求体
type planningConfigRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate" validate:"required"`
	Employees   []struct {
		ID               int64    `json:"id"`
		Name             string   `json:"name" validate:"required"`
		MaxDaysInARow    int      `json:"maxDaysInARow" validate:"required,gte=1"`
		OffDays          []string `json:"offDays"`
		MaxHoursPerDay   float64  `json:"maxHoursPerDay" validate:"required,gt=0"`
		MaxHoursInPeriod float64  `json:"maxHoursInPeriod" validate:"required,gt=0"`
		WorkPercentage   int      `json:"workPercentage" validate:"gte=0,lte=100"`
	} `json:"employees" validate:"dive"`
	DutyTemplates []struct {
		Code              string `json:"code" validate:"required"`
		RequiredEmployees int    `json:"requiredEmployees" validate:"required,gte=1"`
		StartTime         string `json:"startTime" validate:"required"`
		EndTime           string `json:"endTime" validate:"required"`
	} `json:"dutyTemplates" validate:"dive"`
	Duties []struct {
		ID                int64  `json:"id"`
		Code              string `json:"code" validate:"required"`
		Date              string `json:"date" validate:"required"`
		StartTime         string `json:"startTime" validate:"required"`
		EndTime           string `json:"endTime" validate:"required"`
		RequiredEmployees int    `json:"requiredEmployees" validate:"required,gte=1"`
	} `json:"duties" validate:"dive"`
}

func (req *planningConfigRequest) toDomain() *domain.PlanningConfig {
	cfg := &domain.PlanningConfig{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Employees:   make([]domain.Employee, 0, len(req.Employees)),
	}

	for _, emp := range req.Employees {
		cfg.Employees = append(cfg.Employees, domain.Employee{
			ID:               emp.ID,
			Name:             emp.Name,
			MaxDaysInARow:    emp.MaxDaysInARow,
			OffDays:          emp.OffDays,
			MaxHoursPerDay:   emp.MaxHoursPerDay,
			MaxHoursInPeriod: emp.MaxHoursInPeriod,
			WorkPercentage:   emp.WorkPercentage,
		})
	}

	for _, tpl := range req.DutyTemplates {
		cfg.DutyTemplates = append(cfg.DutyTemplates, domain.DutyTemplate{
			Code:              tpl.Code,
			RequiredEmployees: tpl.RequiredEmployees,
			StartTime:         tpl.StartTime,
			EndTime:           tpl.EndTime,
		})
	}

	for _, duty := range req.Duties {
		cfg.Duties = append(cfg.Duties, domain.DutyInstance{
			ID:                duty.ID,
			Code:              duty.Code,
			Date:              duty.Date,
			StartTime:         duty.StartTime,
			EndTime:           duty.EndTime,
			RequiredEmployees: duty.RequiredEmployees,
		})
	}

	return cfg
}

func (h *Handler) CreatePlanningConfig(w http.ResponseWriter, r *http.Request) {
	var req planningConfigRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	cfg := req.toDomain()

	// 规范化只用来做结构校验，存储的仍然是原始配置
	if _, err := planner.Normalize(cfg); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreatePlanningConfig(cfg); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "planning_configs_name_key":
				h.errorResponse(w, r, "配置名字已存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.reloadRegistry(w, r, "创建排班配置成功", cfg)
}

func (h *Handler) GetPlanningConfig(w http.ResponseWriter, r *http.Request) {
	cfg := r.Context().Value(PlanningConfigCtx).(*domain.PlanningConfig)

	h.successResponse(w, r, "获取排班配置成功", cfg)
}

func (h *Handler) UpdatePlanningConfig(w http.ResponseWriter, r *http.Request) {
	current := r.Context().Value(PlanningConfigCtx).(*domain.PlanningConfig)

	var req planningConfigRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	cfg := req.toDomain()
	cfg.ID = current.ID
	cfg.Version = current.Version

	if _, err := planner.Normalize(cfg); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.UpdatePlanningConfig(cfg); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "planning_configs_name_key":
				h.errorResponse(w, r, "配置名字已存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.reloadRegistry(w, r, "更新排班配置成功", cfg)
}

func (h *Handler) DeletePlanningConfig(w http.ResponseWriter, r *http.Request) {
	cfg := r.Context().Value(PlanningConfigCtx).(*domain.PlanningConfig)

	if err := h.repository.DeletePlanningConfig(cfg.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.reloadRegistry(w, r, "删除排班配置成功", nil)
}

// ReloadPlanningConfigs 从数据库整体重建进程内的配置查找表
func (h *Handler) ReloadPlanningConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.repository.GetAllPlanningConfigs()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.registry.Reload(configs)

	h.successResponse(w, r, "重新加载排班配置成功", h.registry.Names())
}

func (h *Handler) reloadRegistry(w http.ResponseWriter, r *http.Request, msg string, data any) {
	configs, err := h.repository.GetAllPlanningConfigs()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.registry.Reload(configs)

	h.successResponse(w, r, msg, data)
}
