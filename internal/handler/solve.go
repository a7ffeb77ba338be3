package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/planner"
)

type solveRequest struct {
	ConfigName string                 `json:"configName"`
	Config     *planningConfigRequest `json:"config"`

	TimeBudget int    `json:"timeBudget" validate:"omitempty,gte=1,lte=600"` // 秒
	Seed       *int64 `json:"seed"`
}

func (req *solveRequest) toPlannerRequest(defaults planner.Parameters) planner.SolveRequest {
	params := defaults
	if req.TimeBudget > 0 {
		params.TimeBudget = time.Duration(req.TimeBudget) * time.Second
	}
	if req.Seed != nil {
		params.Seed = *req.Seed
	}

	out := planner.SolveRequest{
		ConfigName: req.ConfigName,
		Parameters: &params,
	}
	if req.Config != nil {
		out.Config = req.Config.toDomain()
	}
	return out
}

func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	result, err := h.planner.Solve(req.toPlannerRequest(h.solverDefaults()))
	if err != nil {
		var cfgErr *planner.ConfigError
		switch {
		case errors.As(err, &cfgErr):
			h.badRequest(w, r, err)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 按名字求解的结果持久化并写入缓存，内联配置的结果只返回不保存
	if req.ConfigName != "" {
		if err := h.repository.InsertSolveResult(result); err != nil {
			h.internalServerError(w, r, err)
			return
		}
		h.cacheSolveResult(r.Context(), result)
	}

	h.dumpSolveDebug(req, result)

	h.successResponse(w, r, "求解完成", result)
}

func (h *Handler) SolveAsync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigName  string `json:"configName" validate:"required"`
		TimeBudget  int    `json:"timeBudget" validate:"omitempty,gte=1,lte=600"`
		Seed        *int64 `json:"seed"`
		NotifyEmail string `json:"notifyEmail" validate:"omitempty,email"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if _, ok := h.registry.Get(req.ConfigName); !ok {
		h.errorResponse(w, r, "排班配置不存在")
		return
	}

	job := domain.SolveJob{
		ConfigName:  req.ConfigName,
		TimeBudget:  req.TimeBudget,
		NotifyEmail: req.NotifyEmail,
	}
	if req.Seed != nil {
		job.Seed = *req.Seed
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.solveChannel.PublishWithContext(
		ctx,
		"",
		"solve_queue",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        jobData,
		},
	); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "求解任务已提交", job)
}

func (h *Handler) GetSolveResult(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		h.errorResponse(w, r, "配置名字无效")
		return
	}

	// 先查缓存
	cached, err := h.redisClient.Get(r.Context(), solveResultCacheKey(name)).Result()
	if err == nil {
		result := &domain.SolveResult{}
		if err := json.Unmarshal([]byte(cached), result); err == nil {
			h.successResponse(w, r, "获取求解结果成功", result)
			return
		}
	} else if !errors.Is(err, redis.Nil) {
		h.internalServerError(w, r, err)
		return
	}

	result, err := h.repository.GetSolveResultByConfigName(name)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "该配置还没有求解结果")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.cacheSolveResult(r.Context(), result)

	h.successResponse(w, r, "获取求解结果成功", result)
}

func (h *Handler) solverDefaults() planner.Parameters {
	return planner.Parameters{
		TimeBudget: time.Duration(h.config.Solver.TimeBudget) * time.Second,
		Seed:       h.config.Solver.Seed,
	}
}

func solveResultCacheKey(configName string) string {
	return fmt.Sprintf("solve_result_%s", configName)
}

// cacheSolveResult 把求解结果写入 redis 缓存，失败只记日志不影响响应
func (h *Handler) cacheSolveResult(ctx context.Context, result *domain.SolveResult) {
	data, err := json.Marshal(result)
	if err != nil {
		slog.Error("序列化求解结果失败", "configName", result.ConfigName, "error", err)
		return
	}

	expiration := time.Duration(h.config.Redis.ResultExpiration) * time.Second
	if err := h.redisClient.Set(ctx, solveResultCacheKey(result.ConfigName), data, expiration).Err(); err != nil {
		slog.Error("写入求解结果缓存失败", "configName", result.ConfigName, "error", err)
	}
}

// dumpSolveDebug 在配置了调试目录时把请求和结果落盘，方便排查求解问题
func (h *Handler) dumpSolveDebug(req solveRequest, result *domain.SolveResult) {
	if h.config.Solver.DebugDir == "" {
		return
	}

	dump := struct {
		Request solveRequest        `json:"request"`
		Result  *domain.SolveResult `json:"result"`
	}{Request: req, Result: result}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		slog.Error("序列化调试信息失败", "error", err)
		return
	}

	name := result.ConfigName
	if name == "" {
		name = "inline"
	}
	path := filepath.Join(h.config.Solver.DebugDir, fmt.Sprintf("%s_%s.json", name, time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Error("写入调试信息失败", "path", path, "error", err)
	}
}
