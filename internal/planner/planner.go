// Package planner 实现排班引擎：
// 把排班配置规范化成值班实例列表，建立约束模型，
// 在时间预算内做确定性搜索，并对结果做独立校验
package planner

import (
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/cpmodel"
	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/domain"
)

// ConfigSource 提供按名字查找排班配置的能力
type ConfigSource interface {
	Names() []string
	Get(name string) (*domain.PlanningConfig, bool)
}

// Parameters 是一次求解的运行参数
type Parameters struct {
	TimeBudget time.Duration
	Seed       int64
}

// SolveRequest 指定要求解的配置：
// ConfigName 和 Config 必须恰好设置一个
type SolveRequest struct {
	ConfigName string
	Config     *domain.PlanningConfig
	Parameters *Parameters
}

type Planner struct {
	source      ConfigSource
	defaults    Parameters
	constraints []Constraint
}

func New(source ConfigSource, defaults Parameters) *Planner {
	return &Planner{
		source:      source,
		defaults:    defaults,
		constraints: defaultConstraints(),
	}
}

func (pl *Planner) ListConfigNames() []string {
	return pl.source.Names()
}

// Solve 对指定配置求解一次排班
// 配置非法时返回 *ConfigError，求解器内部失败时返回 *SolverError
// INFEASIBLE 和 UNKNOWN 是正常的求解结果，不会作为 error 返回
func (pl *Planner) Solve(req SolveRequest) (*domain.SolveResult, error) {
	cfg, err := pl.resolveConfig(req)
	if err != nil {
		return nil, err
	}

	params := pl.defaults
	if req.Parameters != nil {
		params = *req.Parameters
		if params.TimeBudget <= 0 {
			params.TimeBudget = pl.defaults.TimeBudget
		}
	}

	startedAt := time.Now()

	normalized, err := Normalize(cfg)
	if err != nil {
		return nil, err
	}

	p, err := newProblem(normalized)
	if err != nil {
		// 规范化已经校验过日期和时刻，到这里说明引擎自身有问题
		return nil, &SolverError{Err: err}
	}

	result := &domain.SolveResult{
		ConfigName:  normalized.Name,
		Assignments: []domain.DutyAssignment{},
		StartedAt:   startedAt,
	}

	switch {
	case len(normalized.Duties) == 0:
		// 周期内没有任何值班，空排班就是最优解
		result.Status = domain.StatusOptimal

	case len(normalized.Employees) == 0:
		// 有值班却没有任何员工，不用搜索就能证明无解
		result.Status = domain.StatusInfeasible
		result.Diagnostics = infeasibilityHints(p)

	default:
		if err := pl.solveModel(p, params, result); err != nil {
			return nil, err
		}
	}

	result.FinishedAt = time.Now()
	result.DurationSeconds = result.FinishedAt.Sub(result.StartedAt).Seconds()

	return result, nil
}

func (pl *Planner) solveModel(p *problem, params Parameters, result *domain.SolveResult) error {
	mv := buildModel(p, pl.constraints)

	solution, err := mv.model.Solve(cpmodel.Parameters{
		TimeBudget: params.TimeBudget,
		Seed:       params.Seed,
	})
	if err != nil {
		return &SolverError{Err: err}
	}

	switch solution.Status {
	case cpmodel.StatusOptimal:
		result.Status = domain.StatusOptimal
	case cpmodel.StatusFeasible:
		result.Status = domain.StatusFeasible
	case cpmodel.StatusInfeasible:
		result.Status = domain.StatusInfeasible
		result.Diagnostics = infeasibilityHints(p)
		return nil
	default:
		result.Status = domain.StatusUnknown
		return nil
	}

	result.Assignments = extractAssignments(p, mv, solution.Values)

	// 对求解器给出的解做独立校验，失败说明引擎有缺陷而不是配置有问题
	if check := validateAssignments(p, result.Assignments, pl.constraints); !check.Valid {
		return &SolverError{Err: fmt.Errorf("求解器给出的解未通过独立校验：%s", check.Diagnostics[0].Message)}
	}

	return nil
}

func (pl *Planner) resolveConfig(req SolveRequest) (*domain.PlanningConfig, error) {
	switch {
	case req.ConfigName != "" && req.Config != nil:
		return nil, &ConfigError{Field: "configName", Value: req.ConfigName, Message: "配置名字和内联配置只能提供一个"}
	case req.ConfigName == "" && req.Config == nil:
		return nil, &ConfigError{Field: "configName", Message: "必须提供配置名字或内联配置"}
	case req.ConfigName != "":
		cfg, ok := pl.source.Get(req.ConfigName)
		if !ok {
			return nil, &ConfigError{Field: "configName", Value: req.ConfigName, Message: "找不到指定的排班配置"}
		}
		return cfg, nil
	default:
		return req.Config, nil
	}
}

// Validate 校验配置结构，candidate 不为 nil 时再对候选排班结果做完整的约束校验
// 只校验结构时不会触发任何搜索，空的候选列表（非 nil）视为一份真实的候选结果
// 配置本身非法时不会返回 error，而是给出 kind 为 config 的诊断
func (pl *Planner) Validate(cfg *domain.PlanningConfig, candidate []domain.DutyAssignment) domain.ValidationResult {
	normalized, err := Normalize(cfg)
	if err != nil {
		return domain.ValidationResult{
			Valid: false,
			Diagnostics: []domain.Diagnostic{{
				Kind:    domain.DiagnosticConfig,
				Message: err.Error(),
			}},
		}
	}

	p, err := newProblem(normalized)
	if err != nil {
		return domain.ValidationResult{
			Valid: false,
			Diagnostics: []domain.Diagnostic{{
				Kind:    domain.DiagnosticConfig,
				Message: err.Error(),
			}},
		}
	}

	if candidate == nil {
		return domain.ValidationResult{Valid: true, Diagnostics: []domain.Diagnostic{}}
	}

	return validateAssignments(p, candidate, pl.constraints)
}
