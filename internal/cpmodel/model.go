// Package cpmodel 提供一个小型的布尔约束模型和确定性的有界搜索求解器。
//
// 模型由布尔决策变量和线性约束（lb <= sum(coeff*var) <= ub）组成，
// 可以附带一个在完整赋值上计算的目标函数（最小化）。
// 求解器对外只暴露这一层抽象，任何有能力的约束求解后端都可以替换本实现。
package cpmodel

import "math"

// BoolVar 是布尔决策变量的句柄
type BoolVar int

type Term struct {
	Var   BoolVar
	Coeff int64
}

const (
	NoLowerBound int64 = math.MinInt64
	NoUpperBound int64 = math.MaxInt64
)

type linearConstraint struct {
	terms []Term
	lb    int64
	ub    int64
}

type Model struct {
	numVars     int
	fixedFalse  []BoolVar
	constraints []linearConstraint
	objective   func(values []bool) int64
}

func NewModel() *Model {
	return &Model{}
}

func (m *Model) NewBoolVar() BoolVar {
	v := BoolVar(m.numVars)
	m.numVars++
	return v
}

func (m *Model) NumVars() int {
	return m.numVars
}

// AddLinear 添加线性约束 lb <= sum(coeff*var) <= ub
// 不需要某一侧边界时传入 NoLowerBound / NoUpperBound
func (m *Model) AddLinear(terms []Term, lb int64, ub int64) {
	m.constraints = append(m.constraints, linearConstraint{
		terms: append([]Term{}, terms...),
		lb:    lb,
		ub:    ub,
	})
}

// AddExactly 添加 sum(var) == n 的约束
func (m *Model) AddExactly(vars []BoolVar, n int64) {
	terms := make([]Term, len(vars))
	for i, v := range vars {
		terms[i] = Term{Var: v, Coeff: 1}
	}
	m.AddLinear(terms, n, n)
}

// AddAtMost 添加 sum(var) <= n 的约束
func (m *Model) AddAtMost(vars []BoolVar, n int64) {
	terms := make([]Term, len(vars))
	for i, v := range vars {
		terms[i] = Term{Var: v, Coeff: 1}
	}
	m.AddLinear(terms, NoLowerBound, n)
}

// FixFalse 把变量固定为 false
func (m *Model) FixFalse(v BoolVar) {
	m.fixedFalse = append(m.fixedFalse, v)
}

// SetObjective 设置目标函数，求解时会在所有可行解中最小化它的取值
// 不设置目标函数时，找到第一个可行解即停止
func (m *Model) SetObjective(f func(values []bool) int64) {
	m.objective = f
}
