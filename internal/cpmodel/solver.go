package cpmodel

import (
	"fmt"
	"math/rand"
	"time"
)

type Status string

const (
	StatusOptimal    Status = "OPTIMAL"
	StatusFeasible   Status = "FEASIBLE"
	StatusInfeasible Status = "INFEASIBLE"
	StatusUnknown    Status = "UNKNOWN"
)

type Parameters struct {
	// 墙钟时间预算，超时后立即返回当前已知的最好结果
	TimeBudget time.Duration
	// 随机种子，决定搜索中的取值顺序；相同的模型、种子和预算保证得到相同的结果
	Seed int64
}

type Solution struct {
	Status Status
	// 找到解时为每个变量的取值，没有解时为 nil
	Values    []bool
	Objective int64
}

// Solve 运行有界搜索
// 返回 error 表示求解器本身执行失败（模型非法等），与 INFEASIBLE 无关
func (m *Model) Solve(params Parameters) (*Solution, error) {
	if params.TimeBudget <= 0 {
		return nil, fmt.Errorf("时间预算必须为正数：%v", params.TimeBudget)
	}
	for ci, c := range m.constraints {
		if len(c.terms) == 0 {
			return nil, fmt.Errorf("第 %d 个约束不包含任何变量", ci)
		}
		if c.lb > c.ub {
			return nil, fmt.Errorf("第 %d 个约束的下界大于上界", ci)
		}
		for _, t := range c.terms {
			if t.Var < 0 || int(t.Var) >= m.numVars {
				return nil, fmt.Errorf("第 %d 个约束引用了不存在的变量 %d", ci, t.Var)
			}
		}
	}
	for _, v := range m.fixedFalse {
		if v < 0 || int(v) >= m.numVars {
			return nil, fmt.Errorf("固定取值引用了不存在的变量 %d", v)
		}
	}

	s := newSearch(m, params)

	// 先应用固定为 false 的变量，冲突则直接证明不可行
	for _, v := range m.fixedFalse {
		if s.values[v] == 0 {
			continue
		}
		if !s.set(int(v), 0) {
			return &Solution{Status: StatusInfeasible}, nil
		}
	}

	s.dfs(0)

	switch {
	case s.found && !s.timedOut:
		return &Solution{Status: StatusOptimal, Values: s.best, Objective: s.bestObj}, nil
	case s.found && s.timedOut:
		return &Solution{Status: StatusFeasible, Values: s.best, Objective: s.bestObj}, nil
	case s.timedOut:
		return &Solution{Status: StatusUnknown}, nil
	default:
		return &Solution{Status: StatusInfeasible}, nil
	}
}

type search struct {
	m      *Model
	values []int8 // -1 表示未赋值

	// 每个变量出现在哪些约束里，以及对应的系数
	varCons  [][]int32
	varCoeff [][]int64

	// 每个约束的当前部分和，以及未赋值变量能带来的最小/最大增量
	sum      []int64
	slackPos []int64
	slackNeg []int64

	rng      *rand.Rand
	deadline time.Time
	nodes    uint64
	timedOut bool

	found   bool
	best    []bool
	bestObj int64
}

func newSearch(m *Model, params Parameters) *search {
	s := &search{
		m:        m,
		values:   make([]int8, m.numVars),
		varCons:  make([][]int32, m.numVars),
		varCoeff: make([][]int64, m.numVars),
		sum:      make([]int64, len(m.constraints)),
		slackPos: make([]int64, len(m.constraints)),
		slackNeg: make([]int64, len(m.constraints)),
		rng:      rand.New(rand.NewSource(params.Seed)),
		deadline: time.Now().Add(params.TimeBudget),
	}

	for i := range s.values {
		s.values[i] = -1
	}

	for ci, c := range m.constraints {
		for _, t := range c.terms {
			s.varCons[t.Var] = append(s.varCons[t.Var], int32(ci))
			s.varCoeff[t.Var] = append(s.varCoeff[t.Var], t.Coeff)
			if t.Coeff > 0 {
				s.slackPos[ci] += t.Coeff
			} else {
				s.slackNeg[ci] += t.Coeff
			}
		}
	}

	return s
}

// set 给变量赋值并更新所有相关约束的界
// 返回 false 表示某个约束已经不可能被满足；无论结果如何都必须配对调用 unset
func (s *search) set(v int, val int8) bool {
	s.values[v] = val

	ok := true
	for i, ci := range s.varCons[v] {
		coeff := s.varCoeff[v][i]
		if coeff > 0 {
			s.slackPos[ci] -= coeff
		} else {
			s.slackNeg[ci] -= coeff
		}
		if val == 1 {
			s.sum[ci] += coeff
		}

		c := &s.m.constraints[ci]
		if s.sum[ci]+s.slackNeg[ci] > c.ub || s.sum[ci]+s.slackPos[ci] < c.lb {
			ok = false
		}
	}

	return ok
}

func (s *search) unset(v int, val int8) {
	for i, ci := range s.varCons[v] {
		coeff := s.varCoeff[v][i]
		if coeff > 0 {
			s.slackPos[ci] += coeff
		} else {
			s.slackNeg[ci] += coeff
		}
		if val == 1 {
			s.sum[ci] -= coeff
		}
	}
	s.values[v] = -1
}

// dfs 按变量下标顺序做深度优先搜索，返回 true 表示整个搜索应当终止
func (s *search) dfs(i int) bool {
	// 跳过已经固定的变量
	for i < s.m.numVars && s.values[i] != -1 {
		i++
	}

	s.nodes++
	if s.nodes&255 == 0 && time.Now().After(s.deadline) {
		s.timedOut = true
		return true
	}

	if i == s.m.numVars {
		return s.recordSolution()
	}

	// 取值顺序由种子决定，保证可复现
	first := int8(s.rng.Intn(2))
	for _, val := range [2]int8{first, 1 - first} {
		if s.set(i, val) {
			if s.dfs(i + 1) {
				return true
			}
		}
		s.unset(i, val)
	}

	return false
}

func (s *search) recordSolution() bool {
	assignment := make([]bool, s.m.numVars)
	for i, v := range s.values {
		assignment[i] = v == 1
	}

	if s.m.objective == nil {
		// 没有目标函数时，第一个可行解就是最终解
		s.found = true
		s.best = assignment
		s.bestObj = 0
		return true
	}

	obj := s.m.objective(assignment)
	if !s.found || obj < s.bestObj {
		s.found = true
		s.best = assignment
		s.bestObj = obj
	}

	// 继续搜索以证明最优
	return false
}
