package cpmodel

import (
	"testing"
	"time"
)

func defaultParams() Parameters {
	return Parameters{TimeBudget: 5 * time.Second, Seed: 42}
}

func TestSolveSimpleCoverage(t *testing.T) {
	t.Parallel()

	// 两个变量中恰好选一个
	m := NewModel()
	x := m.NewBoolVar()
	y := m.NewBoolVar()
	m.AddExactly([]BoolVar{x, y}, 1)

	sol, err := m.Solve(defaultParams())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("期望状态 OPTIMAL，得到 %s", sol.Status)
	}
	if sol.Values[x] == sol.Values[y] {
		t.Errorf("期望恰好一个变量为真，得到 x=%v y=%v", sol.Values[x], sol.Values[y])
	}
}

func TestSolveInfeasible(t *testing.T) {
	t.Parallel()

	// x 必须为真又必须为假
	m := NewModel()
	x := m.NewBoolVar()
	m.AddLinear([]Term{{Var: x, Coeff: 1}}, 1, 1)
	m.FixFalse(x)

	sol, err := m.Solve(defaultParams())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	if sol.Status != StatusInfeasible {
		t.Fatalf("期望状态 INFEASIBLE，得到 %s", sol.Status)
	}
	if sol.Values != nil {
		t.Errorf("不可行时不应该返回赋值")
	}
}

func TestSolveWeightedBound(t *testing.T) {
	t.Parallel()

	// 3x + 3y <= 4 且 x + y >= 1，只可能选其中一个
	m := NewModel()
	x := m.NewBoolVar()
	y := m.NewBoolVar()
	m.AddLinear([]Term{{Var: x, Coeff: 3}, {Var: y, Coeff: 3}}, NoLowerBound, 4)
	m.AddLinear([]Term{{Var: x, Coeff: 1}, {Var: y, Coeff: 1}}, 1, NoUpperBound)

	sol, err := m.Solve(defaultParams())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("期望状态 OPTIMAL，得到 %s", sol.Status)
	}
	if sol.Values[x] && sol.Values[y] {
		t.Errorf("两个变量不应该同时为真")
	}
	if !sol.Values[x] && !sol.Values[y] {
		t.Errorf("至少应该有一个变量为真")
	}
}

func TestSolveMinimizeObjective(t *testing.T) {
	t.Parallel()

	// 四个变量里选两个，目标是最小化选中的下标之和，最优解应当是前两个
	m := NewModel()
	vars := make([]BoolVar, 4)
	for i := range vars {
		vars[i] = m.NewBoolVar()
	}
	m.AddExactly(vars, 2)
	m.SetObjective(func(values []bool) int64 {
		var total int64
		for i, v := range vars {
			if values[v] {
				total += int64(i)
			}
		}
		return total
	})

	sol, err := m.Solve(defaultParams())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("期望状态 OPTIMAL，得到 %s", sol.Status)
	}
	if sol.Objective != 1 {
		t.Errorf("期望目标值 1，得到 %d", sol.Objective)
	}
	if !sol.Values[vars[0]] || !sol.Values[vars[1]] {
		t.Errorf("期望选中前两个变量，得到 %v", sol.Values)
	}
}

func TestSolveDeterministic(t *testing.T) {
	t.Parallel()

	build := func() *Model {
		m := NewModel()
		vars := make([]BoolVar, 12)
		for i := range vars {
			vars[i] = m.NewBoolVar()
		}
		m.AddExactly(vars[:6], 2)
		m.AddExactly(vars[6:], 3)
		m.AddAtMost([]BoolVar{vars[0], vars[6]}, 1)
		return m
	}

	first, err := build().Solve(Parameters{TimeBudget: 5 * time.Second, Seed: 7})
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	second, err := build().Solve(Parameters{TimeBudget: 5 * time.Second, Seed: 7})
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}

	if first.Status != second.Status {
		t.Fatalf("两次求解状态不一致: %s / %s", first.Status, second.Status)
	}
	for i := range first.Values {
		if first.Values[i] != second.Values[i] {
			t.Fatalf("变量 %d 的取值在两次求解中不一致", i)
		}
	}
}

func TestSolveBudgetExhaustedWithoutSolution(t *testing.T) {
	t.Parallel()

	// 深度超过超时检查间隔的模型，配上必然立即耗尽的预算：
	// 搜索在到达第一个叶子之前就会超时，只能返回 UNKNOWN
	m := NewModel()
	vars := make([]BoolVar, 300)
	for i := range vars {
		vars[i] = m.NewBoolVar()
	}
	m.AddExactly(vars, 150)

	sol, err := m.Solve(Parameters{TimeBudget: time.Nanosecond, Seed: 42})
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	if sol.Status != StatusUnknown {
		t.Fatalf("期望状态 UNKNOWN，得到 %s", sol.Status)
	}
	if sol.Values != nil {
		t.Errorf("没有找到解时不应该返回赋值")
	}
}

func TestSolveBudgetExhaustedKeepsBestSolution(t *testing.T) {
	t.Parallel()

	// 第一个可行解在首次超时检查之前就能找到，
	// 但带目标函数的搜索要继续证明最优，预算耗尽后应当返回已知最好的解
	m := NewModel()
	vars := make([]BoolVar, 24)
	for i := range vars {
		vars[i] = m.NewBoolVar()
	}
	m.AddExactly(vars, 12)
	m.SetObjective(func(values []bool) int64 {
		var total int64
		for i, v := range vars {
			if values[v] {
				total += int64(i)
			}
		}
		return total
	})

	sol, err := m.Solve(Parameters{TimeBudget: time.Nanosecond, Seed: 42})
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	if sol.Status != StatusFeasible {
		t.Fatalf("期望状态 FEASIBLE，得到 %s", sol.Status)
	}

	count := 0
	for _, v := range vars {
		if sol.Values[v] {
			count++
		}
	}
	if count != 12 {
		t.Errorf("返回的解应该满足约束，期望选中 12 个变量，实际 %d 个", count)
	}
}

func TestSolveInvalidModel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		build  func() *Model
		params Parameters
	}{
		{
			name: "引用不存在的变量",
			build: func() *Model {
				m := NewModel()
				m.AddLinear([]Term{{Var: 5, Coeff: 1}}, 0, 1)
				return m
			},
			params: defaultParams(),
		},
		{
			name: "下界大于上界",
			build: func() *Model {
				m := NewModel()
				x := m.NewBoolVar()
				m.AddLinear([]Term{{Var: x, Coeff: 1}}, 2, 1)
				return m
			},
			params: defaultParams(),
		},
		{
			name: "空约束",
			build: func() *Model {
				m := NewModel()
				m.AddLinear(nil, 0, 1)
				return m
			},
			params: defaultParams(),
		},
		{
			name: "非法时间预算",
			build: func() *Model {
				m := NewModel()
				m.NewBoolVar()
				return m
			},
			params: Parameters{TimeBudget: 0, Seed: 42},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := tt.build().Solve(tt.params); err == nil {
				t.Errorf("期望返回错误，但是没有")
			}
		})
	}
}
