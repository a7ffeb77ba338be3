package planner

import (
	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/cpmodel"
)

// modelVars 保存模型和决策变量
// assign[empIdx][dutyIdx] 表示员工 empIdx 是否被分配到值班实例 dutyIdx
type modelVars struct {
	model  *cpmodel.Model
	assign [][]cpmodel.BoolVar
}

// buildModel 根据规范化后的配置构造约束模型
// 变量的创建顺序只依赖配置本身，保证相同的配置和种子得到相同的搜索过程
func buildModel(p *problem, constraints []Constraint) *modelVars {
	mv := &modelVars{
		model:  cpmodel.NewModel(),
		assign: make([][]cpmodel.BoolVar, len(p.cfg.Employees)),
	}

	for empIdx := range p.cfg.Employees {
		mv.assign[empIdx] = make([]cpmodel.BoolVar, len(p.cfg.Duties))
		for dutyIdx := range p.cfg.Duties {
			mv.assign[empIdx][dutyIdx] = mv.model.NewBoolVar()
		}
	}

	for _, c := range constraints {
		c.Apply(p, mv)
	}

	mv.model.SetObjective(spreadObjective(p, mv))

	return mv
}

// spreadObjective 返回工作量均衡目标：
// 所有员工被分配的总工时（分钟）的最大值与最小值之差，越小越好
func spreadObjective(p *problem, mv *modelVars) func(values []bool) int64 {
	return func(values []bool) int64 {
		if len(p.cfg.Employees) == 0 {
			return 0
		}

		var minMinutes, maxMinutes int64
		for empIdx := range p.cfg.Employees {
			var minutes int64
			for dutyIdx, duty := range p.cfg.Duties {
				if values[mv.assign[empIdx][dutyIdx]] {
					minutes += int64(duty.WorkingMinutes)
				}
			}
			if empIdx == 0 || minutes < minMinutes {
				minMinutes = minutes
			}
			if empIdx == 0 || minutes > maxMinutes {
				maxMinutes = minutes
			}
		}

		return maxMinutes - minMinutes
	}
}
