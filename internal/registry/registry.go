// Package registry 维护进程内的排班配置查找表
// 查找表只读，只能通过 Reload 整体替换
package registry

import (
	"sort"
	"sync"

	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/domain"
)

type Registry struct {
	mu      sync.RWMutex
	configs map[string]*domain.PlanningConfig
}

func New(configs []*domain.PlanningConfig) *Registry {
	r := &Registry{}
	r.Reload(configs)
	return r
}

// Reload 用给定的配置整体替换查找表
// 名字重复时后出现的配置生效
func (r *Registry) Reload(configs []*domain.PlanningConfig) {
	next := make(map[string]*domain.PlanningConfig, len(configs))
	for _, cfg := range configs {
		next[cfg.Name] = cfg.Clone()
	}

	r.mu.Lock()
	r.configs = next
	r.mu.Unlock()
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get 返回指定名字的配置的深拷贝，调用方可以独占使用
func (r *Registry) Get(name string) (*domain.PlanningConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.configs[name]
	if !ok {
		return nil, false
	}
	return cfg.Clone(), true
}
