package tools

import (
	"fmt"
	"sort"
	"sync"

	"github.com/easyops/helloagents-tools/pkg/core/errors"
)

// Registry 工具注册表
//
// 用于管理和查找已注册的工具。支持并发安全的注册和查询。
type Registry struct {
	tools map[string]Tool
	gen   uint64
	mu    sync.RWMutex
}

// NewRegistry 创建新的工具注册表
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register 注册工具
//
// 工具名为空、已存在，或活动定义不合法时返回错误。
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return errors.ErrInvalidTool
	}

	name := tool.Name()
	if name == "" {
		return errors.ErrInvalidTool
	}

	if err := checkActivities(tool); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return errors.ErrToolAlreadyRegistered
	}

	r.tools[name] = tool
	r.gen++
	return nil
}

// checkActivities 检查活动名唯一、处理函数存在、参数声明合法
func checkActivities(tool Tool) error {
	activities := tool.Activities()
	if len(activities) == 0 {
		return fmt.Errorf("%w: %s declares no activities", errors.ErrInvalidActivity, tool.Name())
	}

	seen := make(map[string]struct{}, len(activities))
	for _, a := range activities {
		if a.Name == "" {
			return fmt.Errorf("%w: %s has an unnamed activity", errors.ErrInvalidActivity, tool.Name())
		}
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("%w: %s.%s declared twice", errors.ErrInvalidActivity, tool.Name(), a.Name)
		}
		seen[a.Name] = struct{}{}
		if a.Handler == nil {
			return fmt.Errorf("%w: %s.%s has no handler", errors.ErrInvalidActivity, tool.Name(), a.Name)
		}
		if err := a.Schema.validate(); err != nil {
			return fmt.Errorf("%w: %s.%s: %v", errors.ErrInvalidActivity, tool.Name(), a.Name, err)
		}
	}
	return nil
}

// MustRegister 注册工具，失败则 panic
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
}

// RegisterAll 批量注册工具
//
// 如果任一工具注册失败，将停止注册并返回错误。
// 已成功注册的工具不会被回滚。
func (r *Registry) RegisterAll(tools ...Tool) error {
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// Get 获取工具
//
// 如果工具不存在，返回 nil 和 ErrToolNotFound。
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, errors.ErrToolNotFound
	}

	return tool, nil
}

// Activity 查找工具的活动
func (r *Registry) Activity(toolName, activity string) (Tool, Activity, error) {
	tool, err := r.Get(toolName)
	if err != nil {
		return nil, Activity{}, err
	}
	a, ok := findActivity(tool, activity)
	if !ok {
		return tool, Activity{}, errors.ErrActivityNotFound
	}
	return tool, a, nil
}

// Has 检查工具是否存在
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.tools[name]
	return exists
}

// Unregister 取消注册工具
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		return errors.ErrToolNotFound
	}

	delete(r.tools, name)
	r.gen++
	return nil
}

// List 返回所有已注册工具的名称（按名称排序）
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All 返回所有已注册的工具（按名称排序）
func (r *Registry) All() []Tool {
	names := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		if tool, ok := r.tools[name]; ok {
			tools = append(tools, tool)
		}
	}
	return tools
}

// Count 返回已注册工具数量
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Clear 清空所有已注册工具
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = make(map[string]Tool)
	r.gen++
}

// Generation 返回注册表的变更代数，每次注册、取消注册或清空后递增
func (r *Registry) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gen
}

// Definitions 返回全部活动定义，供编排器读取
func (r *Registry) Definitions() []ActivityDefinition {
	var defs []ActivityDefinition
	for _, tool := range r.All() {
		defs = append(defs, ToDefinitions(tool)...)
	}
	return defs
}
