package container

import (
	"sync"
)

// IIncrementalItem 支持增量更新的元素接口
// 功能：元素自行记录在数组中的下标，使删除为O(1)
type IIncrementalItem interface {
	Index() int         // 获取元素的索引
	SetIndex(index int) // 设置元素的索引
}

// IncrementalItemBase 增量元素基类，可作为嵌入字段快速实现IIncrementalItem
type IncrementalItemBase struct {
	index int
}

func (b *IncrementalItemBase) Index() int {
	return b.index
}

func (b *IncrementalItemBase) SetIndex(index int) {
	b.index = index
}

// IncrementalArray 增量数组
// 功能：维护一个稠密数组，Add/Remove可在任意协程中调用，延迟到Prepare时统一生效
// 说明：用于车辆注册表，保证并行更新阶段遍历的数组不被修改
type IncrementalArray[T IIncrementalItem] struct {
	data        []T
	add         []T
	remove      []T
	addMutex    sync.Mutex
	removeMutex sync.Mutex
}

// NewIncrementalArray 创建增量数组
func NewIncrementalArray[T IIncrementalItem]() *IncrementalArray[T] {
	return &IncrementalArray[T]{
		data:   make([]T, 0),
		add:    make([]T, 0),
		remove: make([]T, 0),
	}
}

// Len 获取当前（已生效）数组长度
func (a *IncrementalArray[T]) Len() int {
	return len(a.data)
}

// Data 获取已生效的数据，调用方不得修改
func (a *IncrementalArray[T]) Data() []T {
	return a.data
}

// Add 增加元素（等到Prepare时才会真正增加）
func (a *IncrementalArray[T]) Add(value T) {
	a.addMutex.Lock()
	defer a.addMutex.Unlock()
	a.add = append(a.add, value)
}

// Remove 删除元素（等到Prepare时才会真正删除）
func (a *IncrementalArray[T]) Remove(value T) {
	a.removeMutex.Lock()
	defer a.removeMutex.Unlock()
	a.remove = append(a.remove, value)
}

// Prepare 执行增量操作
// 功能：统一执行所有待处理的添加和删除操作
// 算法说明：
// 1. 先追加所有待添加元素并设置下标（同一批次内先加后删也能正确处理）
// 2. 对每个待删除元素，用末尾元素填补其位置（swap-remove），并将其下标置为-1
// 3. 下标为-1的元素视为已删除，重复删除被忽略
// 说明：不可与Data()的遍历并发调用
func (a *IncrementalArray[T]) Prepare() {
	a.addMutex.Lock()
	add := a.add
	a.add = make([]T, 0)
	a.addMutex.Unlock()

	a.removeMutex.Lock()
	remove := a.remove
	a.remove = make([]T, 0)
	a.removeMutex.Unlock()

	for _, x := range add {
		x.SetIndex(len(a.data))
		a.data = append(a.data, x)
	}
	for _, x := range remove {
		ind := x.Index()
		if ind < 0 || ind >= len(a.data) {
			continue
		}
		last := len(a.data) - 1
		moved := a.data[last]
		a.data[ind] = moved
		moved.SetIndex(ind)
		var zero T
		a.data[last] = zero
		a.data = a.data[:last]
		x.SetIndex(-1)
	}
}
