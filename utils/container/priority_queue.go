package container

import "container/heap"

// entry 堆中单个元素
type entry[T any] struct {
	value    T
	priority float64 // 越小越优先
	index    int     // 在堆中的下标，由heap.Interface维护
}

// minHeap 基于container/heap的最小堆
type minHeap[T any] []*entry[T]

func (h minHeap[T]) Len() int           { return len(h) }
func (h minHeap[T]) Less(i, j int) bool { return h[i].priority < h[j].priority }

func (h minHeap[T]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *minHeap[T]) Push(x any) {
	e := x.(*entry[T])
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *minHeap[T]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil // 避免内存泄漏
	e.index = -1
	*h = old[:n-1]
	return e
}

// PriorityQueue 优先队列（最小堆）
// 功能：按priority升序弹出元素，供A*搜索的open集合使用
// 说明：不支持decrease-key，调用方通过重复入队+弹出时丢弃过期项实现松弛
type PriorityQueue[T any] struct {
	h minHeap[T]
}

// NewPriorityQueue 创建优先队列
func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{h: make(minHeap[T], 0)}
}

// Len 获取当前队列长度
func (q *PriorityQueue[T]) Len() int {
	return len(q.h)
}

// Empty 队列是否为空
func (q *PriorityQueue[T]) Empty() bool {
	return len(q.h) == 0
}

// Peek 查看优先级数值最小的元素（不移除），队列为空时panic
func (q *PriorityQueue[T]) Peek() (value T, priority float64) {
	return q.h[0].value, q.h[0].priority
}

// HeapPush 加入元素并维护堆结构
func (q *PriorityQueue[T]) HeapPush(value T, priority float64) {
	heap.Push(&q.h, &entry[T]{
		value:    value,
		priority: priority,
	})
}

// HeapPop 弹出优先级数值最小的元素，队列为空时panic
func (q *PriorityQueue[T]) HeapPop() (value T, priority float64) {
	e := heap.Pop(&q.h).(*entry[T])
	return e.value, e.priority
}
