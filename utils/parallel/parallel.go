// 并行工具：按GOMAXPROCS限制并发度，对切片执行for/map
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// limit 并发协程上限，<=0时使用GOMAXPROCS
var limit = 0

// SetLimit 设置并发协程上限（初始化阶段调用）
func SetLimit(n int) {
	limit = n
}

func workers() int {
	if limit > 0 {
		return limit
	}
	return runtime.GOMAXPROCS(0)
}

// GoFor 并行对每个元素执行f，所有f返回后才返回
// 说明：元素间无顺序保证
func GoFor[T any](data []T, f func(T)) {
	var g errgroup.Group
	g.SetLimit(workers())
	for _, v := range data {
		g.Go(func() error {
			f(v)
			return nil
		})
	}
	_ = g.Wait()
}

// GoMap 并行映射，结果与输入一一对应
func GoMap[T, R any](data []T, f func(T) R) []R {
	res := make([]R, len(data))
	var g errgroup.Group
	g.SetLimit(workers())
	for i, v := range data {
		g.Go(func() error {
			res[i] = f(v)
			return nil
		})
	}
	_ = g.Wait()
	return res
}

// GoForErr 并行执行可能失败的f，返回第一个错误
func GoForErr[T any](data []T, f func(T) error) error {
	var g errgroup.Group
	g.SetLimit(workers())
	for _, v := range data {
		g.Go(func() error {
			return f(v)
		})
	}
	return g.Wait()
}
