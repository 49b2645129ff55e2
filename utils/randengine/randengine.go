// 随机数引擎，包装了golang.org/x/exp/rand，作为可注入的随机源使用（ID分配、颜色、单行道分配、出生点）
package randengine

import (
	"flag"
	"image/color"
	"sync"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 功能：提供可复现的随机数生成功能，所有需要随机性的构造函数都显式接收Engine
// 说明：非Safe方法不加锁，仅在单协程场景（构建地图、初始化车辆）使用；
// 并行更新阶段只能使用Safe方法
type Engine struct {
	*rand.Rand            // 底层随机数生成器
	mtx        sync.Mutex // 互斥锁，用于线程安全操作
}

// New 创建随机数引擎
// 功能：初始化一个新的随机数引擎实例
// 参数：seed-随机数种子
// 返回：随机数引擎指针
// 说明：种子偏移量允许在不修改配置的情况下调整随机数序列
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// PTrue 以指定概率返回true（非线程安全）
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// Uniform 在[lo, hi)内均匀采样（非线程安全）
func (e *Engine) Uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + (hi-lo)*e.Float64()
}

// Color 随机生成不透明的显示颜色（非线程安全）
func (e *Engine) Color() color.RGBA {
	return color.RGBA{
		R: uint8(e.Intn(256)),
		G: uint8(e.Intn(256)),
		B: uint8(e.Intn(256)),
		A: 255,
	}
}

// PTrueSafe 以指定概率返回true（线程安全）
func (e *Engine) PTrueSafe(p float64) bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Float64() < p
}

// IntnSafe 随机生成[0, n)内的整数（线程安全）
func (e *Engine) IntnSafe(n int) int {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Intn(n)
}

// UniformSafe 在[lo, hi)内均匀采样（线程安全）
func (e *Engine) UniformSafe(lo, hi float64) float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Uniform(lo, hi)
}

// ColorSafe 随机生成显示颜色（线程安全）
// 说明：HTTP等外部请求生成车辆时使用
func (e *Engine) ColorSafe() color.RGBA {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Color()
}

// DiscreteDistribution 按给定权重生成随机下标（非线程安全）
// 功能：根据权重数组生成离散分布的随机数，用于按权重抽取出生道路
// 参数：weight-权重数组
// 返回：随机生成的索引值（0到len(weight)-1）
// 说明：权重全为0时panic
func (e *Engine) DiscreteDistribution(weight []float64) int32 {
	random := .0
	for _, w := range weight {
		random += w
	}
	random *= e.Float64()
	sum := 0.
	for i, w := range weight {
		sum += w
		if sum > random {
			return int32(i)
		}
	}
	log.Panicf("randengine: DiscreteDistribution: sum: %f random: %f", sum, random)
	return -1
}
