package clock

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/config"
)

// Clock 仿真时钟
// 功能：管理仿真系统的时间推进
// 说明：T与InternalStep只由驱动协程修改；对外查询通过原子变量读取，避免与驱动协程竞争
type Clock struct {
	DT         float64 // 每个模拟步时间间隔（秒）
	START_STEP int32   // 起始步
	END_STEP   int32   // 结束步，模拟区间[START, END)

	T            float64 // 当前时间（秒）
	InternalStep int32   // 当前步数

	published atomic.Uint64 // 对外可见的当前时间（math.Float64bits）
	step      atomic.Int32  // 对外可见的当前步数
}

// New 根据配置创建新的时钟实例
// 参数：stepConfig-控制步配置，包含起始步、总步数和时间间隔
// 返回：初始化完成的时钟实例
func New(stepConfig config.ControlStep) *Clock {
	c := &Clock{
		DT:         stepConfig.Interval,
		START_STEP: stepConfig.Start,
		END_STEP:   stepConfig.Start + stepConfig.Total,
	}
	c.Init()
	return c
}

// Init 初始化时钟状态
// 说明：重置内部步数为起始步，重新计算当前时间
func (c *Clock) Init() {
	c.InternalStep = c.START_STEP
	c.T = float64(c.InternalStep) * c.DT
	c.publish()
}

// Tick 推进一步
func (c *Clock) Tick() {
	c.InternalStep++
	c.T = float64(c.InternalStep) * c.DT
	c.publish()
}

// Finished 是否已到达结束步
func (c *Clock) Finished() bool {
	return c.InternalStep+1 >= c.END_STEP
}

func (c *Clock) publish() {
	c.published.Store(math.Float64bits(c.T))
	c.step.Store(c.InternalStep)
}

// Now 并发安全地读取当前时间与步数
func (c *Clock) Now() (t float64, step int32) {
	return math.Float64frombits(c.published.Load()), c.step.Load()
}

// String 获取时钟的字符串表示（HH:MM:SS）
func (c *Clock) String() string {
	t := c.T
	h := int(t / 3600)
	t -= float64(h * 3600)
	m := int(t / 60)
	t -= float64(m * 60)
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// GetHourMinuteSecond 获取当前时间的小时、分钟、秒
// 返回：小时、分钟、秒（秒为浮点数，支持亚秒级精度）
func (c *Clock) GetHourMinuteSecond() (int, int, float64) {
	hour := int(c.T) / 3600
	minute := int(c.T) % 3600 / 60
	second := c.T - float64(hour*3600+minute*60)
	return hour, minute, second
}
