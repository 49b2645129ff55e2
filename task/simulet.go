package task

import (
	"context"
	"flag"

	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity/car"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity/road"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/parallel"
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")
)

// prepare 准备阶段，每步执行一次
// 功能：在每个仿真步骤开始时进行准备工作
// 算法说明：
// 1. 心跳日志：定期输出系统状态信息
// 2. 处理外部生成请求
// 3. 车辆注册表的增量操作生效
func (ctx *Context) prepare() {
	if *heartBeatInterval > 0 && ctx.clock.InternalStep%int32(*heartBeatInterval) == 0 {
		hour, minute, second := ctx.clock.GetHourMinuteSecond()
		log.Infof(
			"STEP: %d(%d:%d:%.2f) cars: %d arrived: %d",
			ctx.clock.InternalStep,
			hour, minute, second,
			ctx.runtime.Cars, ctx.runtime.ArrivedCars,
		)
	}

	ctx.spawnRequestsMutex.Lock()
	requests := ctx.spawnRequests
	ctx.spawnRequests = nil
	ctx.spawnRequestsMutex.Unlock()
	for _, req := range requests {
		if _, err := car.Spawn(ctx.graph, ctx.rng, ctx.router, req.Road, req.Velocity, req.Destination); err != nil {
			log.Errorf("spawn %+v failed: %v", req, err)
		}
	}

	ctx.graph.PrepareCars()
}

// update 更新阶段，每步执行一次
// 功能：并行推进所有车辆，然后汇总统计
// 说明：车辆之间没有更新顺序保证，只通过道路占用状态相互影响
func (ctx *Context) update() {
	cars := ctx.graph.ActiveCars()
	parallel.GoFor(cars, func(v road.Vehicle) {
		v.Advance(ctx.clock.DT, ctx.graph)
	})

	rt := GlobalRuntime{Cars: len(cars)}
	for _, v := range cars {
		c, ok := v.(*car.Car)
		if !ok {
			continue
		}
		if c.Arrived() {
			rt.ArrivedCars++
		}
		rt.TravelDistance += c.Travelled()
	}
	ctx.runtime = rt
}

// Run 运行
// 功能：逐步执行准备、更新与发布，直到到达结束步、ctx被取消或调用Close
func (ctx *Context) Run(c context.Context) {
	for {
		ctx.prepare()
		log.Debugf("step %d: prepare complete", ctx.clock.InternalStep)
		ctx.update()
		log.Debugf("step %d: update complete", ctx.clock.InternalStep)
		ctx.publish()
		if ctx.clock.Finished() || ctx.closed.Load() || c.Err() != nil {
			break
		}
		ctx.clock.Tick()
	}
	log.Infof("engine complete at step %d, arrived %d/%d", ctx.clock.InternalStep, ctx.runtime.ArrivedCars, ctx.runtime.Cars)
}
