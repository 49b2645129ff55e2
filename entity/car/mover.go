package car

import (
	"github.com/paulmach/orb"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity/road"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/geometry"
)

const (
	transitionTolerance = 2.0 // 换道路时新道路起点与当前位置的最大允许距离
)

// enterSegment 进入第segmentIndex段时更新方向与朝向
// 说明：线段过短时保留原方向与朝向
func (c *Car) enterSegment(points orb.LineString) {
	if c.segmentIndex+1 >= len(points) {
		return
	}
	heading, dir, ok := geometry.SegmentHeading(points[c.segmentIndex], points[c.segmentIndex+1])
	if !ok {
		return
	}
	c.heading = heading
	c.segmentDir = dir
}

// MoveOnRoad 在当前道路内推进
// 功能：沿道路折线前进velocity*dt
// 参数：dt-步长（秒），r-当前道路
// 返回：是否已走完本道路
// 算法说明：
// 1. 折线少于2个点视为已走完
// 2. 本步行驶距离不小于到下一个折线点的剩余距离时，吸附到该点并进入下一段（到最后一个点即走完），本步剩余距离不再使用
// 3. 否则沿进入本段时确定的方向前进
func (c *Car) MoveOnRoad(dt float64, r *road.Road) bool {
	points := r.Points()
	if len(points) < 2 {
		return true
	}
	last := len(points) - 1
	if c.segmentIndex < 0 || c.segmentIndex > last {
		log.Panicf("%v: segment index %d out of range of %v with %d points", c, c.segmentIndex, r, len(points))
	}
	if c.segmentIndex == last {
		c.position = points[last]
		return true
	}
	travel := c.velocity * dt
	next := points[c.segmentIndex+1]
	remaining := geometry.Distance(c.position, next)
	if travel >= remaining {
		c.position = next
		c.travelled += remaining
		c.segmentIndex++
		if c.segmentIndex == last {
			return true
		}
		c.enterSegment(points)
		return false
	}
	c.position = geometry.Add(c.position, geometry.Scale(c.segmentDir, travel))
	c.travelled += travel
	return false
}

// Advance 单步更新
// 功能：道路内推进、到达判定、路径规划与换道路
// 参数：dt-步长（秒），g-路网
// 算法说明：
// 1. 已到达（无剩余路径、位于最后一个点、道路终点为目的地）时不做任何事
// 2. 道路内推进
// 3. 再次进行到达判定
// 4. 无剩余路径时：未走完本道路则等待；走完后从道路终点规划到目的地，结果为空则下一步重试
// 5. 走完本道路且有剩余路径时换到下一条道路
func (c *Car) Advance(dt float64, g *road.RoadGraph) {
	r := c.mustRoad(g, c.currentRoad)
	if c.checkArrival(r) {
		return
	}
	complete := c.MoveOnRoad(dt, r)
	if c.checkArrival(r) {
		return
	}
	if len(c.path) == 0 {
		if !complete {
			return
		}
		c.SetPath(c.router.Route(g, r.To().ID, c.destination))
		if len(c.path) == 0 {
			log.Debugf("%v: no path from %v to %v, retry next step", c, r.To().ID, c.destination)
			return
		}
	}
	if complete {
		c.transition(g)
	}
}

// checkArrival 到达判定，幂等
func (c *Car) checkArrival(r *road.Road) bool {
	if c.arrived {
		return true
	}
	if len(c.path) == 0 && c.segmentIndex == len(r.Points())-1 && r.To().ID == c.destination {
		c.arrived = true
		log.Debugf("%v arrived at %v", c, c.destination)
	}
	return c.arrived
}

// transition 换到剩余路径的下一条道路
// 说明：
// 1. 先校验新道路起点与当前位置的距离，超出容差视为路径错误，清空路径并停在原地
// 2. 先释放旧道路再占用新道路，任何时刻只持有一条道路的锁
func (c *Car) transition(g *road.RoadGraph) {
	next := c.path[0]
	nr := c.mustRoad(g, next)
	points := nr.Points()
	if d := geometry.Distance(points[0], c.position); d > transitionTolerance {
		log.Warnf("%v: %v starts %.2f away from position %v, drop path %v", c, nr, d, c.position, c.path)
		c.path = []entity.RoadID{}
		return
	}
	if err := g.LeaveRoad(c.id, c.currentRoad); err != nil {
		log.Panicf("%v: %v", c, err)
	}
	if err := g.EnterRoad(c.id, next); err != nil {
		log.Panicf("%v: %v", c, err)
	}
	c.currentRoad = next
	c.segmentIndex = 0
	c.position = points[0]
	c.path = c.path[1:]
	c.enterSegment(points)
}

func (c *Car) mustRoad(g *road.RoadGraph, id entity.RoadID) *road.Road {
	r, err := g.Road(id)
	if err != nil {
		log.Panicf("%v: %v", c, err)
	}
	return r
}
