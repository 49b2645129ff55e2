package task

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity/car"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity/road"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils"
)

// CarState 车辆状态快照
type CarState struct {
	ID          entity.CarID  `json:"id"`
	X           float64       `json:"x"`
	Y           float64       `json:"y"`
	Heading     float64       `json:"heading"` // 弧度
	Velocity    float64       `json:"velocity"`
	Road        entity.RoadID `json:"road"`
	Destination entity.NodeID `json:"destination"`
	Arrived     bool          `json:"arrived"`
	Color       string        `json:"color"` // #rrggbb
	Width       float64       `json:"width"`
	Height      float64       `json:"height"`
}

// RoadState 道路状态快照
type RoadState struct {
	ID       entity.RoadID `json:"id"`
	From     entity.NodeID `json:"from"`
	To       entity.NodeID `json:"to"`
	Vehicles int32         `json:"vehicles"`
	Capacity int32         `json:"capacity"`
	Density  float64       `json:"density"`
}

// Snapshot 一步结束后的仿真状态
// 说明：发布后不可修改，可被任意协程并发读取
type Snapshot struct {
	Step    int32         `json:"step"`
	T       float64       `json:"t"`
	Runtime GlobalRuntime `json:"runtime"`
	Cars    []CarState    `json:"cars"`
	Roads   []RoadState   `json:"roads"`

	carIndex map[entity.CarID]CarState
}

// FindCars 按ID查找车辆状态，ids为空时返回全部车辆
func (s *Snapshot) FindCars(ids []entity.CarID) (found []CarState, missing []entity.CarID) {
	return utils.Find(s.carIndex, s.Cars, ids)
}

// publish 在驱动协程中构建并发布快照
func (ctx *Context) publish() {
	cars := lo.FilterMap(ctx.graph.Cars(), func(v road.Vehicle, _ int) (CarState, bool) {
		c, ok := v.(*car.Car)
		if !ok {
			return CarState{}, false
		}
		col := c.Color()
		return CarState{
			ID:          c.ID(),
			X:           c.Position().X(),
			Y:           c.Position().Y(),
			Heading:     c.Heading(),
			Velocity:    c.Velocity(),
			Road:        c.CurrentRoad(),
			Destination: c.Destination(),
			Arrived:     c.Arrived(),
			Color:       fmt.Sprintf("#%02x%02x%02x", col.R, col.G, col.B),
			Width:       c.Width(),
			Height:      c.Height(),
		}, true
	})
	roads := lo.Map(ctx.graph.Roads(), func(r *road.Road, _ int) RoadState {
		return RoadState{
			ID:       r.ID(),
			From:     r.From().ID,
			To:       r.To().ID,
			Vehicles: r.VehicleCount(),
			Capacity: r.Capacity(),
			Density:  r.TrafficDensity(),
		}
	})
	ctx.snapshot.Store(&Snapshot{
		Step:     ctx.clock.InternalStep,
		T:        ctx.clock.T,
		Runtime:  ctx.runtime,
		Cars:     cars,
		Roads:    roads,
		carIndex: lo.KeyBy(cars, func(c CarState) entity.CarID { return c.ID }),
	})
}
