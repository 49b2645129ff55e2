package car

import (
	"fmt"
	"image/color"
	"math"

	"github.com/paulmach/orb"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity/road"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/container"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/geometry"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/randengine"
)

const (
	defaultWidth  = 5.0  // 渲染宽度
	defaultHeight = 15.0 // 渲染长度
	spawnOffset   = 1.0  // 生成时沿第一段前移的距离，避免与道路起点重合
)

// Router 路径规划器
// 返回：从start到goal的道路序列，空切片表示当前不可达
type Router interface {
	Route(g *road.RoadGraph, start, goal entity.NodeID) []entity.RoadID
}

// Car 车辆实体
// 功能：维护车辆位置、当前道路、所在折线段与剩余路径，并按步推进
// 说明：同一辆车的Advance只由一个协程调用；不同车辆之间仅通过道路占用状态共享数据
type Car struct {
	container.IncrementalItemBase

	id           entity.CarID
	position     orb.Point
	velocity     float64   // 标量速度（单位/秒）
	acceleration orb.Point // 保留字段
	heading      float64   // 朝向（弧度）

	currentRoad  entity.RoadID
	segmentIndex int             // 当前所在折线段，==len(points)-1表示已走完本道路
	segmentDir   orb.Point       // 进入当前折线段时确定的单位方向
	path         []entity.RoadID // 剩余路径，不含当前道路
	destination  entity.NodeID
	arrived      bool

	width, height float64
	color         color.RGBA

	router    Router
	travelled float64 // 累计行驶距离
}

// New 在道路起点创建车辆（不登记到路网）
// 参数：id-车辆ID，r-初始道路，velocity-速度，destination-目的节点，router-路径规划器
func New(id entity.CarID, r *road.Road, velocity float64, destination entity.NodeID, router Router) *Car {
	c := &Car{
		id:          id,
		position:    r.Points()[0],
		velocity:    velocity,
		currentRoad: r.ID(),
		path:        []entity.RoadID{},
		destination: destination,
		width:       defaultWidth,
		height:      defaultHeight,
		color:       color.RGBA{A: 255},
		router:      router,
	}
	c.enterSegment(r.Points())
	return c
}

// Spawn 生成车辆
// 功能：在道路第一段上前移一小段距离放置新车辆，登记到路网并占用该道路
// 参数：g-路网，rng-随机数引擎（颜色），router-路径规划器，roadID-初始道路，velocity-速度，destination-目的节点
// 返回：新车辆ID；道路或目的节点不存在时返回错误
// 说明：前移距离不超过第一段长度的一半
func Spawn(
	g *road.RoadGraph, rng *randengine.Engine, router Router,
	roadID entity.RoadID, velocity float64, destination entity.NodeID,
) (entity.CarID, error) {
	r, err := g.Road(roadID)
	if err != nil {
		return 0, fmt.Errorf("spawn car: %w", err)
	}
	if _, err := g.Node(destination); err != nil {
		return 0, fmt.Errorf("spawn car: %w", err)
	}
	c := New(g.NextCarID(), r, velocity, destination, router)
	pts := r.Points()
	offset := math.Min(spawnOffset, geometry.Distance(pts[0], pts[1])/2)
	c.position = geometry.Add(pts[0], geometry.Scale(c.segmentDir, offset))
	c.color = rng.ColorSafe()
	if err := g.AddCar(c); err != nil {
		return 0, fmt.Errorf("spawn car: %w", err)
	}
	log.Debugf("spawn %v on %v at %v heading to %v", c.id, r, c.position, destination)
	return c.id, nil
}

func (c *Car) ID() entity.CarID { return c.id }
func (c *Car) Position() orb.Point { return c.position }
func (c *Car) Velocity() float64 { return c.velocity }
func (c *Car) Acceleration() orb.Point { return c.acceleration }
func (c *Car) Heading() float64 { return c.heading }
func (c *Car) CurrentRoad() entity.RoadID { return c.currentRoad }
func (c *Car) SegmentIndex() int { return c.segmentIndex }
func (c *Car) Destination() entity.NodeID { return c.destination }
func (c *Car) Arrived() bool { return c.arrived }
func (c *Car) Width() float64 { return c.width }
func (c *Car) Height() float64 { return c.height }
func (c *Car) Color() color.RGBA { return c.color }
func (c *Car) Travelled() float64 { return c.travelled }
func (c *Car) String() string { return fmt.Sprintf("Car %d", c.id) }

// Center 渲染旋转中心（相对车身左上角）
func (c *Car) Center() orb.Point {
	return orb.Point{c.width / 2, c.height / 2}
}

// RotateCar 朝向增加rotation（弧度）
func (c *Car) RotateCar(rotation float64) {
	c.heading += rotation
}

// Path 剩余路径的拷贝
func (c *Car) Path() []entity.RoadID {
	return append([]entity.RoadID{}, c.path...)
}

// SetPath 设置剩余路径，去掉与当前道路相同的首项
func (c *Car) SetPath(path []entity.RoadID) {
	if len(path) > 0 && path[0] == c.currentRoad {
		path = path[1:]
	}
	c.path = append([]entity.RoadID{}, path...)
}
