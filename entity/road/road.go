package road

import (
	"fmt"
	"sync"

	"github.com/paulmach/orb"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/geometry"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/randengine"
)

// Node 路口/道路端点，创建后不可变
type Node struct {
	ID       entity.NodeID
	Position orb.Point
}

// NewNode 创建节点
func NewNode(id entity.NodeID, pos orb.Point) Node {
	return Node{ID: id, Position: pos}
}

func (n Node) String() string {
	return fmt.Sprintf("Node %d(%.1f, %.1f)", n.ID, n.Position[0], n.Position[1])
}

// Road 道路实体
// 功能：表示从from到to的有向道路，包含几何折线、容量、限速、单行标记与占用状态
// 说明：除占用状态外的字段在创建后不可变，可无锁读取；
// 占用状态（occupants、vehiclesOn、trafficDensity）由本道路独立的读写锁保护
type Road struct {
	id         entity.RoadID
	from, to   Node           // 端点（值拷贝）
	length     float64        // from与to之间的欧氏距离
	capacity   int32          // 容量，恒大于0
	speedLimit float64        // 限速
	oneWay     bool           // 单行道，创建时确定
	points     orb.LineString // 采样折线，points[0]==from.Position, points[last]==to.Position

	mu             sync.RWMutex
	occupants      map[entity.CarID]struct{} // 当前在道路上的车辆
	vehiclesOn     int32                     // 稠密计数，恒等于len(occupants)
	trafficDensity float64                   // vehiclesOn / capacity
}

// NewRoad 创建直线道路
func NewRoad(id entity.RoadID, from, to Node, capacity int32, speedLimit float64, oneWay bool) (*Road, error) {
	return newRoad(id, from, to, capacity, speedLimit, oneWay, orb.LineString{from.Position, to.Position})
}

// NewCurvedRoad 创建弯曲道路
// 功能：使用曲线采样器生成道路折线
// 参数：bend-弯曲程度（控制点偏移比例），segments-折线段数
// 返回：道路实例或参数错误
func NewCurvedRoad(
	id entity.RoadID, from, to Node,
	capacity int32, speedLimit float64, oneWay bool,
	bend float64, segments int,
) (*Road, error) {
	return newRoad(id, from, to, capacity, speedLimit, oneWay, geometry.SampleCurve(from.Position, to.Position, bend, segments))
}

// NewRoadWithPoints 以给定折线创建道路，折线首尾必须与端点位置一致
func NewRoadWithPoints(
	id entity.RoadID, from, to Node,
	capacity int32, speedLimit float64, oneWay bool,
	points orb.LineString,
) (*Road, error) {
	return newRoad(id, from, to, capacity, speedLimit, oneWay, points)
}

func newRoad(
	id entity.RoadID, from, to Node,
	capacity int32, speedLimit float64, oneWay bool,
	points orb.LineString,
) (*Road, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("road %d: capacity %d must be positive: %w", id, capacity, entity.ErrInvalidRoad)
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("road %d: polyline needs at least 2 points, got %d: %w", id, len(points), entity.ErrInvalidRoad)
	}
	if !points[0].Equal(from.Position) || !points[len(points)-1].Equal(to.Position) {
		return nil, fmt.Errorf("road %d: polyline endpoints do not match node positions: %w", id, entity.ErrInvalidRoad)
	}
	return &Road{
		id:         id,
		from:       from,
		to:         to,
		length:     geometry.Distance(from.Position, to.Position),
		capacity:   capacity,
		speedLimit: speedLimit,
		oneWay:     oneWay,
		points:     points,
		occupants:  make(map[entity.CarID]struct{}),
	}, nil
}

// RandomOneWay 按概率ratio随机决定单行标记
func RandomOneWay(rng *randengine.Engine, ratio float64) bool {
	return rng.PTrue(ratio)
}

func (r *Road) ID() entity.RoadID { return r.id }
func (r *Road) From() Node { return r.from }
func (r *Road) To() Node { return r.to }
func (r *Road) Length() float64 { return r.length }
func (r *Road) Capacity() int32 { return r.capacity }
func (r *Road) SpeedLimit() float64 { return r.speedLimit }
func (r *Road) OneWay() bool { return r.oneWay }
func (r *Road) Points() orb.LineString { return r.points }
func (r *Road) String() string { return fmt.Sprintf("Road %d(%d->%d)", r.id, r.from.ID, r.to.ID) }
func (r *Road) Direction() orb.Point { return geometry.Sub(r.to.Position, r.from.Position) }

// TrafficDensity 当前交通密度 |occupants| / capacity
func (r *Road) TrafficDensity() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.trafficDensity
}

// VehicleCount 当前车辆数（稠密计数）
func (r *Road) VehicleCount() int32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.vehiclesOn
}

// Occupants 当前车辆ID集合的拷贝
func (r *Road) Occupants() []entity.CarID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]entity.CarID, 0, len(r.occupants))
	for id := range r.occupants {
		res = append(res, id)
	}
	return res
}

// HasOccupant 车辆是否在道路上
func (r *Road) HasOccupant(id entity.CarID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.occupants[id]
	return ok
}

// enter 车辆驶入，持有本道路写锁
func (r *Road) enter(id entity.CarID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.occupants[id] = struct{}{}
	r.refreshLocked()
}

// leave 车辆驶离，持有本道路写锁
func (r *Road) leave(id entity.CarID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.occupants, id)
	r.refreshLocked()
}

func (r *Road) refreshLocked() {
	r.vehiclesOn = int32(len(r.occupants))
	r.trafficDensity = float64(r.vehiclesOn) / float64(r.capacity)
}
