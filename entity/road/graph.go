package road

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/paulmach/orb"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/container"
)

// Vehicle 注册在路网中的车辆
// 说明：由car包实现，定义在此处以避免循环依赖
type Vehicle interface {
	container.IIncrementalItem

	ID() entity.CarID
	Position() orb.Point
	Heading() float64
	CurrentRoad() entity.RoadID
	Advance(dt float64, g *RoadGraph)
}

// Edge 邻接表中的一条出边
type Edge struct {
	To   entity.NodeID
	Road entity.RoadID
}

// Adjacency 邻接表 NodeID -> 出边列表，按道路ID升序
// 说明：快照创建后不可修改
type Adjacency map[entity.NodeID][]Edge

// RoadGraph 路网
// 功能：持有所有节点、道路、邻接表与车辆注册表
// 说明：
// 1. 节点与道路存放在并发map中，查找为O(1)
// 2. 邻接表为不可变快照，任何结构修改（增删道路/节点）都会在structMu保护下重建并原子替换，读者无需加锁
// 3. 道路占用状态由各道路自己的读写锁保护，不存在全局锁
type RoadGraph struct {
	nodes *xsync.MapOf[entity.NodeID, Node]
	roads *xsync.MapOf[entity.RoadID, *Road]

	structMu  sync.Mutex
	adjacency atomic.Pointer[Adjacency]

	cars      *xsync.MapOf[entity.CarID, Vehicle]
	carList   *container.IncrementalArray[Vehicle]
	nextCarID atomic.Int32
}

// NewRoadGraph 构建路网
// 功能：登记所有节点与道路，按道路起点分组构建邻接表
// 参数：roads-道路列表（可为nil），nodes-节点列表（可为nil）
// 返回：路网实例；ID重复或道路端点与已登记节点位置不一致时返回错误
// 说明：道路端点若未出现在nodes中会被自动登记；道路为空时邻接表为空
func NewRoadGraph(roads []*Road, nodes []Node) (*RoadGraph, error) {
	g := &RoadGraph{
		nodes:   xsync.NewMapOf[entity.NodeID, Node](),
		roads:   xsync.NewMapOf[entity.RoadID, *Road](),
		cars:    xsync.NewMapOf[entity.CarID, Vehicle](),
		carList: container.NewIncrementalArray[Vehicle](),
	}
	for _, n := range nodes {
		if _, loaded := g.nodes.LoadOrStore(n.ID, n); loaded {
			return nil, fmt.Errorf("build graph: %v: %w", n.ID, entity.ErrDuplicateID)
		}
	}
	for _, r := range roads {
		if err := g.registerEndpoints(r); err != nil {
			return nil, fmt.Errorf("build graph: %w", err)
		}
		if _, loaded := g.roads.LoadOrStore(r.id, r); loaded {
			return nil, fmt.Errorf("build graph: %v: %w", r.id, entity.ErrDuplicateID)
		}
	}
	g.rebuildAdjacency()
	return g, nil
}

func (g *RoadGraph) registerEndpoints(r *Road) error {
	for _, n := range []Node{r.from, r.to} {
		old, loaded := g.nodes.LoadOrStore(n.ID, n)
		if loaded && !old.Position.Equal(n.Position) {
			return fmt.Errorf("%v endpoint %v disagrees with registered %v: %w", r, n, old, entity.ErrInvalidRoad)
		}
	}
	return nil
}

// rebuildAdjacency 重新构建邻接表快照，调用方需持有structMu或处于构建阶段
func (g *RoadGraph) rebuildAdjacency() {
	adj := make(Adjacency)
	g.roads.Range(func(_ entity.RoadID, r *Road) bool {
		adj[r.from.ID] = append(adj[r.from.ID], Edge{To: r.to.ID, Road: r.id})
		return true
	})
	for _, edges := range adj {
		sort.Slice(edges, func(i, j int) bool { return edges[i].Road < edges[j].Road })
	}
	g.adjacency.Store(&adj)
}

// Adjacency 获取当前邻接表快照（只读）
func (g *RoadGraph) Adjacency() Adjacency {
	return *g.adjacency.Load()
}

// Neighbors 获取从节点出发的所有出边
func (g *RoadGraph) Neighbors(id entity.NodeID) []Edge {
	return g.Adjacency()[id]
}

// AddRoad 增加道路并重建邻接表
func (g *RoadGraph) AddRoad(r *Road) error {
	g.structMu.Lock()
	defer g.structMu.Unlock()
	if _, ok := g.roads.Load(r.id); ok {
		return fmt.Errorf("add road: %v: %w", r.id, entity.ErrDuplicateID)
	}
	if err := g.registerEndpoints(r); err != nil {
		return fmt.Errorf("add road: %w", err)
	}
	g.roads.Store(r.id, r)
	g.rebuildAdjacency()
	return nil
}

// RemoveRoad 删除道路并重建邻接表
// 说明：道路上仍有车辆时拒绝删除
func (g *RoadGraph) RemoveRoad(id entity.RoadID) error {
	g.structMu.Lock()
	defer g.structMu.Unlock()
	r, ok := g.roads.Load(id)
	if !ok {
		return fmt.Errorf("remove road: %v: %w", id, entity.ErrNotFound)
	}
	if n := r.VehicleCount(); n > 0 {
		return fmt.Errorf("remove road: %v still has %d vehicles: %w", id, n, entity.ErrInvalidRoad)
	}
	g.roads.Delete(id)
	g.rebuildAdjacency()
	return nil
}

// AddNode 增加节点
func (g *RoadGraph) AddNode(n Node) error {
	g.structMu.Lock()
	defer g.structMu.Unlock()
	if _, loaded := g.nodes.LoadOrStore(n.ID, n); loaded {
		return fmt.Errorf("add node: %v: %w", n.ID, entity.ErrDuplicateID)
	}
	g.rebuildAdjacency()
	return nil
}

// RemoveNode 删除节点，仍被道路引用时拒绝删除
func (g *RoadGraph) RemoveNode(id entity.NodeID) error {
	g.structMu.Lock()
	defer g.structMu.Unlock()
	if _, ok := g.nodes.Load(id); !ok {
		return fmt.Errorf("remove node: %v: %w", id, entity.ErrNotFound)
	}
	var user *Road
	g.roads.Range(func(_ entity.RoadID, r *Road) bool {
		if r.from.ID == id || r.to.ID == id {
			user = r
			return false
		}
		return true
	})
	if user != nil {
		return fmt.Errorf("remove node: %v used by %v: %w", id, user, entity.ErrNodeInUse)
	}
	g.nodes.Delete(id)
	g.rebuildAdjacency()
	return nil
}

// Road 根据ID获取道路
// 返回：道路实例，不存在时返回包装了entity.ErrNotFound的错误
func (g *RoadGraph) Road(id entity.RoadID) (*Road, error) {
	if r, ok := g.roads.Load(id); ok {
		return r, nil
	}
	return nil, fmt.Errorf("no id %d in road data: %w", id, entity.ErrNotFound)
}

// Node 根据ID获取节点
func (g *RoadGraph) Node(id entity.NodeID) (Node, error) {
	if n, ok := g.nodes.Load(id); ok {
		return n, nil
	}
	return Node{}, fmt.Errorf("no id %d in node data: %w", id, entity.ErrNotFound)
}

// Roads 所有道路，按ID升序
func (g *RoadGraph) Roads() []*Road {
	res := make([]*Road, 0, g.roads.Size())
	g.roads.Range(func(_ entity.RoadID, r *Road) bool {
		res = append(res, r)
		return true
	})
	sort.Slice(res, func(i, j int) bool { return res[i].id < res[j].id })
	return res
}

// Nodes 所有节点，按ID升序
func (g *RoadGraph) Nodes() []Node {
	res := make([]Node, 0, g.nodes.Size())
	g.nodes.Range(func(_ entity.NodeID, n Node) bool {
		res = append(res, n)
		return true
	})
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// EnterRoad 车辆驶入道路，只锁定目标道路
func (g *RoadGraph) EnterRoad(car entity.CarID, id entity.RoadID) error {
	r, err := g.Road(id)
	if err != nil {
		return err
	}
	r.enter(car)
	return nil
}

// LeaveRoad 车辆驶离道路，只锁定目标道路
func (g *RoadGraph) LeaveRoad(car entity.CarID, id entity.RoadID) error {
	r, err := g.Road(id)
	if err != nil {
		return err
	}
	r.leave(car)
	return nil
}

// NextCarID 分配新的车辆ID，ID从1开始且不复用
func (g *RoadGraph) NextCarID() entity.CarID {
	return entity.CarID(g.nextCarID.Add(1))
}

// AddCar 登记车辆并占用其当前道路
// 说明：车辆在下一次PrepareCars后才会出现在ActiveCars中
func (g *RoadGraph) AddCar(v Vehicle) error {
	r, err := g.Road(v.CurrentRoad())
	if err != nil {
		return fmt.Errorf("add car %d: %w", v.ID(), err)
	}
	if _, loaded := g.cars.LoadOrStore(v.ID(), v); loaded {
		return fmt.Errorf("add car: %v: %w", v.ID(), entity.ErrDuplicateID)
	}
	r.enter(v.ID())
	g.carList.Add(v)
	return nil
}

// RemoveCar 注销车辆并释放其当前道路的占用
func (g *RoadGraph) RemoveCar(id entity.CarID) error {
	v, ok := g.cars.LoadAndDelete(id)
	if !ok {
		return fmt.Errorf("remove car: %v: %w", id, entity.ErrNotFound)
	}
	if r, err := g.Road(v.CurrentRoad()); err == nil {
		r.leave(id)
	}
	g.carList.Remove(v)
	return nil
}

// Car 根据ID获取车辆
func (g *RoadGraph) Car(id entity.CarID) (Vehicle, error) {
	if v, ok := g.cars.Load(id); ok {
		return v, nil
	}
	return nil, fmt.Errorf("no id %d in car data: %w", id, entity.ErrNotFound)
}

// Cars 所有已登记车辆，按ID升序
func (g *RoadGraph) Cars() []Vehicle {
	res := make([]Vehicle, 0, g.cars.Size())
	g.cars.Range(func(_ entity.CarID, v Vehicle) bool {
		res = append(res, v)
		return true
	})
	sort.Slice(res, func(i, j int) bool { return res[i].ID() < res[j].ID() })
	return res
}

// CarCount 已登记车辆数
func (g *RoadGraph) CarCount() int {
	return g.cars.Size()
}

// ActiveCars 本步参与更新的车辆（稠密数组，只读）
// 说明：不可与PrepareCars并发调用
func (g *RoadGraph) ActiveCars() []Vehicle {
	return g.carList.Data()
}

// PrepareCars 使延迟的车辆增删生效，由驱动在每步开始时调用一次
func (g *RoadGraph) PrepareCars() {
	g.carList.Prepare()
}

// OccupancyTotal 所有道路的稠密计数之和
func (g *RoadGraph) OccupancyTotal() int32 {
	return lo.SumBy(g.Roads(), func(r *Road) int32 { return r.VehicleCount() })
}
