package input

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity/road"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/config"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/randengine"
)

const (
	defaultSpeedLimit = 15.0
	randomSegments    = 8
)

// BuildGraph 由输入数据构建路网
// 功能：创建节点与道路（直线或曲线），未指定单行标记的道路按oneWayRatio随机决定
// 参数：m-路网数据，rng-随机数引擎，oneWayRatio-单行比例
// 返回：路网；道路引用了不存在的节点、参数不合法或ID重复时返回错误
func BuildGraph(m *MapData, rng *randengine.Engine, oneWayRatio float64) (*road.RoadGraph, error) {
	nodes := lo.Map(m.Nodes, func(n NodeData, _ int) road.Node {
		return road.NewNode(entity.NodeID(n.ID), orb.Point{n.X, n.Y})
	})
	nodeMap := lo.SliceToMap(nodes, func(n road.Node) (entity.NodeID, road.Node) {
		return n.ID, n
	})
	roads := make([]*road.Road, 0, len(m.Roads))
	for _, rd := range m.Roads {
		from, ok := nodeMap[entity.NodeID(rd.From)]
		if !ok {
			return nil, fmt.Errorf("road %d: from node %d: %w", rd.ID, rd.From, entity.ErrNotFound)
		}
		to, ok := nodeMap[entity.NodeID(rd.To)]
		if !ok {
			return nil, fmt.Errorf("road %d: to node %d: %w", rd.ID, rd.To, entity.ErrNotFound)
		}
		oneWay := lo.FromPtrOr(rd.OneWay, false)
		if rd.OneWay == nil {
			oneWay = road.RandomOneWay(rng, oneWayRatio)
		}
		speedLimit := rd.SpeedLimit
		if speedLimit == 0 {
			speedLimit = defaultSpeedLimit
		}
		r, err := road.NewCurvedRoad(
			entity.RoadID(rd.ID), from, to,
			rd.Capacity, speedLimit, oneWay,
			rd.Bend, rd.Segments,
		)
		if err != nil {
			return nil, err
		}
		roads = append(roads, r)
	}
	g, err := road.NewRoadGraph(roads, nodes)
	if err != nil {
		return nil, err
	}
	log.Infof("Node: %v", len(nodes))
	log.Infof("Road: %v", len(roads))
	return g, nil
}

// Generate 随机生成路网
// 功能：在给定范围内均匀生成节点，并生成有向道路
// 参数：rng-随机数引擎，p-生成参数
// 返回：路网数据，单行标记留空由BuildGraph决定
// 算法说明：
// 1. 节点坐标在[0,width]x[0,height]内均匀分布
// 2. 先按随机顺序把节点连成一个有向环，保证任意两点可达（道路数不足时只连前若干条）
// 3. 其余道路随机选择不重复的(from,to)节点对，from!=to；所有节点对用完后停止
// 4. 每条道路的弯曲程度在[-bend,bend]内均匀分布
func Generate(rng *randengine.Engine, p config.RandomMap) *MapData {
	m := &MapData{
		Nodes: make([]NodeData, 0, p.Nodes),
		Roads: make([]RoadData, 0, p.Roads),
	}
	for i := 0; i < p.Nodes; i++ {
		m.Nodes = append(m.Nodes, NodeData{
			ID: int32(i),
			X:  rng.Uniform(0, p.Width),
			Y:  rng.Uniform(0, p.Height),
		})
	}
	if p.Nodes < 2 {
		return m
	}
	used := make(map[[2]int32]struct{})
	add := func(from, to int32) {
		used[[2]int32{from, to}] = struct{}{}
		m.Roads = append(m.Roads, RoadData{
			ID:       int32(len(m.Roads)),
			From:     from,
			To:       to,
			Capacity: p.Capacity,
			Bend:     rng.Uniform(-p.Bend, p.Bend),
			Segments: randomSegments,
		})
	}
	order := rng.Perm(p.Nodes)
	for i := 0; i < len(order) && len(m.Roads) < p.Roads; i++ {
		add(int32(order[i]), int32(order[(i+1)%len(order)]))
	}
	maxRoads := min(p.Roads, p.Nodes*(p.Nodes-1))
	for len(m.Roads) < maxRoads {
		from, to := int32(rng.Intn(p.Nodes)), int32(rng.Intn(p.Nodes))
		if from == to {
			continue
		}
		if _, ok := used[[2]int32{from, to}]; ok {
			continue
		}
		add(from, to)
	}
	return m
}
