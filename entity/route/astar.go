package route

import (
	"math"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity/road"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/container"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/geometry"
)

const (
	minEdgeLength    = 1.0 // 边长下限，避免极短道路的权重趋近0
	congestionFactor = 3.0 // 拥堵系数，满载时代价为空载的4倍
)

// Option AStar配置项
type Option func(*AStar)

// WithDebug 打开调试日志，输出每次搜索得到的路径
func WithDebug(debug bool) Option {
	return func(a *AStar) { a.debug = debug }
}

// AStar 考虑拥堵与单行限制的A*路径规划
// 说明：无内部可变状态，可被多个协程同时调用
type AStar struct {
	debug bool
}

// NewAStar 创建A*路径规划器
func NewAStar(opts ...Option) *AStar {
	a := &AStar{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// EdgeWeight 道路通行代价 max(length,1)*(1+3*density)
func EdgeWeight(r *road.Road) float64 {
	return math.Max(r.Length(), minEdgeLength) * (1 + congestionFactor*r.TrafficDensity())
}

// AllowsTravel 单行过滤
// 功能：判断沿道路r从u行驶到v是否允许
// 说明：非单行道总是允许；单行道要求u->v方向与道路from->to方向同向（点积>0）
func AllowsTravel(r *road.Road, u, v road.Node) bool {
	if !r.OneWay() {
		return true
	}
	travel := geometry.Sub(v.Position, u.Position)
	return geometry.Dot(r.Direction(), travel) > 0
}

type searchNode struct {
	cost float64       // 起点到该节点的最优已知代价g
	prev entity.NodeID // 前驱节点
	via  entity.RoadID // 从前驱到达该节点所经道路
	done bool          // 已出队（closed）
}

// Route 路径规划
// 功能：在当前拥堵状态下搜索从start到goal的最小代价道路序列
// 参数：g-路网（只读），start-起点节点，goal-终点节点
// 返回：按行驶顺序排列的道路ID；start==goal或不可达时返回空切片
// 算法说明：
// 1. 优先队列按f=g+h升序，h为到终点的直线距离（边权不小于道路长度，h可采纳）
// 2. 扩展节点时跳过单行道逆行的边
// 3. 仅当新代价严格更小时松弛，并记录前驱节点与所经道路
// 4. 队列中的过期项在出队时丢弃
// 5. 到达终点后沿前驱回溯并反转
func (a *AStar) Route(g *road.RoadGraph, start, goal entity.NodeID) []entity.RoadID {
	startNode, err := g.Node(start)
	if err != nil {
		log.Panicf("route from %v: %v", start, err)
	}
	goalNode, err := g.Node(goal)
	if err != nil {
		log.Panicf("route to %v: %v", goal, err)
	}
	if start == goal {
		return []entity.RoadID{}
	}
	h := func(n road.Node) float64 {
		return geometry.Distance(n.Position, goalNode.Position)
	}

	adj := g.Adjacency()
	visited := map[entity.NodeID]*searchNode{start: {cost: 0, prev: start}}
	queue := container.NewPriorityQueue[road.Node]()
	queue.HeapPush(startNode, h(startNode))

	found := false
	for !queue.Empty() {
		u, _ := queue.HeapPop()
		su := visited[u.ID]
		if su.done {
			continue
		}
		su.done = true
		if u.ID == goal {
			found = true
			break
		}
		for _, e := range adj[u.ID] {
			r, err := g.Road(e.Road)
			if err != nil {
				log.Panicf("adjacency of %v: %v", u.ID, err)
			}
			v, err := g.Node(e.To)
			if err != nil {
				log.Panicf("adjacency of %v: %v", u.ID, err)
			}
			if !AllowsTravel(r, u, v) {
				continue
			}
			cost := su.cost + EdgeWeight(r)
			sv, ok := visited[v.ID]
			if ok && (sv.done || cost >= sv.cost) {
				continue
			}
			visited[v.ID] = &searchNode{cost: cost, prev: u.ID, via: r.ID()}
			queue.HeapPush(v, cost+h(v))
		}
	}
	if !found {
		if a.debug {
			log.Debugf("no path from %v to %v", start, goal)
		}
		return []entity.RoadID{}
	}

	path := make([]entity.RoadID, 0)
	for cur := goal; cur != start; {
		s := visited[cur]
		path = append(path, s.via)
		cur = s.prev
	}
	path = lo.Reverse(path)
	if a.debug {
		log.Debugf("path from %v to %v: %v (cost %.2f)", start, goal, path, visited[goal].cost)
	}
	return path
}
