package task

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/clock"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity/car"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity/road"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity/route"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/config"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/input"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/parallel"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/randengine"
)

// GlobalRuntime 全局运行时统计
// 功能：记录已到达车辆数与总行驶距离
type GlobalRuntime struct {
	Cars           int     `json:"cars"`            // 车辆总数
	ArrivedCars    int     `json:"arrived_cars"`    // 已到达车辆数
	TravelDistance float64 `json:"travel_distance"` // 总行驶距离
}

// SpawnRequest 外部生成车辆的请求，在下一步的准备阶段生效
type SpawnRequest struct {
	Road        entity.RoadID
	Velocity    float64
	Destination entity.NodeID
}

// Context 仿真任务上下文
// 功能：包含一次仿真任务的所有变量和状态
// 说明：管理时钟、路网、路径规划器、随机数引擎与配置；车辆更新结果通过Snapshot对外发布
type Context struct {
	// 关闭指令
	closed atomic.Bool

	// 时钟
	clock *clock.Clock
	// 路网（含车辆注册表）
	graph *road.RoadGraph
	// 导航服务
	router car.Router
	// 随机数引擎
	rng *randengine.Engine
	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig

	// 等待生效的生成请求
	spawnRequests      []SpawnRequest
	spawnRequestsMutex sync.Mutex

	// 全局统计，只在驱动协程中修改
	runtime GlobalRuntime
	// 最近一次发布的快照
	snapshot atomic.Pointer[Snapshot]
}

// NewContext 创建新的仿真任务上下文
// 功能：校验配置、加载路网数据并构建路网
// 参数：c-配置对象，cacheDir-输入缓存目录（为空则禁用缓存）
// 返回：Context实例，配置或路网数据不合法时返回错误
// 算法说明：
// 1. 补齐默认值并校验配置
// 2. 以配置中的种子创建随机数引擎
// 3. 加载路网数据并构建路网，未指定单行标记的道路按配置比例随机决定
// 4. 创建A*路径规划器
func NewContext(c config.Config, cacheDir string) (*Context, error) {
	rc, err := config.NewRuntimeConfig(c)
	if err != nil {
		return nil, err
	}
	parallel.SetLimit(rc.C.Workers)
	ctx := &Context{
		clock:         clock.New(rc.C.Step),
		rng:           randengine.New(rc.C.Seed),
		runtimeConfig: rc,
		router:        route.NewAStar(route.WithDebug(rc.C.DebugRoute)),
	}
	mapData, err := input.Init(rc.All.Input, cacheDir, ctx.rng)
	if err != nil {
		return nil, err
	}
	if ctx.graph, err = input.BuildGraph(mapData, ctx.rng, rc.C.OneWayRatio); err != nil {
		return nil, err
	}
	return ctx, nil
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) Graph() *road.RoadGraph {
	return ctx.graph
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

// Init 初始化
// 功能：重置时钟，生成配置中指定的车辆与随机车辆，并发布初始快照
// 返回：指定车辆的道路或目的节点不存在时返回错误
// 算法说明：
// 1. 按列表生成指定车辆
// 2. 随机车辆的初始道路按容量加权抽取，目的节点均匀抽取，速度在配置范围内均匀抽取
func (ctx *Context) Init() error {
	ctx.clock.Init()
	cars := ctx.runtimeConfig.All.Cars
	for i, s := range cars.List {
		if _, err := car.Spawn(
			ctx.graph, ctx.rng, ctx.router,
			entity.RoadID(s.Road), s.Velocity, entity.NodeID(s.Destination),
		); err != nil {
			return fmt.Errorf("cars.list[%d]: %w", i, err)
		}
	}
	if cars.Random > 0 {
		roads := ctx.graph.Roads()
		nodes := ctx.graph.Nodes()
		if len(roads) == 0 {
			return fmt.Errorf("cannot spawn %d random cars on an empty map", cars.Random)
		}
		weight := lo.Map(roads, func(r *road.Road, _ int) float64 { return float64(r.Capacity()) })
		for i := 0; i < cars.Random; i++ {
			r := roads[ctx.rng.DiscreteDistribution(weight)]
			dest := nodes[ctx.rng.Intn(len(nodes))]
			velocity := ctx.rng.Uniform(cars.VelocityMin, cars.VelocityMax)
			if _, err := car.Spawn(ctx.graph, ctx.rng, ctx.router, r.ID(), velocity, dest.ID); err != nil {
				return err
			}
		}
	}
	ctx.graph.PrepareCars()
	log.Infof("Car: %v", ctx.graph.CarCount())
	ctx.publish()
	return nil
}

// RequestSpawn 请求生成车辆（线程安全）
// 功能：校验道路与目的节点后加入等待队列，在下一步的准备阶段生效
func (ctx *Context) RequestSpawn(req SpawnRequest) error {
	if req.Velocity <= 0 {
		return fmt.Errorf("velocity must be positive, got %v", req.Velocity)
	}
	if _, err := ctx.graph.Road(req.Road); err != nil {
		return err
	}
	if _, err := ctx.graph.Node(req.Destination); err != nil {
		return err
	}
	ctx.spawnRequestsMutex.Lock()
	defer ctx.spawnRequestsMutex.Unlock()
	ctx.spawnRequests = append(ctx.spawnRequests, req)
	return nil
}

// Snapshot 最近一次发布的快照（线程安全）
func (ctx *Context) Snapshot() *Snapshot {
	return ctx.snapshot.Load()
}

// Close 请求在当前步结束后停止
func (ctx *Context) Close() {
	ctx.closed.Store(true)
}
