package car_test

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity/car"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity/road"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity/route"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/parallel"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/randengine"
)

// stubRouter 返回固定路径并记录调用次数
type stubRouter struct {
	path  []entity.RoadID
	calls atomic.Int32
}

func (s *stubRouter) Route(*road.RoadGraph, entity.NodeID, entity.NodeID) []entity.RoadID {
	s.calls.Add(1)
	return append([]entity.RoadID{}, s.path...)
}

var (
	nA = road.NewNode(1, orb.Point{0, 0})
	nB = road.NewNode(2, orb.Point{10, 0})
	nC = road.NewNode(3, orb.Point{20, 0})
	nD = road.NewNode(4, orb.Point{50, 50})
	nE = road.NewNode(5, orb.Point{60, 50})
	nK = road.NewNode(6, orb.Point{10, 10})
)

func newRoad(t *testing.T, id entity.RoadID, from, to road.Node) *road.Road {
	t.Helper()
	r, err := road.NewRoad(id, from, to, 4, 10, false)
	require.NoError(t, err)
	return r
}

func newGraph(t *testing.T, roads ...*road.Road) *road.RoadGraph {
	t.Helper()
	g, err := road.NewRoadGraph(roads, nil)
	require.NoError(t, err)
	return g
}

// kinkedRoad 折线 (0,0)->(10,0)->(10,10)
func kinkedRoad(t *testing.T) *road.Road {
	t.Helper()
	r, err := road.NewRoadWithPoints(1, nA, nK, 4, 10, false, orb.LineString{{0, 0}, {10, 0}, {10, 10}})
	require.NoError(t, err)
	return r
}

func TestMoveOnRoadSegments(t *testing.T) {
	r := kinkedRoad(t)
	c := car.New(1, r, 5, nK.ID, &stubRouter{})
	assert.InDelta(t, 0.0, c.Heading(), 1e-12)

	assert.False(t, c.MoveOnRoad(1, r))
	assert.Equal(t, orb.Point{5, 0}, c.Position())
	assert.Equal(t, 0, c.SegmentIndex())

	assert.False(t, c.MoveOnRoad(1, r))
	assert.Equal(t, orb.Point{10, 0}, c.Position())
	assert.Equal(t, 1, c.SegmentIndex())
	assert.InDelta(t, math.Pi/2, c.Heading(), 1e-12)

	assert.False(t, c.MoveOnRoad(1, r))
	assert.InDelta(t, 10.0, c.Position()[0], 1e-9)
	assert.InDelta(t, 5.0, c.Position()[1], 1e-9)
	assert.Equal(t, 1, c.SegmentIndex())

	assert.True(t, c.MoveOnRoad(1, r))
	assert.Equal(t, orb.Point{10, 10}, c.Position())
	assert.Equal(t, 2, c.SegmentIndex())

	// 走完后保持完成状态
	assert.True(t, c.MoveOnRoad(1, r))
	assert.Equal(t, orb.Point{10, 10}, c.Position())
	assert.InDelta(t, 20.0, c.Travelled(), 1e-9)
}

func TestMoveOnRoadIndexOutOfRange(t *testing.T) {
	r := kinkedRoad(t)
	c := car.New(1, r, 100, nK.ID, &stubRouter{})
	c.MoveOnRoad(1, r)
	c.MoveOnRoad(1, r)
	require.Equal(t, 2, c.SegmentIndex())

	short := newRoad(t, 2, nA, nB)
	assert.Panics(t, func() { c.MoveOnRoad(1, short) })
}

func TestAdvanceIdempotentArrival(t *testing.T) {
	r := kinkedRoad(t)
	g := newGraph(t, r)
	router := &stubRouter{}
	c := car.New(g.NextCarID(), r, 5, nK.ID, router)
	require.NoError(t, g.AddCar(c))

	for i := 0; i < 4; i++ {
		c.Advance(1, g)
	}
	assert.True(t, c.Arrived())
	assert.Equal(t, orb.Point{10, 10}, c.Position())

	for i := 0; i < 10; i++ {
		c.Advance(1, g)
		assert.Equal(t, orb.Point{10, 10}, c.Position())
		assert.Equal(t, r.ID(), c.CurrentRoad())
	}
	assert.Equal(t, int32(0), router.calls.Load())
	assert.True(t, r.HasOccupant(c.ID()))
}

func TestAdvanceTransition(t *testing.T) {
	r1, r2 := newRoad(t, 1, nA, nB), newRoad(t, 2, nB, nC)
	g := newGraph(t, r1, r2)
	c := car.New(g.NextCarID(), r1, 5, nC.ID, route.NewAStar())
	require.NoError(t, g.AddCar(c))
	assert.InDelta(t, 0.25, r1.TrafficDensity(), 1e-12)

	c.Advance(1, g)
	assert.Equal(t, orb.Point{5, 0}, c.Position())
	assert.Empty(t, c.Path())

	c.Advance(1, g)
	assert.Equal(t, entity.RoadID(2), c.CurrentRoad())
	assert.Equal(t, orb.Point{10, 0}, c.Position())
	assert.Equal(t, 0, c.SegmentIndex())
	assert.Empty(t, c.Path())
	assert.False(t, r1.HasOccupant(c.ID()))
	assert.True(t, r2.HasOccupant(c.ID()))
	assert.InDelta(t, 0.0, r1.TrafficDensity(), 1e-12)
	assert.InDelta(t, 0.25, r2.TrafficDensity(), 1e-12)

	c.Advance(1, g)
	c.Advance(1, g)
	assert.True(t, c.Arrived())
	assert.Equal(t, orb.Point{20, 0}, c.Position())
}

func TestAdvanceStripsCurrentRoad(t *testing.T) {
	r1, r2 := newRoad(t, 1, nA, nB), newRoad(t, 2, nB, nC)
	g := newGraph(t, r1, r2)
	router := &stubRouter{path: []entity.RoadID{1, 2}}
	c := car.New(g.NextCarID(), r1, 10, nC.ID, router)
	require.NoError(t, g.AddCar(c))

	c.SetPath([]entity.RoadID{1, 2})
	assert.Equal(t, []entity.RoadID{2}, c.Path())

	c.Advance(1, g)
	assert.Equal(t, entity.RoadID(2), c.CurrentRoad())
	assert.NotContains(t, c.Path(), c.CurrentRoad())
	assert.Equal(t, int32(0), router.calls.Load())
}

func TestAdvanceRoutingCorruption(t *testing.T) {
	r1, r2 := newRoad(t, 1, nA, nB), newRoad(t, 2, nD, nE)
	g := newGraph(t, r1, r2)
	router := &stubRouter{path: []entity.RoadID{2}}
	c := car.New(g.NextCarID(), r1, 10, nE.ID, router)
	require.NoError(t, g.AddCar(c))

	c.Advance(1, g)
	assert.Equal(t, entity.RoadID(1), c.CurrentRoad())
	assert.Equal(t, orb.Point{10, 0}, c.Position())
	assert.Empty(t, c.Path())
	assert.True(t, r1.HasOccupant(c.ID()))
	assert.False(t, r2.HasOccupant(c.ID()))
	assert.False(t, c.Arrived())

	// 下一步重新规划，仍停在原地
	c.Advance(1, g)
	assert.Equal(t, int32(2), router.calls.Load())
	assert.Equal(t, orb.Point{10, 0}, c.Position())
}

func TestAdvanceNoPathRetries(t *testing.T) {
	r1 := newRoad(t, 1, nA, nB)
	g := newGraph(t, r1, newRoad(t, 2, nD, nE))
	router := &stubRouter{}
	c := car.New(g.NextCarID(), r1, 5, nE.ID, router)
	require.NoError(t, g.AddCar(c))

	// 未走完道路时不规划
	c.Advance(1, g)
	assert.Equal(t, int32(0), router.calls.Load())

	for i := 0; i < 3; i++ {
		c.Advance(1, g)
	}
	assert.Equal(t, int32(3), router.calls.Load())
	assert.Equal(t, orb.Point{10, 0}, c.Position())
	assert.False(t, c.Arrived())
}

func TestSpawn(t *testing.T) {
	short, err := road.NewRoad(2, nB, road.NewNode(7, orb.Point{11, 0}), 4, 10, false)
	require.NoError(t, err)
	r1 := newRoad(t, 1, nA, nB)
	g := newGraph(t, r1, short)
	rng := randengine.New(7)

	id, err := car.Spawn(g, rng, route.NewAStar(), 1, 5, nB.ID)
	require.NoError(t, err)
	v, err := g.Car(id)
	require.NoError(t, err)
	c := v.(*car.Car)
	assert.Equal(t, orb.Point{1, 0}, c.Position())
	assert.Equal(t, uint8(255), c.Color().A)
	assert.Equal(t, 5.0, c.Width())
	assert.Equal(t, 15.0, c.Height())
	assert.Equal(t, orb.Point{2.5, 7.5}, c.Center())
	assert.True(t, r1.HasOccupant(id))

	// 第一段长度为1时只前移一半
	id2, err := car.Spawn(g, rng, route.NewAStar(), 2, 5, 7)
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)
	v2, _ := g.Car(id2)
	assert.Equal(t, orb.Point{10.5, 0}, v2.Position())

	_, err = car.Spawn(g, rng, route.NewAStar(), 42, 5, nB.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)
	_, err = car.Spawn(g, rng, route.NewAStar(), 1, 5, 42)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	assert.Equal(t, 2, g.CarCount())
	assert.Empty(t, g.ActiveCars())
	g.PrepareCars()
	assert.Len(t, g.ActiveCars(), 2)

	require.NoError(t, g.RemoveCar(id))
	assert.False(t, r1.HasOccupant(id))
	assert.ErrorIs(t, g.RemoveCar(id), entity.ErrNotFound)
	g.PrepareCars()
	assert.Len(t, g.ActiveCars(), 1)
}

func TestRotateCar(t *testing.T) {
	c := car.New(1, kinkedRoad(t), 5, nK.ID, &stubRouter{})
	c.RotateCar(math.Pi / 4)
	c.RotateCar(math.Pi / 4)
	assert.InDelta(t, math.Pi/2, c.Heading(), 1e-12)
}

// ringGraph 正方形环路，每条边双向
func ringGraph(t *testing.T) *road.RoadGraph {
	t.Helper()
	nodes := []road.Node{
		road.NewNode(0, orb.Point{0, 0}),
		road.NewNode(1, orb.Point{40, 0}),
		road.NewNode(2, orb.Point{40, 40}),
		road.NewNode(3, orb.Point{0, 40}),
	}
	roads := make([]*road.Road, 0, 8)
	for i := range nodes {
		a, b := nodes[i], nodes[(i+1)%len(nodes)]
		fwd, err := road.NewCurvedRoad(entity.RoadID(2*i), a, b, 20, 10, false, .2, 6)
		require.NoError(t, err)
		bwd, err := road.NewCurvedRoad(entity.RoadID(2*i+1), b, a, 20, 10, false, .2, 6)
		require.NoError(t, err)
		roads = append(roads, fwd, bwd)
	}
	g, err := road.NewRoadGraph(roads, nodes)
	require.NoError(t, err)
	return g
}

func TestConcurrentAdvanceNoDrift(t *testing.T) {
	g := ringGraph(t)
	rng := randengine.New(11)
	router := route.NewAStar()
	const cars = 200
	for i := 0; i < cars; i++ {
		_, err := car.Spawn(g, rng, router,
			entity.RoadID(rng.IntnSafe(8)), rng.Uniform(3, 9), entity.NodeID(rng.IntnSafe(4)))
		require.NoError(t, err)
	}
	g.PrepareCars()

	for step := 0; step < 60; step++ {
		parallel.GoFor(g.ActiveCars(), func(v road.Vehicle) { v.Advance(.5, g) })

		assert.Equal(t, int32(cars), g.OccupancyTotal())
		for _, r := range g.Roads() {
			assert.Len(t, r.Occupants(), int(r.VehicleCount()))
			assert.InDelta(t, float64(r.VehicleCount())/float64(r.Capacity()), r.TrafficDensity(), 1e-12)
		}
		for _, v := range g.Cars() {
			r, err := g.Road(v.CurrentRoad())
			require.NoError(t, err)
			assert.True(t, r.HasOccupant(v.ID()))
			c := v.(*car.Car)
			assert.NotContains(t, c.Path()[:min(1, len(c.Path()))], c.CurrentRoad())
		}
	}
}
