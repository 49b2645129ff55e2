package task_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/task"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/config"
)

const lineYAML = `nodes:
  - {id: 1, x: 0, y: 0}
  - {id: 2, x: 100, y: 0}
  - {id: 3, x: 100, y: 100}
roads:
  - {id: 10, from: 1, to: 2, capacity: 10, one_way: true}
  - {id: 11, from: 2, to: 3, capacity: 10, one_way: true}
`

func lineConfig(t *testing.T, total int32) config.Config {
	path := filepath.Join(t.TempDir(), "line.yml")
	require.NoError(t, os.WriteFile(path, []byte(lineYAML), 0o644))
	return config.Config{
		Input:   config.Input{Map: config.InputPath{File: path}},
		Control: config.Control{Step: config.ControlStep{Total: total, Interval: 1}, Seed: 7},
		Cars: config.Cars{
			List: []config.CarSpawn{{Road: 10, Velocity: 10, Destination: 3}},
		},
	}
}

func TestRunArrives(t *testing.T) {
	ctx, err := task.NewContext(lineConfig(t, 30), "")
	require.NoError(t, err)
	require.NoError(t, ctx.Init())

	s := ctx.Snapshot()
	require.NotNil(t, s)
	assert.Equal(t, int32(0), s.Step)
	require.Len(t, s.Cars, 1)
	assert.InDelta(t, 1.0, s.Cars[0].X, 1e-9)
	assert.Equal(t, entity.RoadID(10), s.Cars[0].Road)

	ctx.Run(context.Background())

	s = ctx.Snapshot()
	assert.Equal(t, int32(29), s.Step)
	assert.True(t, ctx.Clock().Finished())
	assert.Equal(t, 1, s.Runtime.Cars)
	assert.Equal(t, 1, s.Runtime.ArrivedCars)
	assert.InDelta(t, 199.0, s.Runtime.TravelDistance, 1e-9)

	c := s.Cars[0]
	assert.True(t, c.Arrived)
	assert.Equal(t, entity.RoadID(11), c.Road)
	assert.InDelta(t, 100.0, c.X, 1e-9)
	assert.InDelta(t, 100.0, c.Y, 1e-9)
	assert.Len(t, c.Color, 7)

	densities := map[entity.RoadID]float64{}
	for _, r := range s.Roads {
		densities[r.ID] = r.Density
	}
	assert.Equal(t, map[entity.RoadID]float64{10: 0, 11: 0.1}, densities)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, err := task.NewContext(lineConfig(t, 30), "")
	require.NoError(t, err)
	require.NoError(t, ctx.Init())

	c, cancel := context.WithCancel(context.Background())
	cancel()
	ctx.Run(c)
	assert.Equal(t, int32(0), ctx.Snapshot().Step)
	assert.False(t, ctx.Clock().Finished())

	ctx.Close()
	ctx.Run(context.Background())
	assert.Equal(t, int32(0), ctx.Snapshot().Step)
}

func TestRequestSpawn(t *testing.T) {
	ctx, err := task.NewContext(lineConfig(t, 1), "")
	require.NoError(t, err)
	require.NoError(t, ctx.Init())

	assert.ErrorIs(t, ctx.RequestSpawn(task.SpawnRequest{Road: 99, Velocity: 5, Destination: 3}), entity.ErrNotFound)
	assert.ErrorIs(t, ctx.RequestSpawn(task.SpawnRequest{Road: 10, Velocity: 5, Destination: 99}), entity.ErrNotFound)
	assert.Error(t, ctx.RequestSpawn(task.SpawnRequest{Road: 10, Velocity: 0, Destination: 3}))
	require.NoError(t, ctx.RequestSpawn(task.SpawnRequest{Road: 11, Velocity: 5, Destination: 3}))

	// 请求在下一步的准备阶段生效
	assert.Equal(t, 1, ctx.Graph().CarCount())
	ctx.Run(context.Background())
	assert.Equal(t, 2, ctx.Graph().CarCount())
	assert.Len(t, ctx.Snapshot().Cars, 2)

	found, missing := ctx.Snapshot().FindCars([]entity.CarID{2, 5})
	require.Len(t, found, 1)
	assert.Equal(t, entity.RoadID(11), found[0].Road)
	assert.Equal(t, []entity.CarID{5}, missing)
}

func TestInitErrors(t *testing.T) {
	c := lineConfig(t, 10)
	c.Cars.List[0].Road = 42
	ctx, err := task.NewContext(c, "")
	require.NoError(t, err)
	assert.ErrorIs(t, ctx.Init(), entity.ErrNotFound)

	c = lineConfig(t, 0)
	_, err = task.NewContext(c, "")
	assert.Error(t, err)

	c = lineConfig(t, 10)
	c.Input.Map.File = filepath.Join(t.TempDir(), "missing.yml")
	_, err = task.NewContext(c, "")
	assert.Error(t, err)
}

func TestRunRandomMap(t *testing.T) {
	c := config.Config{
		Input: config.Input{Map: config.InputPath{Random: &config.RandomMap{
			Nodes: 20, Roads: 40, Width: 500, Height: 500, Bend: 0.2,
		}}},
		Control: config.Control{
			Step:        config.ControlStep{Total: 60, Interval: 0.5},
			Seed:        3,
			Workers:     4,
			OneWayRatio: 0.5,
		},
		Cars: config.Cars{Random: 30},
	}
	ctx, err := task.NewContext(c, "")
	require.NoError(t, err)
	require.NoError(t, ctx.Init())
	ctx.Run(context.Background())

	s := ctx.Snapshot()
	assert.Equal(t, int32(59), s.Step)
	assert.InDelta(t, 29.5, s.T, 1e-9)
	assert.Len(t, s.Cars, 30)
	assert.Equal(t, 30, s.Runtime.Cars)
	// 每辆车恰好占用一条道路
	assert.Equal(t, int32(30), ctx.Graph().OccupancyTotal())
	for _, car := range s.Cars {
		assert.GreaterOrEqual(t, car.Velocity, 5.0)
		assert.Less(t, car.Velocity, 15.0)
		r, err := ctx.Graph().Road(car.Road)
		require.NoError(t, err)
		assert.True(t, r.HasOccupant(car.ID))
	}
}
