package input_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity/route"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/config"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/input"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/randengine"
)

const mapYAML = `
nodes:
  - {id: 1, x: 0, y: 0}
  - {id: 2, x: 100, y: 0}
  - {id: 3, x: 100, y: 100}
roads:
  - {id: 10, from: 1, to: 2, capacity: 5, one_way: true}
  - {id: 11, from: 2, to: 3, capacity: 5, speed_limit: 20, bend: 0.2, segments: 6}
  - {id: 12, from: 3, to: 1, capacity: 5, one_way: false}
`

func writeMap(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileAndBuild(t *testing.T) {
	path := writeMap(t, t.TempDir(), "map.yml", mapYAML)
	rng := randengine.New(1)
	m, err := input.Init(config.Input{Map: config.InputPath{File: path}}, "", rng)
	require.NoError(t, err)
	require.Len(t, m.Nodes, 3)
	require.Len(t, m.Roads, 3)

	// 单行比例为1时未指定的道路全部为单行
	g, err := input.BuildGraph(m, rng, 1)
	require.NoError(t, err)
	r10, err := g.Road(10)
	require.NoError(t, err)
	assert.True(t, r10.OneWay())
	r11, _ := g.Road(11)
	assert.True(t, r11.OneWay())
	assert.Equal(t, 20.0, r11.SpeedLimit())
	assert.Len(t, r11.Points(), 7)
	r12, _ := g.Road(12)
	assert.False(t, r12.OneWay())
	assert.Equal(t, 15.0, r12.SpeedLimit())
	assert.Len(t, r12.Points(), 2)

	assert.Equal(t, []entity.RoadID{10, 11}, route.NewAStar().Route(g, 1, 3))
}

func TestBuildErrors(t *testing.T) {
	rng := randengine.New(1)
	m := &input.MapData{
		Nodes: []input.NodeData{{ID: 1}, {ID: 2, X: 10}},
		Roads: []input.RoadData{{ID: 1, From: 1, To: 3, Capacity: 5}},
	}
	_, err := input.BuildGraph(m, rng, 0)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	m.Roads[0].To = 2
	m.Roads[0].Capacity = 0
	_, err = input.BuildGraph(m, rng, 0)
	assert.ErrorIs(t, err, entity.ErrInvalidRoad)

	m.Roads[0].Capacity = 5
	m.Roads = append(m.Roads, m.Roads[0])
	_, err = input.BuildGraph(m, rng, 0)
	assert.ErrorIs(t, err, entity.ErrDuplicateID)
}

func TestLoadFileStrict(t *testing.T) {
	path := writeMap(t, t.TempDir(), "bad.yml", "nodes: []\nlanes: []\n")
	_, err := input.LoadFile(path)
	assert.Error(t, err)
}

func TestInitFromCache(t *testing.T) {
	dir := t.TempDir()
	writeMap(t, dir, "city.net.yaml", mapYAML)
	c := config.Input{
		URI: "mongodb://127.0.0.1:1",
		Map: config.InputPath{DB: "city", Col: "net"},
	}
	m, err := input.Init(c, dir, randengine.New(1))
	require.NoError(t, err)
	assert.Len(t, m.Roads, 3)
}

func TestGenerateStronglyConnected(t *testing.T) {
	p := config.RandomMap{Nodes: 12, Roads: 30, Width: 500, Height: 300, Capacity: 8, Bend: .3}
	m := input.Generate(randengine.New(5), p)
	assert.Len(t, m.Nodes, 12)
	assert.Len(t, m.Roads, 30)
	seen := make(map[[2]int32]bool)
	for _, r := range m.Roads {
		assert.NotEqual(t, r.From, r.To)
		key := [2]int32{r.From, r.To}
		assert.False(t, seen[key], "duplicated pair %v", key)
		seen[key] = true
		assert.Nil(t, r.OneWay)
	}
	for _, n := range m.Nodes {
		assert.True(t, n.X >= 0 && n.X <= p.Width)
		assert.True(t, n.Y >= 0 && n.Y <= p.Height)
	}

	g, err := input.BuildGraph(m, randengine.New(5), .5)
	require.NoError(t, err)
	router := route.NewAStar()
	for _, s := range g.Nodes() {
		for _, e := range g.Nodes() {
			if s.ID != e.ID {
				assert.NotEmpty(t, router.Route(g, s.ID, e.ID), "%v -> %v", s.ID, e.ID)
			}
		}
	}

	// 相同种子生成相同路网
	assert.Equal(t, m, input.Generate(randengine.New(5), p))
	// 道路数超过节点对数时截断
	small := input.Generate(randengine.New(1), config.RandomMap{Nodes: 3, Roads: 100, Width: 10, Height: 10, Capacity: 1})
	assert.Len(t, small.Roads, 6)
}
