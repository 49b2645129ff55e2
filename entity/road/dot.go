package road

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity"
)

// AdjacencyDOT 将邻接表导出为graphviz dot格式，用于调试
// 说明：节点按ID升序输出；没有出边的节点单独输出一行
func (g *RoadGraph) AdjacencyDOT() string {
	adj := g.Adjacency()
	ids := lo.Union(lo.Keys(adj), lo.Map(g.Nodes(), func(n Node, _ int) entity.NodeID { return n.ID }))
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var sb strings.Builder
	sb.WriteString("digraph G {\n")
	for _, from := range ids {
		edges := adj[from]
		if len(edges) == 0 {
			fmt.Fprintf(&sb, "    %d;\n", from)
			continue
		}
		for _, e := range edges {
			fmt.Fprintf(&sb, "    %d -> %d [label=\"road %d\"];\n", from, e.To, e.Road)
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}
