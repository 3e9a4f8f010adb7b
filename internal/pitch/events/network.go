package events

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/matchvision/pitchtrack/internal/pitch/metrics"
)

const (
	maxKeyPlayers = 5
	maxTriangles  = 10
)

// AnalyzeNetwork builds a team's directed passing graph and derives
// volume, completion, key players, triangles and degree centrality.
func AnalyzeNetwork(passes []PassEvent, team metrics.Team) NetworkMetrics {
	var teamPasses []PassEvent
	for _, p := range passes {
		if p.Team == team {
			teamPasses = append(teamPasses, p)
		}
	}
	if len(teamPasses) == 0 {
		return NetworkMetrics{Team: team, Centrality: map[int]float64{}}
	}

	g := buildPassGraph(teamPasses)

	successful := 0
	var distSum float64
	for _, p := range teamPasses {
		if p.Success {
			successful++
		}
		distSum += p.Distance
	}
	total := len(teamPasses)

	return NetworkMetrics{
		Team:             team,
		TotalPasses:      total,
		SuccessfulPasses: successful,
		CompletionRate:   round3(float64(successful) / float64(total)),
		AvgPassDistance:  round2(distSum / float64(total)),
		KeyPassers:       topPlayers(teamPasses, func(p PassEvent) int { return p.PasserID }),
		KeyReceivers:     topPlayers(teamPasses, func(p PassEvent) int { return p.ReceiverID }),
		Triangles:        findTriangles(g),
		Centrality:       degreeCentrality(g),
	}
}

// buildPassGraph accumulates pass counts as edge weights in a directed
// graph keyed by player id.
func buildPassGraph(passes []PassEvent) *simple.WeightedDirectedGraph {
	g := simple.NewWeightedDirectedGraph(0, math.Inf(1))
	for _, p := range passes {
		from := int64(p.PasserID)
		to := int64(p.ReceiverID)
		if from == to {
			continue
		}
		w := 1.0
		if e := g.WeightedEdge(from, to); e != nil {
			w += e.Weight()
		}
		g.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(from),
			T: simple.Node(to),
			W: w,
		})
	}
	return g
}

// topPlayers ranks players by pass volume under the given role selector
// and keeps the top five. Ties break on ascending player id so the
// ranking is deterministic.
func topPlayers(passes []PassEvent, role func(PassEvent) int) []PlayerCount {
	counts := make(map[int]int)
	for _, p := range passes {
		counts[role(p)]++
	}
	ranked := make([]PlayerCount, 0, len(counts))
	for id, n := range counts {
		ranked = append(ranked, PlayerCount{PlayerID: id, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].PlayerID < ranked[j].PlayerID
	})
	if len(ranked) > maxKeyPlayers {
		ranked = ranked[:maxKeyPlayers]
	}
	return ranked
}

// findTriangles enumerates directed 3-cycles a→b→c→a over ascending
// player ids, capped at ten.
func findTriangles(g *simple.WeightedDirectedGraph) []Triangle {
	ids := sortedNodeIDs(g)

	var triangles []Triangle
	for i, a := range ids {
		for j := i + 1; j < len(ids); j++ {
			b := ids[j]
			for _, c := range ids[j+1:] {
				if g.HasEdgeFromTo(a, b) && g.HasEdgeFromTo(b, c) && g.HasEdgeFromTo(c, a) {
					triangles = append(triangles, Triangle{int(a), int(b), int(c)})
					if len(triangles) == maxTriangles {
						return triangles
					}
				}
			}
		}
	}
	return triangles
}

// degreeCentrality returns per-player degree (in plus out neighbour
// count) normalised by the maximum possible degree.
func degreeCentrality(g *simple.WeightedDirectedGraph) map[int]float64 {
	ids := sortedNodeIDs(g)
	centrality := make(map[int]float64, len(ids))

	maxDegree := len(ids) - 1
	if maxDegree < 1 {
		maxDegree = 1
	}
	for _, id := range ids {
		degree := countNodes(g.From(id)) + countNodes(g.To(id))
		centrality[int(id)] = round3(float64(degree) / float64(maxDegree))
	}
	return centrality
}

func sortedNodeIDs(g *simple.WeightedDirectedGraph) []int64 {
	var ids []int64
	nodes := g.Nodes()
	for nodes.Next() {
		ids = append(ids, nodes.Node().ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func countNodes(it graph.Nodes) int {
	n := 0
	for it.Next() {
		n++
	}
	return n
}
