package network

import (
	"context"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"

	"bizinsights/pkg/contracts/domain"
)

// Node name prefixes; they keep a city and a company with the same name apart.
const (
	CityPrefix    = "city::"
	CompanyPrefix = "co::"
)

// Graph is the undirected bipartite company/city graph of a view.
// Companies sharing a name collapse into one node. Node IDs follow insertion
// order, which is also the tie order of rankings.
type Graph struct {
	g     *simple.UndirectedGraph
	nodes []node
	ids   map[string]int64
	edges map[[2]int64]struct{}
}

type node struct {
	name  string
	kind  domain.NodeKind
	label string
}

// BuildGraph links every record's company node to its city node.
func BuildGraph(view []domain.Company) *Graph {
	gr := &Graph{
		g:     simple.NewUndirectedGraph(),
		ids:   make(map[string]int64),
		edges: make(map[[2]int64]struct{}),
	}
	for _, c := range view {
		city := gr.addNode(CityPrefix+c.City, domain.NodeKindCity, c.City)
		co := gr.addNode(CompanyPrefix+c.Name, domain.NodeKindCompany, c.Name)
		gr.addEdge(city, co)
	}
	return gr
}

func (gr *Graph) addNode(name string, kind domain.NodeKind, label string) int64 {
	if id, ok := gr.ids[name]; ok {
		return id
	}
	id := int64(len(gr.nodes))
	gr.ids[name] = id
	gr.nodes = append(gr.nodes, node{name: name, kind: kind, label: label})
	gr.g.AddNode(simple.Node(id))
	return id
}

func (gr *Graph) addEdge(a, b int64) {
	key := [2]int64{min(a, b), max(a, b)}
	if _, ok := gr.edges[key]; ok {
		return
	}
	gr.edges[key] = struct{}{}
	gr.g.SetEdge(simple.Edge{F: simple.Node(a), T: simple.Node(b)})
}

// Nodes returns the node count.
func (gr *Graph) Nodes() int { return len(gr.nodes) }

// Edges returns the distinct edge count.
func (gr *Graph) Edges() int { return len(gr.edges) }

// Betweenness computes normalized betweenness centrality for every node, in
// insertion order. Values are the fraction of shortest paths between other
// node pairs passing through a node, scaled by 1/((n-1)(n-2)); graphs with two
// or fewer nodes are left unscaled.
//
// The computation runs on its own goroutine so a cancelled ctx returns
// immediately with ctx.Err(). The goroutine itself runs to completion; use an
// Analyzer to bound how many of them can pile up.
func (gr *Graph) Betweenness(ctx context.Context) ([]domain.NodeCentrality, error) {
	return gr.betweenness(ctx, func() {})
}

// betweenness calls release once the gonum computation has returned, whether
// or not the caller is still waiting for it.
func (gr *Graph) betweenness(ctx context.Context, release func()) ([]domain.NodeCentrality, error) {
	if err := ctx.Err(); err != nil {
		release()
		return nil, err
	}

	done := make(chan map[int64]float64, 1)
	go func() {
		defer release()
		done <- network.Betweenness(gr.g)
	}()

	var raw map[int64]float64
	select {
	case raw = <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	n := float64(len(gr.nodes))
	scale := 1.0
	if len(gr.nodes) > 2 {
		scale = 1 / ((n - 1) * (n - 2))
	}

	out := make([]domain.NodeCentrality, len(gr.nodes))
	for id, nd := range gr.nodes {
		out[id] = domain.NodeCentrality{
			Node:       nd.name,
			Kind:       nd.kind,
			Label:      nd.label,
			Centrality: raw[int64(id)] * scale,
		}
	}
	return out, nil
}

// TopN ranks the nodes of the view's graph by centrality and keeps the first n.
// Ties keep insertion order. An empty view yields an empty report with Empty set.
func TopN(ctx context.Context, view []domain.Company, n int) (domain.NetworkReport, error) {
	if len(view) == 0 {
		return emptyReport(), nil
	}
	return topN(ctx, view, n, func() {})
}

func emptyReport() domain.NetworkReport {
	return domain.NetworkReport{Top: []domain.NodeCentrality{}, Empty: true}
}

func topN(ctx context.Context, view []domain.Company, n int, release func()) (domain.NetworkReport, error) {
	gr := BuildGraph(view)
	scores, err := gr.betweenness(ctx, release)
	if err != nil {
		return domain.NetworkReport{}, err
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Centrality > scores[j].Centrality
	})
	if n >= 0 && len(scores) > n {
		scores = scores[:n]
	}

	return domain.NetworkReport{
		Nodes: gr.Nodes(),
		Edges: gr.Edges(),
		Top:   scores,
	}, nil
}

// Analyzer bounds the number of centrality computations in flight. A slot is
// held until gonum returns, so requests that time out still count against the
// limit until their work actually stops.
type Analyzer struct {
	slots   *semaphore.Weighted
	running atomic.Int64
}

// NewAnalyzer allows up to maxConcurrent computations at once; values below
// one are raised to one.
func NewAnalyzer(maxConcurrent int64) *Analyzer {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Analyzer{slots: semaphore.NewWeighted(maxConcurrent)}
}

// TopN is the package TopN behind a slot. Waiting for a slot honours ctx, so a
// caller whose deadline passes while queued gets ctx.Err() without starting any
// work.
func (a *Analyzer) TopN(ctx context.Context, view []domain.Company, n int) (domain.NetworkReport, error) {
	if len(view) == 0 {
		return emptyReport(), nil
	}
	if err := a.slots.Acquire(ctx, 1); err != nil {
		return domain.NetworkReport{}, err
	}
	a.running.Add(1)
	return topN(ctx, view, n, func() {
		a.running.Add(-1)
		a.slots.Release(1)
	})
}

// Running reports how many slots are held, including computations whose
// callers have already given up.
func (a *Analyzer) Running() int64 { return a.running.Load() }
