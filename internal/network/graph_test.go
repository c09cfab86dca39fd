package network

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizinsights/pkg/contracts/domain"
)

func co(name, city string) domain.Company {
	return domain.Company{Name: name, City: city}
}

func TestBuildGraph(t *testing.T) {
	view := []domain.Company{
		co("Acme", "Pune"),
		co("Acme", "Pune"),
		co("Acme", "Delhi"),
		co("Pune", "Pune"),
	}

	g := BuildGraph(view)
	// city::Pune, co::Acme, city::Delhi, co::Pune
	assert.Equal(t, 4, g.Nodes())
	assert.Equal(t, 3, g.Edges())
}

func TestBetweenness_Star(t *testing.T) {
	view := []domain.Company{co("A", "Pune"), co("B", "Pune"), co("C", "Pune")}

	scores, err := BuildGraph(view).Betweenness(context.Background())
	require.NoError(t, err)
	require.Len(t, scores, 4)

	assert.Equal(t, "city::Pune", scores[0].Node)
	assert.Equal(t, domain.NodeKindCity, scores[0].Kind)
	assert.InDelta(t, 1.0, scores[0].Centrality, 1e-9)
	for _, s := range scores[1:] {
		assert.InDelta(t, 0.0, s.Centrality, 1e-9)
		assert.Equal(t, domain.NodeKindCompany, s.Kind)
	}
}

func TestBetweenness_Path(t *testing.T) {
	// city::X - co::A - city::Y - co::B
	view := []domain.Company{co("A", "X"), co("A", "Y"), co("B", "Y")}

	scores, err := BuildGraph(view).Betweenness(context.Background())
	require.NoError(t, err)

	byNode := make(map[string]float64)
	for _, s := range scores {
		byNode[s.Node] = s.Centrality
	}
	// Each inner node of a 4-path lies on 2 of the 3 pairs of the other nodes.
	assert.InDelta(t, 2.0/3.0, byNode["co::A"], 1e-9)
	assert.InDelta(t, 2.0/3.0, byNode["city::Y"], 1e-9)
	assert.InDelta(t, 0.0, byNode["city::X"], 1e-9)
	assert.InDelta(t, 0.0, byNode["co::B"], 1e-9)
}

func TestBetweenness_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildGraph([]domain.Company{co("A", "X")}).Betweenness(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTopN(t *testing.T) {
	view := []domain.Company{
		co("A", "Pune"), co("B", "Pune"), co("C", "Pune"),
		co("A", "Delhi"),
	}

	report, err := TopN(context.Background(), view, 2)
	require.NoError(t, err)

	assert.False(t, report.Empty)
	assert.Equal(t, 5, report.Nodes)
	assert.Equal(t, 4, report.Edges)
	require.Len(t, report.Top, 2)
	assert.Equal(t, "city::Pune", report.Top[0].Node)
	assert.Equal(t, "co::A", report.Top[1].Node)
	assert.GreaterOrEqual(t, report.Top[0].Centrality, report.Top[1].Centrality)
}

func TestTopN_TiesKeepInsertionOrder(t *testing.T) {
	view := []domain.Company{co("A", "X"), co("B", "Y")}

	report, err := TopN(context.Background(), view, 10)
	require.NoError(t, err)

	var names []string
	for _, n := range report.Top {
		names = append(names, n.Node)
	}
	assert.Equal(t, []string{"city::X", "co::A", "city::Y", "co::B"}, names)
}

func TestTopN_EmptyView(t *testing.T) {
	report, err := TopN(context.Background(), nil, 10)
	require.NoError(t, err)

	assert.True(t, report.Empty)
	assert.Empty(t, report.Top)
	assert.Zero(t, report.Nodes)
}

func wideView(companies, cities int) []domain.Company {
	view := make([]domain.Company, 0, companies)
	for i := 0; i < companies; i++ {
		view = append(view, co(fmt.Sprintf("co-%d", i), fmt.Sprintf("city-%d", i%cities)))
		view = append(view, co(fmt.Sprintf("co-%d", i), fmt.Sprintf("city-%d", (i+1)%cities)))
	}
	return view
}

func TestAnalyzer_TopN(t *testing.T) {
	a := NewAnalyzer(1)
	view := []domain.Company{co("A", "Pune"), co("B", "Pune"), co("B", "Delhi")}

	want, err := TopN(context.Background(), view, 3)
	require.NoError(t, err)
	got, err := a.TopN(context.Background(), view, 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.Eventually(t, func() bool { return a.Running() == 0 }, time.Second, 5*time.Millisecond)

	empty, err := a.TopN(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.True(t, empty.Empty)
}

func TestAnalyzer_QueuedCallerHonoursDeadline(t *testing.T) {
	a := NewAnalyzer(1)
	require.NoError(t, a.slots.Acquire(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := a.TopN(ctx, []domain.Company{co("A", "Pune")}, 3)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(0), a.Running(), "no work starts without a slot")

	a.slots.Release(1)
	_, err = a.TopN(context.Background(), []domain.Company{co("A", "Pune")}, 3)
	assert.NoError(t, err)
}

func TestAnalyzer_BoundsAbandonedComputations(t *testing.T) {
	const limit = 2
	a := NewAnalyzer(limit)
	view := wideView(1500, 300)

	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		_, _ = a.TopN(ctx, view, 5)
		cancel()
		assert.LessOrEqual(t, a.Running(), int64(limit))
	}

	assert.Eventually(t, func() bool { return a.Running() == 0 }, 30*time.Second, 10*time.Millisecond)
}

func TestNewAnalyzer_RaisesLimitToOne(t *testing.T) {
	a := NewAnalyzer(0)
	require.True(t, a.slots.TryAcquire(1))
	assert.False(t, a.slots.TryAcquire(1))
	a.slots.Release(1)
}
