package topology

import (
	"testing"

	"github.com/gridscope/gridscope-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func busType(t models.BusType) *models.BusType { return &t }

// testSnapshot builds a small grid: a 132kV slack bus feeding an 11kV bus
// through a transformer, with a generator and a load on the 11kV side and
// one isolated element.
func testSnapshot() *Snapshot {
	return &Snapshot{
		Elements: []models.GridElement{
			{ID: "b1", Name: "Main Bus", ElementType: models.ElementBus, Status: models.StatusActive, VoltageLevel: 132, BusType: busType(models.BusSlack)},
			{ID: "b2", Name: "Dist Bus", ElementType: models.ElementBus, Status: models.StatusActive, VoltageLevel: 11, BusType: busType(models.BusPQ)},
			{ID: "t1", Name: "TR-1", ElementType: models.ElementTransformer, Status: models.StatusActive, VoltageLevel: 132},
			{ID: "g1", Name: "Gen-1", ElementType: models.ElementGenerator, Status: models.StatusActive, VoltageLevel: 11},
			{ID: "l1", Name: "Load-1", ElementType: models.ElementLoad, Status: models.StatusActive, VoltageLevel: 11},
			{ID: "x1", Name: "Spare", ElementType: models.ElementLoad, Status: models.StatusInactive, VoltageLevel: 11},
		},
		Connections: []models.Connection{
			{ID: "c1", FromElementID: "b1", ToElementID: "t1", ConnectionType: "electrical", IsConnected: true},
			{ID: "c2", FromElementID: "t1", ToElementID: "b2", ConnectionType: "electrical", IsConnected: true},
			{ID: "c3", FromElementID: "b2", ToElementID: "g1", ConnectionType: "electrical", IsConnected: true},
			{ID: "c4", FromElementID: "b2", ToElementID: "l1", ConnectionType: "electrical", IsConnected: false},
		},
	}
}

func TestBuildGraphView(t *testing.T) {
	view := BuildGraphView(testSnapshot())

	assert.Len(t, view.Nodes, 6)
	assert.Len(t, view.Edges, 4)
	assert.Equal(t, 6, view.Metadata.ElementCount)
	assert.Equal(t, 4, view.Metadata.ConnectionCount)
	assert.Equal(t, []float64{11, 132}, view.Metadata.VoltageLevels)
	assert.Equal(t, []string{"bus", "generator", "load", "transformer"}, view.Metadata.ElementTypes)
}

func TestBuildGraphViewDropsEdgesWithMissingEndpoints(t *testing.T) {
	s := testSnapshot()
	// Simulate a soft-deleted endpoint filtered out of the snapshot.
	s.Elements = s.Elements[:3]

	view := BuildGraphView(s)
	assert.Len(t, view.Edges, 2)
}

func TestBuildAdjacencyViewIsSymmetric(t *testing.T) {
	view := BuildAdjacencyView(testSnapshot())

	require.Len(t, view.Entries, 6)

	for _, entry := range view.Entries {
		for _, link := range entry.Connections {
			neighbor, ok := view.Entries[link.NeighborID]
			require.True(t, ok)

			found := false
			for _, back := range neighbor.Connections {
				if back.ConnectionID == link.ConnectionID && back.NeighborID == entry.Element.ID {
					found = true
					break
				}
			}
			assert.True(t, found, "edge %s must appear under both endpoints", link.ConnectionID)
		}
	}

	// Open edges still appear in the adjacency view, flagged as such.
	assert.Len(t, view.Entries["l1"].Connections, 1)
	assert.False(t, view.Entries["l1"].Connections[0].Connected)
}

func TestBuildMatrixViewIsSymmetric(t *testing.T) {
	view := BuildMatrixView(testSnapshot())

	require.Len(t, view.ElementIDs, 6)
	require.Len(t, view.Matrix, 6)

	idx := make(map[string]int)
	for i, id := range view.ElementIDs {
		idx[id] = i
	}

	for i := range view.Matrix {
		require.Len(t, view.Matrix[i], 6)
		for j := range view.Matrix[i] {
			assert.Equal(t, view.Matrix[i][j], view.Matrix[j][i])
		}
	}

	assert.Equal(t, 1, view.Matrix[idx["b1"]][idx["t1"]])
	assert.Equal(t, 1, view.Matrix[idx["b2"]][idx["g1"]])
	// Open edge does not count.
	assert.Equal(t, 0, view.Matrix[idx["b2"]][idx["l1"]])
	assert.Equal(t, 0, view.Matrix[idx["b1"]][idx["b1"]])
}

func TestBuildHierarchicalView(t *testing.T) {
	view := BuildHierarchicalView(testSnapshot())

	// b1 (132kV slack) is the root; l1 is only reachable over an open edge
	// and x1 has no edges, so both become isolated trees.
	require.Len(t, view.Trees, 3)

	root := view.Trees[0]
	assert.Equal(t, "b1", root.ID)
	assert.Equal(t, 0, root.Depth)

	require.Len(t, root.Children, 1)
	assert.Equal(t, "t1", root.Children[0].ID)
	assert.Equal(t, 1, root.Children[0].Depth)

	require.Len(t, root.Children[0].Children, 1)
	assert.Equal(t, "b2", root.Children[0].Children[0].ID)

	isolated := map[string]bool{}
	for _, tree := range view.Trees[1:] {
		isolated[tree.ID] = true
		assert.Empty(t, tree.Children)
	}
	assert.True(t, isolated["l1"])
	assert.True(t, isolated["x1"])
}

func TestHierarchicalViewFallsBackToAnyBus(t *testing.T) {
	s := &Snapshot{
		Elements: []models.GridElement{
			{ID: "b2", Name: "Dist Bus", ElementType: models.ElementBus, VoltageLevel: 11, BusType: busType(models.BusPQ)},
			{ID: "l1", Name: "Load-1", ElementType: models.ElementLoad, VoltageLevel: 11},
		},
		Connections: []models.Connection{
			{ID: "c1", FromElementID: "b2", ToElementID: "l1", IsConnected: true},
		},
	}

	view := BuildHierarchicalView(s)
	require.Len(t, view.Trees, 1)
	assert.Equal(t, "b2", view.Trees[0].ID)
	require.Len(t, view.Trees[0].Children, 1)
	assert.Equal(t, "l1", view.Trees[0].Children[0].ID)
}

func TestHierarchicalViewAttachesFirstParentOnly(t *testing.T) {
	// Diamond: both buses are roots and both reach t1; it must attach to
	// exactly one parent.
	s := &Snapshot{
		Elements: []models.GridElement{
			{ID: "b1", ElementType: models.ElementBus, VoltageLevel: 132},
			{ID: "b2", ElementType: models.ElementBus, VoltageLevel: 220},
			{ID: "t1", ElementType: models.ElementTransformer, VoltageLevel: 132},
		},
		Connections: []models.Connection{
			{ID: "c1", FromElementID: "b1", ToElementID: "t1", IsConnected: true},
			{ID: "c2", FromElementID: "b2", ToElementID: "t1", IsConnected: true},
		},
	}

	view := BuildHierarchicalView(s)

	attachments := 0
	for _, tree := range view.Trees {
		for _, child := range tree.Children {
			if child.ID == "t1" {
				attachments++
			}
		}
	}
	assert.Equal(t, 1, attachments)
}
