package topology

import (
	"sort"

	"github.com/gridscope/gridscope-backend/internal/models"
)

// Buses at or above this voltage level are root candidates for the
// hierarchical view.
const rootVoltageLevelKV = 132.0

// Snapshot is a filtered, in-memory copy of the topology pulled from the
// store per request. Views are derived from it and it is discarded after
// the response; nothing here holds long-lived mutable graph state.
type Snapshot struct {
	Elements    []models.GridElement
	Connections []models.Connection
}

// elementIndex maps element id to its position in s.Elements.
func (s *Snapshot) elementIndex() map[string]int {
	idx := make(map[string]int, len(s.Elements))
	for i, el := range s.Elements {
		idx[el.ID] = i
	}
	return idx
}

// edges returns the connections whose both endpoints are present in the
// snapshot's element set. Filtered-out or deleted elements drop their
// edges from every view.
func (s *Snapshot) edges() []models.Connection {
	idx := s.elementIndex()
	var out []models.Connection
	for _, conn := range s.Connections {
		if _, ok := idx[conn.FromElementID]; !ok {
			continue
		}
		if _, ok := idx[conn.ToElementID]; !ok {
			continue
		}
		out = append(out, conn)
	}
	return out
}

// ================ METADATA ================

type ViewMetadata struct {
	ElementCount    int       `json:"elementCount"`
	ConnectionCount int       `json:"connectionCount"`
	VoltageLevels   []float64 `json:"voltageLevels"`
	ElementTypes    []string  `json:"elementTypes"`
}

func buildMetadata(s *Snapshot) ViewMetadata {
	voltageSet := make(map[float64]bool)
	typeSet := make(map[string]bool)
	for _, el := range s.Elements {
		voltageSet[el.VoltageLevel] = true
		typeSet[string(el.ElementType)] = true
	}

	voltages := make([]float64, 0, len(voltageSet))
	for v := range voltageSet {
		voltages = append(voltages, v)
	}
	sort.Float64s(voltages)

	types := make([]string, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Strings(types)

	return ViewMetadata{
		ElementCount:    len(s.Elements),
		ConnectionCount: len(s.edges()),
		VoltageLevels:   voltages,
		ElementTypes:    types,
	}
}

// ================ GRAPH VIEW ================

type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type GraphNode struct {
	ID         string                 `json:"id"`
	Label      string                 `json:"label"`
	Type       models.ElementType     `json:"type"`
	Status     models.ElementStatus   `json:"status"`
	Properties map[string]interface{} `json:"properties"`
	Position   *Position              `json:"position,omitempty"`
}

type GraphEdge struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Type      string `json:"type"`
	Connected bool   `json:"connected"`
	Label     string `json:"label"`
}

type GraphView struct {
	Nodes    []GraphNode  `json:"nodes"`
	Edges    []GraphEdge  `json:"edges"`
	Metadata ViewMetadata `json:"metadata"`
}

func BuildGraphView(s *Snapshot) *GraphView {
	view := &GraphView{
		Nodes:    make([]GraphNode, 0, len(s.Elements)),
		Edges:    make([]GraphEdge, 0, len(s.Connections)),
		Metadata: buildMetadata(s),
	}

	for _, el := range s.Elements {
		node := GraphNode{
			ID:         el.ID,
			Label:      el.Name,
			Type:       el.ElementType,
			Status:     el.Status,
			Properties: elementProperties(&el),
		}
		if el.Latitude != nil && el.Longitude != nil {
			node.Position = &Position{Latitude: *el.Latitude, Longitude: *el.Longitude}
		}
		view.Nodes = append(view.Nodes, node)
	}

	for _, conn := range s.edges() {
		view.Edges = append(view.Edges, GraphEdge{
			ID:        conn.ID,
			Source:    conn.FromElementID,
			Target:    conn.ToElementID,
			Type:      conn.ConnectionType,
			Connected: conn.IsConnected,
			Label:     conn.ConnectionType,
		})
	}

	return view
}

func elementProperties(el *models.GridElement) map[string]interface{} {
	props := map[string]interface{}{
		"voltageLevel": el.VoltageLevel,
	}
	if el.BusType != nil {
		props["busType"] = string(*el.BusType)
	}
	if el.RatedCapacity != nil {
		props["ratedCapacity"] = *el.RatedCapacity
	}
	if el.RatedPower != nil {
		props["ratedPower"] = *el.RatedPower
	}
	if el.Priority != nil {
		props["priority"] = *el.Priority
	}
	if el.PrimaryVoltage != nil {
		props["primaryVoltage"] = *el.PrimaryVoltage
	}
	if el.SecondaryVoltage != nil {
		props["secondaryVoltage"] = *el.SecondaryVoltage
	}
	if el.LengthKm != nil {
		props["lengthKm"] = *el.LengthKm
	}
	return props
}

// ================ ADJACENCY VIEW ================

type AdjacencyLink struct {
	ConnectionID string `json:"connectionId"`
	NeighborID   string `json:"neighborId"`
	Type         string `json:"type"`
	Connected    bool   `json:"connected"`
}

type AdjacencyEntry struct {
	Element     models.GridElement `json:"element"`
	Connections []AdjacencyLink    `json:"connections"`
}

type AdjacencyView struct {
	Entries  map[string]*AdjacencyEntry `json:"entries"`
	Metadata ViewMetadata               `json:"metadata"`
}

// BuildAdjacencyView lists every edge under both of its endpoints.
func BuildAdjacencyView(s *Snapshot) *AdjacencyView {
	view := &AdjacencyView{
		Entries:  make(map[string]*AdjacencyEntry, len(s.Elements)),
		Metadata: buildMetadata(s),
	}

	for _, el := range s.Elements {
		view.Entries[el.ID] = &AdjacencyEntry{
			Element:     el,
			Connections: []AdjacencyLink{},
		}
	}

	for _, conn := range s.edges() {
		view.Entries[conn.FromElementID].Connections = append(
			view.Entries[conn.FromElementID].Connections,
			AdjacencyLink{
				ConnectionID: conn.ID,
				NeighborID:   conn.ToElementID,
				Type:         conn.ConnectionType,
				Connected:    conn.IsConnected,
			},
		)
		view.Entries[conn.ToElementID].Connections = append(
			view.Entries[conn.ToElementID].Connections,
			AdjacencyLink{
				ConnectionID: conn.ID,
				NeighborID:   conn.FromElementID,
				Type:         conn.ConnectionType,
				Connected:    conn.IsConnected,
			},
		)
	}

	return view
}

// ================ MATRIX VIEW ================

type MatrixView struct {
	ElementIDs []string     `json:"elementIds"`
	Matrix     [][]int      `json:"matrix"`
	Metadata   ViewMetadata `json:"metadata"`
}

// BuildMatrixView returns a symmetric 0/1 adjacency matrix over a fixed
// element ordering. Only closed (is_connected) edges count.
func BuildMatrixView(s *Snapshot) *MatrixView {
	idx := s.elementIndex()

	ids := make([]string, len(s.Elements))
	for i, el := range s.Elements {
		ids[i] = el.ID
	}

	matrix := make([][]int, len(ids))
	for i := range matrix {
		matrix[i] = make([]int, len(ids))
	}

	for _, conn := range s.edges() {
		if !conn.IsConnected {
			continue
		}
		i := idx[conn.FromElementID]
		j := idx[conn.ToElementID]
		matrix[i][j] = 1
		matrix[j][i] = 1
	}

	return &MatrixView{
		ElementIDs: ids,
		Matrix:     matrix,
		Metadata:   buildMetadata(s),
	}
}

// ================ HIERARCHICAL VIEW ================

type TreeNode struct {
	ID           string             `json:"id"`
	Label        string             `json:"label"`
	Type         models.ElementType `json:"type"`
	VoltageLevel float64            `json:"voltageLevel"`
	Depth        int                `json:"depth"`
	Children     []*TreeNode        `json:"children"`
}

type HierarchicalView struct {
	Trees    []*TreeNode  `json:"trees"`
	Metadata ViewMetadata `json:"metadata"`
}

// BuildHierarchicalView derives a rooted tree per root bus via BFS over
// closed edges. Each reachable node attaches to its first-discovered
// parent; a global visited set drops alternate paths, so the result is a
// spanning tree of each root's component. Elements no root reaches are
// appended as isolated single-node trees.
func BuildHierarchicalView(s *Snapshot) *HierarchicalView {
	view := &HierarchicalView{
		Trees:    []*TreeNode{},
		Metadata: buildMetadata(s),
	}

	byID := make(map[string]*models.GridElement, len(s.Elements))
	for i := range s.Elements {
		byID[s.Elements[i].ID] = &s.Elements[i]
	}

	// Neighbor lists over closed edges only.
	neighbors := make(map[string][]string)
	for _, conn := range s.edges() {
		if !conn.IsConnected {
			continue
		}
		neighbors[conn.FromElementID] = append(neighbors[conn.FromElementID], conn.ToElementID)
		neighbors[conn.ToElementID] = append(neighbors[conn.ToElementID], conn.FromElementID)
	}

	roots := selectRoots(s.Elements)
	visited := make(map[string]bool)

	for _, root := range roots {
		if visited[root.ID] {
			continue
		}
		view.Trees = append(view.Trees, buildSubtree(root, byID, neighbors, visited))
	}

	// Anything unreached becomes its own single-node tree.
	for i := range s.Elements {
		el := &s.Elements[i]
		if visited[el.ID] {
			continue
		}
		visited[el.ID] = true
		view.Trees = append(view.Trees, newTreeNode(el, 0))
	}

	return view
}

// selectRoots picks buses with a root-grade voltage level or a slack bus
// type; when none qualify, any bus serves as a fallback root.
func selectRoots(elements []models.GridElement) []*models.GridElement {
	var roots []*models.GridElement
	var fallback *models.GridElement

	for i := range elements {
		el := &elements[i]
		if el.ElementType != models.ElementBus {
			continue
		}
		if fallback == nil {
			fallback = el
		}
		if el.VoltageLevel >= rootVoltageLevelKV || (el.BusType != nil && *el.BusType == models.BusSlack) {
			roots = append(roots, el)
		}
	}

	if len(roots) == 0 && fallback != nil {
		roots = append(roots, fallback)
	}
	return roots
}

func buildSubtree(root *models.GridElement, byID map[string]*models.GridElement, neighbors map[string][]string, visited map[string]bool) *TreeNode {
	rootNode := newTreeNode(root, 0)
	visited[root.ID] = true

	queue := []*TreeNode{rootNode}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, neighborID := range neighbors[current.ID] {
			if visited[neighborID] {
				continue
			}
			visited[neighborID] = true

			child := newTreeNode(byID[neighborID], current.Depth+1)
			current.Children = append(current.Children, child)
			queue = append(queue, child)
		}
	}

	return rootNode
}

func newTreeNode(el *models.GridElement, depth int) *TreeNode {
	return &TreeNode{
		ID:           el.ID,
		Label:        el.Name,
		Type:         el.ElementType,
		VoltageLevel: el.VoltageLevel,
		Depth:        depth,
		Children:     []*TreeNode{},
	}
}
