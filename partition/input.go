package partition

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/graphpart/tensor"
)

// NodeType names a node class in a heterogeneous graph, e.g. "user".
type NodeType = string

// EdgeType identifies a typed edge class as a (source node type, relation,
// destination node type) triple, e.g. {"user", "clicks", "item"}.
type EdgeType struct {
	Src NodeType `json:"src"`
	Rel string   `json:"rel"`
	Dst NodeType `json:"dst"`
}

// String returns the canonical directory name of the edge type.
func (e EdgeType) String() string {
	return strings.Join([]string{e.Src, e.Rel, e.Dst}, "__")
}

// EdgeIndex is a directed edge list in COO form: edge i goes from node
// Rows[i] to node Cols[i]. The original edge id of edge i is i.
type EdgeIndex struct {
	Rows []int64
	Cols []int64
}

// Len returns the number of edges.
func (e EdgeIndex) Len() int64 { return int64(len(e.Rows)) }

// NodeInput is the per-node-type slice of a heterogeneous input.
type NodeInput struct {
	NumNodes int64
	Features *tensor.Matrix // optional, row r = features of node id r
}

// EdgeInput is the per-edge-type slice of a heterogeneous input.
type EdgeInput struct {
	Index    EdgeIndex
	Features *tensor.Matrix // optional, row r = features of edge id r
}

// Input is the graph a Partitioner consumes: either one homogeneous graph
// or one graph slice per node/edge type. The two cases are distinguished
// once at construction; all traversal code works on the typed maps.
type Input struct {
	hetero bool
	nodes  map[NodeType]NodeInput
	edges  map[EdgeType]EdgeInput

	nodeTypes []NodeType // sorted
	edgeTypes []EdgeType // sorted by String()
}

// homogeneous inputs are stored under zero-valued type keys.
var (
	homoNodeType NodeType
	homoEdgeType EdgeType
)

// InputOption configures optional homogeneous input data.
type InputOption func(*NodeInput, *EdgeInput)

// WithNodeFeatures attaches node feature rows to a homogeneous input.
func WithNodeFeatures(m *tensor.Matrix) InputOption {
	return func(n *NodeInput, _ *EdgeInput) { n.Features = m }
}

// WithEdgeFeatures attaches edge feature rows to a homogeneous input.
func WithEdgeFeatures(m *tensor.Matrix) InputOption {
	return func(_ *NodeInput, e *EdgeInput) { e.Features = m }
}

// NewInput creates a homogeneous input from a node count and an edge list.
func NewInput(numNodes int64, index EdgeIndex, opts ...InputOption) (*Input, error) {
	node := NodeInput{NumNodes: numNodes}
	edge := EdgeInput{Index: index}
	for _, opt := range opts {
		opt(&node, &edge)
	}
	in := &Input{
		hetero: false,
		nodes:  map[NodeType]NodeInput{homoNodeType: node},
		edges:  map[EdgeType]EdgeInput{homoEdgeType: edge},
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	in.index()
	return in, nil
}

// NewHeteroInput creates a heterogeneous input from per-type node and edge
// slices. Every edge type must reference node types present in nodes.
func NewHeteroInput(nodes map[NodeType]NodeInput, edges map[EdgeType]EdgeInput) (*Input, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("partition: heterogeneous input requires at least one node type")
	}
	in := &Input{hetero: true, nodes: nodes, edges: edges}
	for et := range edges {
		if _, ok := nodes[et.Src]; !ok {
			return nil, fmt.Errorf("%w: edge type %s references node type %q", ErrUnknownType, et, et.Src)
		}
		if _, ok := nodes[et.Dst]; !ok {
			return nil, fmt.Errorf("%w: edge type %s references node type %q", ErrUnknownType, et, et.Dst)
		}
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	in.index()
	return in, nil
}

func (in *Input) validate() error {
	for nt, n := range in.nodes {
		if n.NumNodes < 0 {
			return &ShapeError{What: "node count", Key: nt, Want: 0, Got: n.NumNodes}
		}
		if n.Features != nil && int64(n.Features.Rows()) != n.NumNodes {
			return &ShapeError{What: "node features", Key: nt, Want: n.NumNodes, Got: int64(n.Features.Rows())}
		}
	}
	for et, e := range in.edges {
		if len(e.Index.Rows) != len(e.Index.Cols) {
			return &ShapeError{What: "edge index", Key: et.String(), Want: int64(len(e.Index.Rows)), Got: int64(len(e.Index.Cols))}
		}
		if e.Features != nil && int64(e.Features.Rows()) != e.Index.Len() {
			return &ShapeError{What: "edge features", Key: et.String(), Want: e.Index.Len(), Got: int64(e.Features.Rows())}
		}
	}
	return nil
}

func (in *Input) index() {
	in.nodeTypes = make([]NodeType, 0, len(in.nodes))
	for nt := range in.nodes {
		in.nodeTypes = append(in.nodeTypes, nt)
	}
	sort.Slice(in.nodeTypes, func(i, j int) bool { return in.nodeTypes[i] < in.nodeTypes[j] })

	in.edgeTypes = make([]EdgeType, 0, len(in.edges))
	for et := range in.edges {
		in.edgeTypes = append(in.edgeTypes, et)
	}
	sort.Slice(in.edgeTypes, func(i, j int) bool { return in.edgeTypes[i].String() < in.edgeTypes[j].String() })
}

// Hetero reports whether the input is heterogeneous.
func (in *Input) Hetero() bool { return in.hetero }

// NodeTypes returns the node types in stable (sorted) order.
// Empty for homogeneous inputs.
func (in *Input) NodeTypes() []NodeType {
	if !in.hetero {
		return nil
	}
	return in.nodeTypes
}

// EdgeTypes returns the edge types in stable (sorted) order.
// Empty for homogeneous inputs.
func (in *Input) EdgeTypes() []EdgeType {
	if !in.hetero {
		return nil
	}
	return in.edgeTypes
}

// nodeKeys/edgeKeys iterate both cases uniformly: a homogeneous input
// yields its single zero-valued key.
func (in *Input) nodeKeys() []NodeType {
	return in.nodeTypes
}

func (in *Input) edgeKeys() []EdgeType {
	return in.edgeTypes
}

func (in *Input) node(nt NodeType) (NodeInput, error) {
	if !in.hetero {
		return in.nodes[homoNodeType], nil
	}
	if nt == homoNodeType {
		return NodeInput{}, ErrTypeRequired
	}
	n, ok := in.nodes[nt]
	if !ok {
		return NodeInput{}, fmt.Errorf("%w: node type %q", ErrUnknownType, nt)
	}
	return n, nil
}

func (in *Input) edge(et EdgeType) (EdgeInput, error) {
	if !in.hetero {
		return in.edges[homoEdgeType], nil
	}
	if et == homoEdgeType {
		return EdgeInput{}, ErrTypeRequired
	}
	e, ok := in.edges[et]
	if !ok {
		return EdgeInput{}, fmt.Errorf("%w: edge type %s", ErrUnknownType, et)
	}
	return e, nil
}

// NumNodes returns the node count of the given type.
func (in *Input) NumNodes(nt NodeType) (int64, error) {
	n, err := in.node(nt)
	if err != nil {
		return 0, err
	}
	return n.NumNodes, nil
}

// EdgeIndexOf returns the edge list of the given type.
func (in *Input) EdgeIndexOf(et EdgeType) (EdgeIndex, error) {
	e, err := in.edge(et)
	if err != nil {
		return EdgeIndex{}, err
	}
	return e.Index, nil
}

// NodeFeatures returns the node feature matrix of the given type, or nil
// if the input carries no node features.
func (in *Input) NodeFeatures(nt NodeType) (*tensor.Matrix, error) {
	n, err := in.node(nt)
	if err != nil {
		return nil, err
	}
	return n.Features, nil
}

// EdgeFeatures returns the edge feature matrix of the given type, or nil
// if the input carries no edge features.
func (in *Input) EdgeFeatures(et EdgeType) (*tensor.Matrix, error) {
	e, err := in.edge(et)
	if err != nil {
		return nil, err
	}
	return e.Features, nil
}
