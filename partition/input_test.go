package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/graphpart/tensor"
)

func TestEdgeTypeString(t *testing.T) {
	et := EdgeType{Src: "user", Rel: "clicks", Dst: "item"}
	assert.Equal(t, "user__clicks__item", et.String())
}

func TestNewInputValidatesShapes(t *testing.T) {
	idx := EdgeIndex{Rows: []int64{0, 1}, Cols: []int64{1, 2}}

	// Feature row count must match the node count.
	_, err := NewInput(3, idx, WithNodeFeatures(tensor.NewMatrix(2, 4)))
	var serr *ShapeError
	assert.ErrorAs(t, err, &serr)

	// Edge feature row count must match the edge count.
	_, err = NewInput(3, idx, WithEdgeFeatures(tensor.NewMatrix(5, 4)))
	assert.ErrorAs(t, err, &serr)

	_, err = NewInput(3, idx,
		WithNodeFeatures(tensor.NewMatrix(3, 4)),
		WithEdgeFeatures(tensor.NewMatrix(2, 4)))
	assert.NoError(t, err)
}

func TestNewInputValidatesIndexLengths(t *testing.T) {
	_, err := NewInput(3, EdgeIndex{Rows: []int64{0, 1}, Cols: []int64{1}})
	assert.Error(t, err)
}

func TestNewHeteroInputRejectsUnknownEndpoint(t *testing.T) {
	_, err := NewHeteroInput(
		map[NodeType]NodeInput{"user": {NumNodes: 2}},
		map[EdgeType]EdgeInput{
			{Src: "user", Rel: "clicks", Dst: "item"}: {
				Index: EdgeIndex{Rows: []int64{0}, Cols: []int64{0}},
			},
		},
	)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestHeteroAccessorsRequireType(t *testing.T) {
	in, err := NewHeteroInput(
		map[NodeType]NodeInput{"user": {NumNodes: 2}, "item": {NumNodes: 3}},
		map[EdgeType]EdgeInput{
			{Src: "user", Rel: "clicks", Dst: "item"}: {
				Index: EdgeIndex{Rows: []int64{0}, Cols: []int64{1}},
			},
		},
	)
	require.NoError(t, err)

	_, err = in.NumNodes("")
	assert.ErrorIs(t, err, ErrTypeRequired)

	n, err := in.NumNodes("item")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = in.NumNodes("missing")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestHomoAccessorsIgnoreType(t *testing.T) {
	in := chainInput(t, 5)

	n, err := in.NumNodes("")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	assert.False(t, in.Hetero())
	assert.Nil(t, in.NodeTypes())
	assert.Nil(t, in.EdgeTypes())
}
