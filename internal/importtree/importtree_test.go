package importtree

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lipo-groupgen/internal/export"
)

func cyclicResult() *export.Result {
	return &export.Result{
		Modules: []export.ModuleExport{
			{
				ModuleID:       1,
				SourceFilename: "a.c",
				IsExported:     true,
				Aux: []export.AuxModule{
					{ModuleID: 2, SourceFilename: "b.c", Weight: 500},
				},
			},
			{
				ModuleID:       2,
				SourceFilename: "b.c",
				IsExported:     true,
				Aux: []export.AuxModule{
					{ModuleID: 1, SourceFilename: "a.c", Weight: 200},
					{ModuleID: 3, SourceFilename: "c.c", Weight: 50},
				},
			},
			{ModuleID: 3, SourceFilename: "c.c", IsExported: false},
		},
	}
}

func TestBuild_Basic(t *testing.T) {
	tree := Build(cyclicResult(), 1, DefaultOptions())
	require.NotNil(t, tree)
	assert.Equal(t, uint32(1), tree.ModuleID)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, uint32(2), tree.Children[0].ModuleID)
}

func TestBuild_CycleTerminates(t *testing.T) {
	tree := Build(cyclicResult(), 1, Options{MaxDepth: 0})
	require.NotNil(t, tree)

	child := tree.Children[0]
	require.Len(t, child.Children, 2)
	// module 1 reappears as a leaf (visiting-set cutoff), not expanded again.
	var sawModule1Leaf bool
	for _, gc := range child.Children {
		if gc.ModuleID == 1 {
			sawModule1Leaf = true
			assert.Empty(t, gc.Children)
		}
	}
	assert.True(t, sawModule1Leaf)
}

func TestBuild_MaxDepthBounds(t *testing.T) {
	tree := Build(cyclicResult(), 1, Options{MaxDepth: 1})
	require.NotNil(t, tree)
	require.Len(t, tree.Children, 1)
	assert.Empty(t, tree.Children[0].Children)
}

func TestBuild_UnknownRoot(t *testing.T) {
	assert.Nil(t, Build(cyclicResult(), 999, DefaultOptions()))
}

func TestBuildAll_OnlyExported(t *testing.T) {
	trees := BuildAll(cyclicResult(), DefaultOptions())
	require.Len(t, trees, 2)
	assert.Equal(t, uint32(1), trees[0].ModuleID)
	assert.Equal(t, uint32(2), trees[1].ModuleID)
}

func TestWriteJSON(t *testing.T) {
	trees := BuildAll(cyclicResult(), DefaultOptions())
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(trees, &buf))
	assert.Contains(t, buf.String(), "\"module_id\": 1")
}
