package fst

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorFstBuild(t *testing.T) {
	f := tropicalFst(3, []edge{
		{0, 1, 1, 1, 0.5},
		{0, 2, 2, 3, 1},
		{1, 2, 0, 0, 0.25},
	}, map[StateID]float64{2: 0})

	assert.Equal(t, 3, f.NumStates())
	assert.Equal(t, 2, f.NumArcs(0))
	assert.Equal(t, 2, f.InDegree(2))
	assert.Equal(t, 0, f.InDegree(0))
	assert.True(t, IsFinal[trop](f, 2))
	assert.False(t, IsFinal[trop](f, 1))
	assert.Equal(t, 0, Start[trop](f))
	assert.Equal(t, 3, NumArcsTotal[trop](f))
}

func TestVectorFstSetInitialZeroClears(t *testing.T) {
	f := tropicalFst(2, nil, nil)
	f.SetInitial(1, trop(2))
	require.Len(t, f.Initials(), 2)

	f.SetInitial(0, trop(0).Zero())
	inits := f.Initials()
	require.Len(t, inits, 1)
	assert.Equal(t, 1, inits[0].State)
	assert.Equal(t, trop(2), inits[0].Weight)
}

func TestVectorFstSetAndEraseArc(t *testing.T) {
	f := tropicalFst(3, []edge{
		{0, 1, 1, 1, 0},
		{0, 2, 2, 2, 0},
	}, nil)

	f.SetArc(0, 0, Arc[trop]{ILabel: 5, OLabel: 5, Weight: 1, NextState: 2})
	assert.Equal(t, 0, f.InDegree(1))
	assert.Equal(t, 2, f.InDegree(2))

	f.EraseArc(0, 1)
	require.Equal(t, 1, f.NumArcs(0))
	assert.Equal(t, Label(5), f.ArcList(0)[0].ILabel)
	assert.Equal(t, 1, f.InDegree(2))

	f.DeleteArcs(0)
	assert.Equal(t, 0, f.NumArcs(0))
	assert.Equal(t, 0, f.InDegree(2))
}

func TestVectorFstEraseStates(t *testing.T) {
	f := tropicalFst(4, []edge{
		{0, 1, 1, 1, 0},
		{1, 2, 2, 2, 0},
		{2, 3, 3, 3, 0},
		{0, 2, 4, 4, 0},
	}, map[StateID]float64{3: 0})

	f.EraseStates([]StateID{1})

	require.Equal(t, 3, f.NumStates())
	arcs := f.ArcList(0)
	require.Len(t, arcs, 1)
	assert.Equal(t, Label(4), arcs[0].ILabel)
	assert.Equal(t, 1, arcs[0].NextState)
	assert.Equal(t, 2, f.ArcList(1)[0].NextState)
	assert.Equal(t, 1, f.InDegree(1))
	assert.True(t, IsFinal[trop](f, 2))
	assert.Equal(t, 0, Start[trop](f))

	f.EraseState(0)
	assert.Equal(t, 2, f.NumStates())
	assert.Empty(t, f.Initials())
	assert.Equal(t, 0, f.InDegree(0))
}

func TestVectorFstPanicsOnBadState(t *testing.T) {
	f := tropicalFst(1, nil, nil)
	assert.Panics(t, func() { f.AddTransition(0, 3, 1, 1, 0) })
	assert.Panics(t, func() { f.Final(-1) })
}

func TestMakeSuperInitial(t *testing.T) {
	f := tropicalFst(3, []edge{{0, 2, 1, 1, 0}, {1, 2, 2, 2, 0}}, map[StateID]float64{2: 0})
	f.SetInitial(1, trop(2))

	s := f.MakeSuperInitial()

	require.Equal(t, 3, s)
	inits := f.Initials()
	require.Len(t, inits, 1)
	assert.Equal(t, s, inits[0].State)
	assert.True(t, inits[0].Weight.Equal(trop(0)))

	arcs := f.ArcList(s)
	require.Len(t, arcs, 2)
	targets := []StateID{arcs[0].NextState, arcs[1].NextState}
	slices.Sort(targets)
	assert.Equal(t, []StateID{0, 1}, targets)
	for _, a := range arcs {
		assert.True(t, a.IsEpsilon())
		if a.NextState == 1 {
			assert.Equal(t, trop(2), a.Weight)
		}
	}
	assert.Equal(t, trop(0), InputWeight[trop](f, []Label{1}))
	assert.Equal(t, trop(2), InputWeight[trop](f, []Label{2}))
}

func TestMakeSuperInitialKeepsSingleStart(t *testing.T) {
	f := tropicalFst(2, nil, nil)
	assert.Equal(t, 0, f.MakeSuperInitial())
	assert.Equal(t, 2, f.NumStates())

	empty := NewVectorFst[trop]()
	assert.Equal(t, NoState, empty.MakeSuperInitial())
}

func TestCopy(t *testing.T) {
	f := tropicalFst(2, []edge{{0, 1, 1, 2, 0.5}}, map[StateID]float64{1: 1})
	g := Copy[trop](f)
	g.AddTransition(1, 0, 3, 3, 0)

	assert.Equal(t, 1, NumArcsTotal[trop](f))
	assert.Equal(t, 2, NumArcsTotal[trop](g))
	assert.Equal(t, f.Final(1), g.Final(1))
}
