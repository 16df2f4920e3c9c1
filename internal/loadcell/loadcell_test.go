package loadcell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixed struct {
	v   int32
	err error
	n   int
}

func (f *fixed) Read() (int32, error) {
	f.n++
	return f.v, f.err
}

func TestCell_TareAndWeigh(t *testing.T) {
	src := &fixed{v: 10000}
	c := New(src, DefaultSettings())
	require.NoError(t, c.Tare())
	assert.Equal(t, 10, src.n)
	assert.Equal(t, 10000.0, c.Offset())

	// factor -430: 100 g pulls the count down by 43000
	src.v = 10000 - 43000
	require.NoError(t, c.Update())
	assert.InDelta(t, 100.0, c.Weight(), 1e-9)
	assert.Equal(t, 15, src.n)
}

func TestCell_DeadZone(t *testing.T) {
	src := &fixed{v: 0}
	c := New(src, DefaultSettings())
	require.NoError(t, c.Tare())

	src.v = -430 * 4 // 4 g
	require.NoError(t, c.Update())
	assert.Equal(t, 0.0, c.Weight())

	src.v = 430 * 4 // -4 g
	require.NoError(t, c.Update())
	assert.Equal(t, 0.0, c.Weight())

	src.v = -430 * 6
	require.NoError(t, c.Update())
	assert.InDelta(t, 6.0, c.Weight(), 1e-9)
}

func TestCell_Hold(t *testing.T) {
	src := &fixed{v: -430 * 20}
	c := New(src, DefaultSettings())
	require.NoError(t, c.Update())
	require.InDelta(t, 20.0, c.Weight(), 1e-9)

	c.ToggleHold()
	require.True(t, c.Holding())
	src.v = -430 * 50
	n := src.n
	require.NoError(t, c.Update())
	assert.Equal(t, n, src.n, "held cell does not sample")
	assert.InDelta(t, 20.0, c.Weight(), 1e-9)

	c.ToggleHold()
	require.NoError(t, c.Update())
	assert.InDelta(t, 50.0, c.Weight(), 1e-9)
}

func TestCell_TareWhileHeldZeroesSnapshot(t *testing.T) {
	src := &fixed{v: -430 * 20}
	c := New(src, DefaultSettings())
	require.NoError(t, c.Update())
	c.SetHold(true)
	require.NoError(t, c.Tare())
	assert.Equal(t, 0.0, c.Weight())
	assert.True(t, c.Holding())
}

func TestCell_ErrorKeepsWeight(t *testing.T) {
	src := &fixed{v: -430 * 20}
	c := New(src, DefaultSettings())
	require.NoError(t, c.Update())

	src.err = errors.New("not ready")
	assert.ErrorIs(t, c.Update(), src.err)
	assert.InDelta(t, 20.0, c.Weight(), 1e-9)
	assert.ErrorIs(t, c.Tare(), src.err)
}

func TestCell_ZeroFactor(t *testing.T) {
	s := DefaultSettings()
	s.Factor = 0
	c := New(&fixed{v: 1}, s)
	assert.Error(t, c.Update())
}
