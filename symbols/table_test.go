package symbols

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableAdd(t *testing.T) {
	tab := New()
	assert.Equal(t, int32(1), tab.Add("a"))
	assert.Equal(t, int32(2), tab.Add("b"))
	assert.Equal(t, int32(1), tab.Add("a"))
	assert.Equal(t, 3, tab.Len())

	l, ok := tab.Find(Epsilon)
	assert.True(t, ok)
	assert.Equal(t, int32(0), l)
	s, ok := tab.Symbol(2)
	assert.True(t, ok)
	assert.Equal(t, "b", s)
	_, ok = tab.Find("c")
	assert.False(t, ok)
}

func TestReadWrite(t *testing.T) {
	src := "<eps>\t0\nhello\t3\nworld 7\n\n"
	tab, err := Read(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, []int32{0, 3, 7}, tab.Labels())
	assert.Equal(t, int32(8), tab.Add("new"))

	var buf bytes.Buffer
	require.NoError(t, tab.Write(&buf))
	assert.Equal(t, "<eps>\t0\nhello\t3\nworld\t7\nnew\t8\n", buf.String())
}

func TestReadErrors(t *testing.T) {
	for _, src := range []string{
		"a\n",
		"a x\n",
		"a 1\nb 1\n",
	} {
		_, err := Read(strings.NewReader(src))
		assert.Error(t, err, src)
	}
}
