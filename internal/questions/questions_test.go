package questions

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSource() *rand.Rand {
	return rand.New(rand.NewPCG(42, 1024))
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	group, impostor := c.Len()
	assert.Equal(t, 47, group)
	assert.Equal(t, 47, impostor)
}

func TestParseRejectsBadCatalogs(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: "pairs: []\n"},
		{name: "not yaml", data: "pairs: [\n"},
		{name: "missing text", data: "pairs:\n  - group: {id: \"1\"}\n    impostor: {id: \"2\", text: \"b\"}\n"},
		{name: "duplicate id", data: "pairs:\n  - group: {id: \"1\", text: \"a\"}\n    impostor: {id: \"1\", text: \"b\"}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte("pairs: []\n"))
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestSelectPairAvoidsOppositeAndSharedTags(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	src := newSource()
	used := make(Used)

	for range 500 {
		p, err := c.SelectPair(used, src)
		require.NoError(t, err)

		assert.Equal(t, KindGroup, p.Group.Kind)
		assert.Equal(t, KindImpostor, p.Impostor.Kind)
		assert.NotEqual(t, p.Group.Opposite, p.Impostor.ID)
	}

	// With the whole catalog available there is always an impostor prompt
	// from another topic.
	for range 200 {
		p, err := c.SelectPair(make(Used), src)
		require.NoError(t, err)
		assert.False(t, p.Group.sharesTag(p.Impostor), "%q and %q share a tag", p.Group.Text, p.Impostor.Text)
	}
}

func TestSelectPairMarksUsed(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	used := make(Used)
	p, err := c.SelectPair(used, newSource())
	require.NoError(t, err)

	assert.Len(t, used, 2)
	assert.Contains(t, used, p.Group.ID)
	assert.Contains(t, used, p.Impostor.ID)
}

func TestSelectPairFallsBackWhenEveryImpostorSharesATag(t *testing.T) {
	c, err := Parse([]byte(`pairs:
  - tags: [a]
    group: {id: "1", text: "g1"}
    impostor: {id: "2", text: "i2"}
  - tags: [a]
    group: {id: "3", text: "g3"}
    impostor: {id: "4", text: "i4"}
`))
	require.NoError(t, err)

	for range 50 {
		p, err := c.SelectPair(make(Used), newSource())
		require.NoError(t, err)
		assert.NotEqual(t, p.Group.Opposite, p.Impostor.ID)
	}
}

func TestSelectPairFallsBackToOpposite(t *testing.T) {
	c, err := Parse([]byte(`pairs:
  - tags: [a]
    group: {id: "1", text: "g1"}
    impostor: {id: "2", text: "i2"}
`))
	require.NoError(t, err)

	p, err := c.SelectPair(make(Used), newSource())
	require.NoError(t, err)
	assert.Equal(t, "1", p.Group.ID)
	assert.Equal(t, "2", p.Impostor.ID)
}

func TestSelectPairResetsOnExhaustion(t *testing.T) {
	c, err := Parse([]byte(`pairs:
  - tags: [a]
    group: {id: "1", text: "g1"}
    impostor: {id: "2", text: "i2"}
  - tags: [b]
    group: {id: "3", text: "g3"}
    impostor: {id: "4", text: "i4"}
`))
	require.NoError(t, err)

	src := newSource()
	used := Used{"1": {}, "2": {}, "3": {}, "4": {}}

	for range 100 {
		p, err := c.SelectPair(used, src)
		require.NoError(t, err)
		assert.NotEmpty(t, p.Group.ID)
		assert.NotEmpty(t, p.Impostor.ID)
		assert.LessOrEqual(t, len(used), 4)
	}
}

func TestSelectPairOnNilCatalog(t *testing.T) {
	var c *Catalog
	_, err := c.SelectPair(make(Used), newSource())
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}
