package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/galleryexplorer/internal/search"
)

func urls(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("https://img.example/%d.jpg", i)
	}
	return out
}

func TestNew_DenseIndices(t *testing.T) {
	s := New(search.Query{Text: "cats"}, urls(13))

	require.Equal(t, 13, s.Len())
	for i, r := range s.Results {
		assert.Equal(t, i, r.Index)
		row, col := r.Grid()
		assert.Equal(t, i/4, row)
		assert.Equal(t, i%4, col)
	}

	row, col := s.Results[9].Grid()
	assert.Equal(t, 2, row)
	assert.Equal(t, 1, col)
}

func TestToggleAll_RoundTrip(t *testing.T) {
	s := New(search.Query{}, urls(5))
	require.Equal(t, 0, s.SelectedCount())

	all := s.ToggleAll()
	assert.Equal(t, 5, all.SelectedCount())
	assert.True(t, all.AllSelected())

	none := all.ToggleAll()
	assert.Equal(t, 0, none.SelectedCount())

	// the original value is untouched
	assert.Equal(t, 0, s.SelectedCount())
	assert.Equal(t, 5, all.SelectedCount())
}

func TestToggleAll_PartialSelectsAll(t *testing.T) {
	s := New(search.Query{}, urls(5)).Toggle(1).Toggle(3)
	assert.Equal(t, 2, s.SelectedCount())

	s = s.ToggleAll()
	assert.True(t, s.AllSelected())
}

func TestToggleAndSelectedURLs(t *testing.T) {
	s := New(search.Query{}, urls(4))
	s = s.Toggle(2).Toggle(0).Toggle(3).Toggle(3)

	assert.True(t, s.IsSelected(0))
	assert.False(t, s.IsSelected(1))
	assert.Equal(t, []string{"https://img.example/0.jpg", "https://img.example/2.jpg"}, s.SelectedURLs())
}

func TestInvalidIndicesIgnored(t *testing.T) {
	s := New(search.Query{}, urls(2))
	s = s.Toggle(-1).Toggle(2).SetSelected(10, true)

	assert.Equal(t, 0, s.SelectedCount())
	assert.False(t, s.IsSelected(10))

	_, ok := s.Result(2)
	assert.False(t, ok)
	r, ok := s.Result(1)
	require.True(t, ok)
	assert.Equal(t, 1, r.Index)
}

func TestClearDropsSelection(t *testing.T) {
	q := search.Query{Text: "owls"}
	s := New(q, urls(3)).ToggleAll().Clear()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.SelectedCount())
	assert.False(t, s.AllSelected())
	assert.Nil(t, s.SelectedURLs())
	assert.Equal(t, q, s.Query)

	// toggling an empty session is a no-op
	assert.Equal(t, 0, s.ToggleAll().SelectedCount())
}
