package listsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/librarian/internal/library"
	"github.com/five82/librarian/internal/state"
)

func nextCommit(t *testing.T, c *QueryChannel) state.Query {
	t.Helper()
	select {
	case q, ok := <-c.Commits():
		require.True(t, ok, "commits closed")
		return q
	case <-time.After(time.Second):
		t.Fatal("no commit")
		return state.Query{}
	}
}

func assertNoCommit(t *testing.T, c *QueryChannel, within time.Duration) {
	t.Helper()
	select {
	case q, ok := <-c.Commits():
		if ok {
			t.Fatalf("unexpected commit %+v", q)
		}
	case <-time.After(within):
	}
}

func TestQueryChannel_DebouncesSearchIntoOneCommit(t *testing.T) {
	c := NewQueryChannel(state.Query{Page: 5, PageSize: 10}, testDebounce)
	t.Cleanup(c.Close)

	for _, text := range []string{"a", "ab", "abc"} {
		require.NoError(t, c.Search(text))
	}

	q := nextCommit(t, c)
	assert.Equal(t, "abc", q.Search)
	assert.Equal(t, 1, q.Page, "search resets the page")
	assertNoCommit(t, c, 4*testDebounce)
}

func TestQueryChannel_SuppressesUnchangedSearch(t *testing.T) {
	c := NewQueryChannel(state.Query{Page: 1, PageSize: 10}, testDebounce)
	t.Cleanup(c.Close)

	require.NoError(t, c.Search("dune"))
	assert.Equal(t, "dune", nextCommit(t, c).Search)

	require.NoError(t, c.Search("dune  "))
	assertNoCommit(t, c, 4*testDebounce)

	// typing away and back inside the quiet period is also a no-op
	require.NoError(t, c.Search("dun"))
	require.NoError(t, c.Search("dune"))
	assertNoCommit(t, c, 4*testDebounce)
}

func TestQueryChannel_RejectsLeadingSpace(t *testing.T) {
	c := NewQueryChannel(state.Query{Page: 1, PageSize: 10}, testDebounce)
	t.Cleanup(c.Close)

	err := c.Search(" abc")
	var verr *library.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, library.ErrLeadingSpace)
	assertNoCommit(t, c, 4*testDebounce)

	require.NoError(t, c.Search("abc def"))
	assert.Equal(t, "abc def", nextCommit(t, c).Search)
}

func TestQueryChannel_InvalidInputCancelsPendingSearch(t *testing.T) {
	c := NewQueryChannel(state.Query{Page: 1, PageSize: 10}, testDebounce)
	t.Cleanup(c.Close)

	require.NoError(t, c.Search("ab"))
	require.Error(t, c.Search(" ab"))
	assertNoCommit(t, c, 4*testDebounce)
	assert.Equal(t, "", c.Current().Search)
}

func TestQueryChannel_SortAndPageCommitImmediately(t *testing.T) {
	c := NewQueryChannel(state.Query{Page: 1, PageSize: 10}, time.Hour)
	t.Cleanup(c.Close)

	require.NoError(t, c.SetPage(4))
	q := nextCommit(t, c)
	assert.Equal(t, 4, q.Page)

	require.NoError(t, c.ToggleSort("name"))
	q = nextCommit(t, c)
	assert.Equal(t, "name:asc", q.Sort.String())
	assert.Equal(t, 1, q.Page, "sort resets the page")

	require.NoError(t, c.SetPage(3))
	nextCommit(t, c)
	require.NoError(t, c.ToggleSort("name"))
	q = nextCommit(t, c)
	assert.Equal(t, "name:desc", q.Sort.String())
	assert.Equal(t, 1, q.Page)

	// same page is a no-op, invalid page is rejected
	require.NoError(t, c.SetPage(1))
	assert.ErrorIs(t, c.SetPage(0), ErrPageOutOfRange)
	assertNoCommit(t, c, 20*time.Millisecond)
}

func TestQueryChannel_PageChangeKeepsSearchAndSort(t *testing.T) {
	c := NewQueryChannel(state.Query{Page: 1, PageSize: 10, Sort: state.SortSpec{Field: "genre", Direction: state.Desc}}, testDebounce)
	t.Cleanup(c.Close)

	require.NoError(t, c.Search("x"))
	nextCommit(t, c)
	require.NoError(t, c.SetPage(2))
	q := nextCommit(t, c)
	assert.Equal(t, state.Query{Page: 2, PageSize: 10, Sort: state.SortSpec{Field: "genre", Direction: state.Desc}, Search: "x"}, q)
}

func TestQueryChannel_SetPageSizeResetsPage(t *testing.T) {
	c := NewQueryChannel(state.Query{Page: 3, PageSize: 10}, testDebounce)
	t.Cleanup(c.Close)

	require.NoError(t, c.SetPageSize(25))
	q := nextCommit(t, c)
	assert.Equal(t, 25, q.PageSize)
	assert.Equal(t, 1, q.Page)
	assert.ErrorIs(t, c.SetPageSize(0), ErrPageOutOfRange)
}

func TestQueryChannel_CloseDropsPendingSearch(t *testing.T) {
	c := NewQueryChannel(state.Query{Page: 1, PageSize: 10}, testDebounce)

	require.NoError(t, c.Search("late"))
	c.Close()
	c.Close()

	_, ok := <-c.Commits()
	assert.False(t, ok, "commits should be closed without the pending search")
	time.Sleep(3 * testDebounce)
	assert.Equal(t, "", c.Current().Search)

	assert.ErrorIs(t, c.Search("x"), ErrClosed)
	assert.ErrorIs(t, c.SetPage(2), ErrClosed)
	assert.ErrorIs(t, c.Reload(), ErrClosed)
}
