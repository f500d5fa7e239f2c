package manuals

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ecodanforum/backend/internal/models"
)

// pageOf lays runs out left to right on one line and indexes their text.
func pageOf(y float64, words ...string) pageContent {
	pg := pageContent{width: 612, height: 792}
	x := 50.0
	for _, w := range words {
		run := textRun{X: x, Y: y, W: float64(len(w)) * 6, FontSize: 10, S: w}
		pg.runs = append(pg.runs, run)
		x += run.W
		pg.text += w
	}
	pg.runAt = alignRunOffsets(pg.runs)
	return pg
}

func testViewer(pages ...pageContent) *Viewer {
	v := NewViewer(nil, "manuals")
	v.pages = pages
	v.manual = &models.Manual{ID: uuid.New(), Title: "PUZ-HA36 Service Manual", FileURL: "https://example.test/m.pdf"}
	v.page = 1
	return v
}

func TestSearchOrdersByPageThenOccurrence(t *testing.T) {
	v := testViewer(
		pageOf(700, "error code P1 ", "then P1 again"),
		pageOf(700, "no hits here"),
		pageOf(700, "P1 on page three"),
	)

	results := v.Search("p1")
	require.Len(t, results, 3)
	require.Equal(t, 1, results[0].Page)
	require.Equal(t, 0, results[0].Occurrence)
	require.Equal(t, 1, results[1].Page)
	require.Equal(t, 1, results[1].Occurrence)
	require.Equal(t, 3, results[2].Page)

	// Search jumps to the first hit's page.
	require.Equal(t, 1, v.CurrentPage())
}

func TestSearchEmptyQueryClearsResults(t *testing.T) {
	v := testViewer(pageOf(700, "content"))
	require.Nil(t, v.Search("  "))
	require.Nil(t, v.Search("missing"))
}

func TestResultNavigationClampsAndJumps(t *testing.T) {
	v := testViewer(
		pageOf(700, "valve"),
		pageOf(700, "valve"),
	)
	v.Search("valve")

	r, ok := v.NextResult()
	require.True(t, ok)
	require.Equal(t, 2, r.Page)
	require.Equal(t, 2, v.CurrentPage())

	// Clamped at the last result.
	r, ok = v.NextResult()
	require.True(t, ok)
	require.Equal(t, 2, r.Page)

	r, ok = v.PrevResult()
	require.True(t, ok)
	require.Equal(t, 1, r.Page)

	r, ok = v.PrevResult()
	require.True(t, ok)
	require.Equal(t, 1, r.Page)
}

func TestResultNavigationWithoutSearch(t *testing.T) {
	v := testViewer(pageOf(700, "text"))
	_, ok := v.NextResult()
	require.False(t, ok)
}

func TestGoToPageClamps(t *testing.T) {
	v := testViewer(pageOf(700, "a"), pageOf(700, "b"), pageOf(700, "c"))
	require.Equal(t, 1, v.GoToPage(0))
	require.Equal(t, 3, v.GoToPage(99))
	require.Equal(t, 2, v.GoToPage(2))
}

func TestSetScaleClamps(t *testing.T) {
	v := testViewer(pageOf(700, "a"))
	require.Equal(t, MinScale, v.SetScale(0.01))
	require.Equal(t, MaxScale, v.SetScale(10))
	require.Equal(t, 1.5, v.SetScale(1.5))
}

func TestLocateSelectionBoundingBox(t *testing.T) {
	pg := pageOf(700, "check the ", "refrigerant charge")

	box, ok := locateSelection(pg, "refrigerant")
	require.True(t, ok)
	require.Greater(t, box.Width, 0.0)
	require.Greater(t, box.Height, 0.0)
	// The selection starts in the second run.
	require.Equal(t, pg.runs[1].X, box.X)

	_, ok = locateSelection(pg, "not on this page")
	require.False(t, ok)
}

func TestCiteRecordsPageAndTrimmedText(t *testing.T) {
	v := testViewer(pageOf(700, "check the refrigerant charge"))

	c, err := v.Cite("  refrigerant charge  ")
	require.NoError(t, err)
	require.Equal(t, 1, c.PageNumber)
	require.Equal(t, "refrigerant charge", c.SelectedText)
	require.Equal(t, "PUZ-HA36 Service Manual", c.ManualTitle)
	require.NotNil(t, c.HighlightImage)
	require.NotNil(t, c.HighlightRect)
}

func TestCiteWithoutSelectionOmitsImage(t *testing.T) {
	v := testViewer(pageOf(700, "page text"))

	c, err := v.Cite("   ")
	require.NoError(t, err)
	require.Equal(t, 1, c.PageNumber)
	require.Empty(t, c.SelectedText)
	require.Nil(t, c.HighlightImage)
}

func TestCiteSelectionNotOnPageStillCites(t *testing.T) {
	v := testViewer(pageOf(700, "page text"))

	c, err := v.Cite("something else entirely")
	require.NoError(t, err)
	require.Equal(t, "something else entirely", c.SelectedText)
	require.Nil(t, c.HighlightImage)
}

func TestCiteWithoutOpenManual(t *testing.T) {
	v := NewViewer(nil, "manuals")
	_, err := v.Cite("text")
	require.Error(t, err)
}

func TestZeroPageManualDoesNotPanic(t *testing.T) {
	v := testViewer()

	_, err := v.RenderPage(context.Background())
	require.Error(t, err)

	c, err := v.Cite("some selection")
	require.NoError(t, err)
	require.Equal(t, 1, c.PageNumber)
	require.Equal(t, "some selection", c.SelectedText)
	require.Nil(t, c.HighlightImage)
}

func TestSupersededLoadDoesNotReplaceState(t *testing.T) {
	v := testViewer(pageOf(700, "current manual"))
	current := v.manual

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stale := &models.Manual{ID: uuid.New(), Title: "stale"}
	err := v.commit(ctx, stale, []pageContent{pageOf(700, "stale content")})
	require.ErrorIs(t, err, context.Canceled)
	require.Same(t, current, v.manual)
	require.NotEmpty(t, v.Search("current"))
}
