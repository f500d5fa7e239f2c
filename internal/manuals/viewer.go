package manuals

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"

	"github.com/ecodanforum/backend/internal/models"
	"github.com/ecodanforum/backend/internal/storage"
)

const (
	DefaultScale = 1.2
	MinScale     = 0.6
	MaxScale     = 3.0
)

// textRun is one positioned fragment of page text in PDF user space
// (origin bottom-left).
type textRun struct {
	X, Y, W  float64
	FontSize float64
	S        string
}

type pageContent struct {
	width  float64
	height float64
	text   string
	runs   []textRun
	// runAt maps each byte offset of text to the run it came from.
	runAt []int
}

// SearchResult is one case-insensitive match of the query, ordered by page
// then by occurrence within the page.
type SearchResult struct {
	Page       int `json:"page"`
	Occurrence int `json:"occurrence"`
	Offset     int `json:"offset"`
}

// Viewer holds one open manual at a time. Opening a different manual cancels
// any in-flight load or render; the newest request always wins.
type Viewer struct {
	store  storage.Storage
	bucket string

	mu      sync.Mutex
	cancel  context.CancelFunc
	manual  *models.Manual
	pages   []pageContent
	page    int
	scale   float64
	results []SearchResult
	resIdx  int
}

func NewViewer(store storage.Storage, bucket string) *Viewer {
	return &Viewer{store: store, bucket: bucket, scale: DefaultScale, page: 1}
}

// Open loads a manual's PDF, replacing whatever was open before. A prior
// load still in flight is cancelled first.
func (v *Viewer) Open(ctx context.Context, manual *models.Manual) error {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.mu.Unlock()

	rc, err := v.store.Download(ctx, v.bucket, manual.StoragePath)
	if err != nil {
		return fmt.Errorf("load manual %s: %w", manual.ID, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read manual %s: %w", manual.ID, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	pages, err := extractPages(data)
	if err != nil {
		return fmt.Errorf("parse manual %s: %w", manual.ID, err)
	}

	return v.commit(ctx, manual, pages)
}

// commit installs the loaded document. The context is rechecked under the
// lock so a load superseded between parsing and locking can never overwrite
// the newer manual's state.
func (v *Viewer) commit(ctx context.Context, manual *models.Manual, pages []pageContent) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	v.manual = manual
	v.pages = pages
	v.page = 1
	v.results = nil
	v.resIdx = 0
	return nil
}

func (v *Viewer) PageCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.pages)
}

func (v *Viewer) CurrentPage() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// GoToPage clamps to the document range.
func (v *Viewer) GoToPage(n int) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = clampPage(n, len(v.pages))
	return v.page
}

// SetScale clamps the zoom multiplier; the caller re-renders the current
// page afterward.
func (v *Viewer) SetScale(scale float64) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scale = clampScale(scale)
	return v.scale
}

// Search scans every page's text for the query substring, case-insensitively.
// Results replace the previous search and the cursor resets to the first hit.
func (v *Viewer) Search(query string) []SearchResult {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.results = nil
	v.resIdx = 0
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	for p, pg := range v.pages {
		lower := strings.ToLower(pg.text)
		occ := 0
		for from := 0; ; {
			i := strings.Index(lower[from:], q)
			if i < 0 {
				break
			}
			v.results = append(v.results, SearchResult{Page: p + 1, Occurrence: occ, Offset: from + i})
			occ++
			from += i + len(q)
		}
	}

	sort.SliceStable(v.results, func(i, j int) bool {
		if v.results[i].Page != v.results[j].Page {
			return v.results[i].Page < v.results[j].Page
		}
		return v.results[i].Occurrence < v.results[j].Occurrence
	})
	if len(v.results) > 0 {
		v.page = v.results[0].Page
	}
	return v.results
}

// NextResult advances the search cursor, clamped to the result range, and
// jumps the current page to the result's page.
func (v *Viewer) NextResult() (SearchResult, bool) {
	return v.moveResult(1)
}

func (v *Viewer) PrevResult() (SearchResult, bool) {
	return v.moveResult(-1)
}

func (v *Viewer) moveResult(delta int) (SearchResult, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.results) == 0 {
		return SearchResult{}, false
	}
	v.resIdx += delta
	if v.resIdx < 0 {
		v.resIdx = 0
	}
	if v.resIdx >= len(v.results) {
		v.resIdx = len(v.results) - 1
	}
	r := v.results[v.resIdx]
	v.page = r.Page
	return r, true
}

// RenderPage rasterizes the current page at the current scale and returns it
// PNG-encoded. Superseded renders are cancelled by the caller's context.
func (v *Viewer) RenderPage(ctx context.Context) ([]byte, error) {
	v.mu.Lock()
	if v.manual == nil {
		v.mu.Unlock()
		return nil, fmt.Errorf("no manual open")
	}
	if len(v.pages) == 0 {
		v.mu.Unlock()
		return nil, fmt.Errorf("manual %s has no pages", v.manual.ID)
	}
	pg := v.pages[v.page-1]
	scale := v.scale
	v.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return renderPagePNG(pg, scale)
}

// Cite packages the user's text selection on the current page into a
// citation. When the selection cannot be located on the page, the citation
// still records the page and trimmed text, just without a highlight image.
func (v *Viewer) Cite(selectedText string) (*models.Citation, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.manual == nil {
		return nil, fmt.Errorf("no manual open")
	}

	trimmed := strings.TrimSpace(selectedText)
	c := &models.Citation{
		ManualID:     v.manual.ID.String(),
		ManualTitle:  v.manual.Title,
		ModelName:    v.manual.ModelName,
		ManualType:   v.manual.ManualType,
		PageNumber:   v.page,
		SelectedText: trimmed,
		FileURL:      v.manual.FileURL,
	}
	if trimmed == "" || len(v.pages) == 0 {
		return c, nil
	}

	pg := v.pages[v.page-1]
	box, ok := locateSelection(pg, trimmed)
	if !ok {
		return c, nil
	}

	img, rect, err := renderHighlightCrop(pg, v.scale, box)
	if err != nil {
		return c, nil
	}
	c.HighlightImage = &img
	c.HighlightRect = &rect
	return c, nil
}

func extractPages(data []byte) ([]pageContent, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	pages := make([]pageContent, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		pc := pageContent{width: 612, height: 792}
		if page.V.IsNull() {
			pages = append(pages, pc)
			continue
		}
		if w, h, ok := mediaBoxSize(page); ok {
			pc.width, pc.height = w, h
		}

		var buf strings.Builder
		for _, t := range page.Content().Text {
			run := textRun{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S}
			pc.runs = append(pc.runs, run)
			idx := len(pc.runs) - 1
			for range t.S {
				pc.runAt = append(pc.runAt, idx)
			}
			buf.WriteString(t.S)
		}
		pc.text = buf.String()
		// runAt is indexed by byte, not rune; re-align for multibyte text.
		if len(pc.runAt) != len(pc.text) {
			pc.runAt = alignRunOffsets(pc.runs)
		}
		pages = append(pages, pc)
	}
	return pages, nil
}

// alignRunOffsets rebuilds the byte-offset to run index table.
func alignRunOffsets(runs []textRun) []int {
	var out []int
	for i, r := range runs {
		for range []byte(r.S) {
			out = append(out, i)
		}
	}
	return out
}

// locateSelection finds the selection's bounding box in page space, matching
// case-insensitively the way search does.
func locateSelection(pg pageContent, selection string) (models.Rect, bool) {
	lower := strings.ToLower(pg.text)
	start := strings.Index(lower, strings.ToLower(selection))
	if start < 0 || len(pg.runAt) == 0 {
		return models.Rect{}, false
	}
	end := start + len(selection)
	if end > len(pg.runAt) {
		end = len(pg.runAt)
	}

	minX, maxX := pg.width, 0.0
	minY, maxY := pg.height, 0.0
	for off := start; off < end; off++ {
		r := pg.runs[pg.runAt[off]]
		if r.X < minX {
			minX = r.X
		}
		if r.X+r.W > maxX {
			maxX = r.X + r.W
		}
		if r.Y < minY {
			minY = r.Y
		}
		if r.Y+r.FontSize > maxY {
			maxY = r.Y + r.FontSize
		}
	}
	if maxX <= minX || maxY <= minY {
		return models.Rect{}, false
	}
	return models.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

func clampPage(n, count int) int {
	if count == 0 {
		return 1
	}
	if n < 1 {
		return 1
	}
	if n > count {
		return count
	}
	return n
}

func clampScale(s float64) float64 {
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}

func mediaBoxSize(page pdf.Page) (w, h float64, ok bool) {
	box := page.V.Key("MediaBox")
	if box.Kind() != pdf.Array || box.Len() != 4 {
		return 0, 0, false
	}
	x0, y0 := box.Index(0).Float64(), box.Index(1).Float64()
	x1, y1 := box.Index(2).Float64(), box.Index(3).Float64()
	if x1 <= x0 || y1 <= y0 {
		return 0, 0, false
	}
	return x1 - x0, y1 - y0, true
}
