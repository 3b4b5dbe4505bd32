package tables

import "github.com/tsawler/timetable/model"

func frag(text string, x, y float64) model.TextFragment {
	return model.TextFragment{Text: text, BBox: model.NewBBox(x, y, 20, 8), FontSize: 8}
}

// timeRow builds one printed row of words at the given x positions.
func timeRow(y float64, xs []float64, texts []string) []model.TextFragment {
	frags := make([]model.TextFragment, len(xs))
	for i, x := range xs {
		frags[i] = frag(texts[i], x, y)
	}
	return frags
}

func tok(text string, x, y float64) Token {
	t, ok := ClassifyToken(frag(text, x, y), DefaultConfig().ClosedMarkers)
	if !ok {
		panic("test token does not classify: " + text)
	}
	return t
}

func newPage(width, height float64, frags ...[]model.TextFragment) *model.Page {
	page := model.NewPage(width, height)
	page.Number = 1
	for _, group := range frags {
		for _, f := range group {
			page.AddFragment(f)
		}
	}
	return page
}
