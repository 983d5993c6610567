package reader

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// selectionRow adapts a single-node goquery selection to RowElement.
type selectionRow struct {
	sel *goquery.Selection
}

// RowsFromDocument returns the elements of doc matched by selector.
func RowsFromDocument(doc *goquery.Document, selector string) []RowElement {
	return rowsFromSelection(doc.Find(selector))
}

func rowsFromSelection(sel *goquery.Selection) []RowElement {
	rows := make([]RowElement, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		rows = append(rows, selectionRow{sel: s})
	})
	return rows
}

func (r selectionRow) FindChildren(selector string) ([]RowElement, error) {
	return rowsFromSelection(r.sel.Find(selector)), nil
}

func (r selectionRow) Text() (string, error) {
	return strings.TrimSpace(r.sel.Text()), nil
}

func (r selectionRow) RawMarkup() (string, error) {
	return goquery.OuterHtml(r.sel)
}
