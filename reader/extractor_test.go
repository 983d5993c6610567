package reader

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"hotelprices/logger"
	"hotelprices/models"
)

const (
	headingSel = "h4[class*='hotel-heading']"
	priceSel   = "[class*='price']"
)

// fakeRow is a RowElement whose children are looked up by selector.
type fakeRow struct {
	text     string
	markup   string
	children map[string][]RowElement
	findErr  error
	textErr  error
}

func (r fakeRow) FindChildren(selector string) ([]RowElement, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.children[selector], nil
}

func (r fakeRow) Text() (string, error)      { return r.text, r.textErr }
func (r fakeRow) RawMarkup() (string, error) { return r.markup, nil }

func texts(values ...string) []RowElement {
	out := make([]RowElement, 0, len(values))
	for _, v := range values {
		out = append(out, fakeRow{text: v})
	}
	return out
}

func room(headings []string, prices ...string) fakeRow {
	return fakeRow{
		markup: "<div class=\"row room-row-list\"></div>",
		children: map[string][]RowElement{
			headingSel: texts(headings...),
			priceSel:   texts(prices...),
		},
	}
}

func prices(values ...string) models.PriceSet {
	out := make(models.PriceSet, 0, len(values))
	for _, v := range values {
		out = append(out, decimal.RequireFromString(v))
	}
	return out
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		text string
		want string
		ok   bool
	}{
		{"$1,234.50 / night", "1234.5", true},
		{"USD 899", "899", true},
		{"  450.00 ", "450", true},
		{"1 of 2", "", false},
		{"Call for price", "", false},
		{"", "", false},
		{"...", "", false},
		{"1.2.3", "", false},
	}
	for _, c := range cases {
		got, ok := ParsePrice(c.text)
		require.Equal(t, c.ok, ok, c.text)
		if c.ok {
			require.True(t, got.Equal(decimal.RequireFromString(c.want)), "%q parsed to %s", c.text, got)
		}
	}
}

func TestExtractPreservesRowOrder(t *testing.T) {
	ex := NewExtractor(headingSel, priceSel, logger.Discard())

	rows := []RowElement{
		room([]string{"Ocean Suite"}, "$1,200", "$1,100", "$1,200"),
		room([]string{"", "Garden Room"}, "$300", "1 of 2"),
		room(nil, "$99"),
		room([]string{"", ""}, "$99"),
		room([]string{"Sold Out Villa"}, "Sold out"),
		room([]string{"Penthouse"}, "2,500.00"),
	}

	got := ex.Extract(rows)
	want := []models.RoomQuote{
		{RoomName: "Ocean Suite", Prices: prices("1100", "1200")},
		{RoomName: "Garden Room", Prices: prices("300")},
		{RoomName: "Penthouse", Prices: prices("2500")},
	}
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].RoomName, got[i].RoomName)
		require.Len(t, got[i].Prices, len(want[i].Prices))
		for j := range want[i].Prices {
			require.True(t, want[i].Prices[j].Equal(got[i].Prices[j]))
		}
	}
}

func TestExtractSkipsFailingRows(t *testing.T) {
	var buf bytes.Buffer
	log := logger.Discard()
	log.SetOutput(&buf)

	broken := fakeRow{markup: "<div id=\"broken\"></div>", findErr: errors.New("stale element")}
	badText := room([]string{"Ocean Suite"})
	badText.children[headingSel] = []RowElement{fakeRow{textErr: errors.New("detached")}}

	ex := NewExtractor(headingSel, priceSel, log)
	got := ex.Extract([]RowElement{broken, badText, room([]string{"Garden Room"}, "$300")})

	require.Len(t, got, 1)
	require.Equal(t, "Garden Room", got[0].RoomName)
	require.Contains(t, buf.String(), "broken")
	require.Contains(t, buf.String(), "failed to extract room row")
}

const bookingPage = `<html><body>
<div class="row room-row-list">
  <h4 class="hotel-heading"> </h4>
  <h4 class="hotel-heading big">  One Bedroom Ocean Front Suite </h4>
  <span class="room-price">$1,499.00</span>
  <span class="price-strike">$1,799.00</span>
  <span class="price-note">Save 10 of 20</span>
</div>
<div class="row room-row-list">
  <h4 class="hotel-heading">Junior Suite</h4>
  <span class="price">Sold out</span>
</div>
<div class="row room-row-list">
  <h4 class="hotel-heading">1 Junior Suite Island View</h4>
  <div class="rate-price">899</div>
  <div class="rate-price">899</div>
</div>
<div class="row other">
  <h4 class="hotel-heading">Not a room</h4>
  <span class="price">$1</span>
</div>
</body></html>`

func TestExtractFromDocument(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(bookingPage))
	require.NoError(t, err)

	rows := RowsFromDocument(doc, "div.row.room-row-list")
	require.Len(t, rows, 3)

	markup, err := rows[1].RawMarkup()
	require.NoError(t, err)
	require.Contains(t, markup, "Junior Suite")

	got := NewExtractor(headingSel, priceSel, logger.Discard()).Extract(rows)
	require.Len(t, got, 2)
	require.Equal(t, "One Bedroom Ocean Front Suite", got[0].RoomName)
	require.Equal(t, "1499", got[0].Prices[0].String())
	require.Equal(t, "1799", got[0].Prices[1].String())
	require.Equal(t, "1 Junior Suite Island View", got[1].RoomName)
	require.Len(t, got[1].Prices, 1)
}
