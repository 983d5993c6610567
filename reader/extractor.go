package reader

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"hotelprices/logger"
	"hotelprices/models"
)

// RowElement is one room row of a rendered booking page, or any element
// found below it.
type RowElement interface {
	FindChildren(selector string) ([]RowElement, error)
	// Text returns the trimmed text content.
	Text() (string, error)
	RawMarkup() (string, error)
}

var priceRun = regexp.MustCompile(`[0-9.,]+`)

// ParsePrice accepts text holding exactly one run of digits and separators,
// such as "$1,234.50 / night". Thousands separators are dropped.
func ParsePrice(text string) (decimal.Decimal, bool) {
	runs := priceRun.FindAllString(text, -1)
	if len(runs) != 1 {
		return decimal.Decimal{}, false
	}
	price, err := decimal.NewFromString(strings.ReplaceAll(runs[0], ",", ""))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return price, true
}

// Extractor turns room rows into quotes.
type Extractor struct {
	headingSelector string
	priceSelector   string
	log             *logger.Log
}

func NewExtractor(headingSelector, priceSelector string, log *logger.Log) *Extractor {
	return &Extractor{
		headingSelector: headingSelector,
		priceSelector:   priceSelector,
		log:             log,
	}
}

// Extract returns one quote per row that yields at least one price, in row
// order. A row that fails is logged with its markup and skipped.
func (e *Extractor) Extract(rows []RowElement) []models.RoomQuote {
	log := e.log.WithComponent("extractor")

	quotes := make([]models.RoomQuote, 0, len(rows))
	for i, row := range rows {
		quote, ok, err := e.extractRow(row)
		if err != nil {
			markup, markupErr := row.RawMarkup()
			if markupErr != nil {
				markup = fmt.Sprintf("<unavailable: %v>", markupErr)
			}
			log.WithError(err).WithFields(logger.Fields{
				"row":    i,
				"markup": markup,
			}).Error("failed to extract room row")
			continue
		}
		if !ok {
			continue
		}
		quotes = append(quotes, quote)
	}
	return quotes
}

func (e *Extractor) extractRow(row RowElement) (models.RoomQuote, bool, error) {
	headings, err := row.FindChildren(e.headingSelector)
	if err != nil {
		return models.RoomQuote{}, false, fmt.Errorf("find headings: %w", err)
	}

	var name string
	for _, h := range headings {
		text, err := h.Text()
		if err != nil {
			return models.RoomQuote{}, false, fmt.Errorf("read heading: %w", err)
		}
		if text != "" {
			name = text
			break
		}
	}
	if name == "" {
		return models.RoomQuote{}, false, nil
	}

	elements, err := row.FindChildren(e.priceSelector)
	if err != nil {
		return models.RoomQuote{}, false, fmt.Errorf("find prices: %w", err)
	}

	prices := make([]decimal.Decimal, 0, len(elements))
	for _, el := range elements {
		text, err := el.Text()
		if err != nil {
			return models.RoomQuote{}, false, fmt.Errorf("read price: %w", err)
		}
		if price, ok := ParsePrice(text); ok {
			prices = append(prices, price)
		}
	}
	if len(prices) == 0 {
		return models.RoomQuote{}, false, nil
	}

	return models.RoomQuote{RoomName: name, Prices: models.NewPriceSet(prices)}, true, nil
}
