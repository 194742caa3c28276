package reserve

import (
	"fmt"
	"io"
	"strings"

	"campsite_notification_bot/internal/domain/availability"

	"github.com/PuerkitoBio/goquery"
)

// ErrParse is returned when the result page lacks the expected structure.
var ErrParse = fmt.Errorf("unexpected result page structure")

const (
	resultsBoxSelector  = "div.table_data_box"
	detailBlockSelector = "div.row"
	actionSelector      = "div.btnFacilityclick"
)

// detailSource says where a row's unit/availability block was found.
// The site renders the same logical block in one of two places.
type detailSource int

const (
	detailMissing  detailSource = iota
	detailSibling               // inside the cell following the facility cell
	detailSameCell              // inside the facility cell itself
)

func (d detailSource) String() string {
	switch d {
	case detailSibling:
		return "sibling"
	case detailSameCell:
		return "same-cell"
	default:
		return "missing"
	}
}

// ParseRows extracts the facility rows from a search result page.
func ParseRows(r io.Reader) ([]availability.Row, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	box := doc.Find(freshResultsSelector).First()
	if box.Length() == 0 {
		return nil, fmt.Errorf("%w: no %s container", ErrParse, resultsBoxSelector)
	}

	trs := box.Find("tr")
	if trs.Length() <= 1 {
		return []availability.Row{}, nil
	}

	rows := make([]availability.Row, 0, trs.Length()-1)
	var parseErr error
	trs.Slice(1, goquery.ToEnd).EachWithBreak(func(i int, tr *goquery.Selection) bool {
		detail, src := locateDetail(tr)
		if src == detailMissing {
			parseErr = fmt.Errorf("%w: row %d has no unit block", ErrParse, i+1)
			return false
		}
		rows = append(rows, availability.Row{
			Facility:  facility(tr),
			UnitType:  unitType(detail),
			Available: availability.IsReserveLabel(strings.TrimSpace(detail.Find(actionSelector).First().Text())),
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return rows, nil
}

// facility reads the label nested in the first cell, or the unknown sentinel.
func facility(tr *goquery.Selection) string {
	span := tr.Find("td").First().Find("div").First().Find("span").First()
	if span.Length() == 0 {
		return availability.UnknownFacility
	}
	return strings.TrimSpace(span.Text())
}

// locateDetail tries the sibling cell first, then the facility cell.
func locateDetail(tr *goquery.Selection) (*goquery.Selection, detailSource) {
	first := tr.Find("td").First()
	if first.Length() == 0 {
		return nil, detailMissing
	}

	if block := first.Next().Find(detailBlockSelector).First(); block.Length() > 0 {
		return block, detailSibling
	}
	if block := first.Find(detailBlockSelector).First(); block.Length() > 0 {
		return block, detailSameCell
	}
	return nil, detailMissing
}

// unitType is the text of the element wrapping the unit icon.
func unitType(detail *goquery.Selection) string {
	img := detail.Find("img").First()
	if img.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(img.Parent().Text())
}
