// Package export renders the lead collection as CSV with a fixed column
// order, for download or file export.
package export

import (
	"encoding/csv"
	"io"

	"github.com/jasonsutter87/marketing-lead-generation/internal/model"
)

// Header is the fixed CSV column order.
var Header = []string{
	"name", "category", "website", "phone", "email", "address",
	"city", "state", "hasAnalytics", "hasPixel", "scrapedAt", "source",
}

// WriteCSV writes the lead collection to w. Tracking flags render as YES
// or blank; quoting follows RFC 4180 (fields containing a comma, quote or
// newline are quoted with internal quotes doubled).
func WriteCSV(w io.Writer, leads []model.Lead) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return err
	}

	for _, l := range leads {
		analytics, pixel := "", ""
		if l.Tracking != nil {
			if l.Tracking.HasAnalytics {
				analytics = "YES"
			}
			if l.Tracking.HasPixel {
				pixel = "YES"
			}
		}

		scrapedAt := ""
		if !l.ScrapedAt.IsZero() {
			scrapedAt = l.ScrapedAt.UTC().Format("2006-01-02T15:04:05Z")
		}

		if err := cw.Write([]string{
			l.Name, l.Category, l.Website, l.Phone, l.Email, l.Address,
			l.City, l.State, analytics, pixel, scrapedAt, l.Source,
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
