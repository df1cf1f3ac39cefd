// Package extract parses rendered search-page markup into bid records.
package extract

import (
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Can0Ngu1/bot-web/internal/fetch"
	"github.com/Can0Ngu1/bot-web/internal/model"
)

// Column selectors for one result row. The portal labels cells with
// data-column attributes, so columns are read by label, never by position.
const (
	selCode      = "span.bidding-code"
	selTitleLink = "td[data-column='Gói thầu'] a"
	selPostDate  = "td[data-column='Ngày đăng tải']"
	selCloseDate = "td[data-column='Ngày đóng thầu']"
	selOrg       = "td[data-column='Bên mời thầu']"
)

// Records extracts bid candidates from rendered markup, in document order.
// Rows that carry a code marker or title cell but fail to produce a valid
// record are skipped with a warning and counted in the second return value;
// header and layout rows are ignored silently. A bad row never aborts the
// rest of the page.
func Records(html string) ([]model.BidRecord, int) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Printf("[extract] Unparseable markup: %v", err)
		return nil, 0
	}

	var records []model.BidRecord
	skipped := 0

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		code := row.Find(selCode).First()
		title := row.Find(selTitleLink).First()
		if code.Length() == 0 && title.Length() == 0 {
			return // not a data row
		}

		b := model.NewBuilder().
			Code(code.Text()).
			Title(title.Text()).
			PostDate(row.Find(selPostDate).First().Text()).
			CloseDate(row.Find(selCloseDate).First().Text()).
			Org(row.Find(selOrg).First().Text())
		if href, ok := title.Attr("href"); ok {
			b.Link(absoluteLink(href))
		}

		rec, err := b.Build()
		if err != nil {
			skipped++
			log.Printf("[extract] Skipping row: %v", err)
			return
		}
		records = append(records, rec)
	})

	if skipped > 0 {
		log.Printf("[extract] Extracted %d candidate(s), skipped %d malformed row(s)", len(records), skipped)
	}
	return records, skipped
}

func absoluteLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return fetch.SiteBase + href
}
