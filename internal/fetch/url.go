package fetch

import (
	"net/url"
	"time"
)

// SiteBase is the scheme+host of the procurement portal. Relative detail
// links from result rows are resolved against it.
const SiteBase = "https://dauthau.asia"

const searchPath = SiteBase + "/thongbao/moithau/"

// dateLayout is the portal's display date format (dd/mm/yyyy).
const dateLayout = "02/01/2006"

// Query is one search: a keyword over an inclusive posting-date window.
type Query struct {
	Keyword string
	From    string // dd/mm/yyyy
	To      string // dd/mm/yyyy
}

// QueryUpTo builds the rolling window ending at now.
func QueryUpTo(keyword, from string, now time.Time) Query {
	return Query{Keyword: keyword, From: from, To: now.Format(dateLayout)}
}

// BuildURL renders the full search URL. The long filter tail reproduces the
// portal's invitation-to-bid search form with every facet left at its
// default; only the keyword and date range vary.
func BuildURL(q Query) string {
	params := url.Values{}
	params.Set("q", q.Keyword)
	params.Set("type_search", "1")
	params.Set("type_info", "1")
	params.Set("type_info3", "1")
	params.Set("sfrom", q.From)
	params.Set("sto", q.To)
	params.Set("is_advance", "0")
	params.Set("is_province", "0")
	params.Set("is_kqlcnt", "0")
	params.Add("type_choose_id", "0")
	params.Add("type_choose_id", "0")
	params.Set("search_idprovincekq", "1")
	params.Set("search_idprovince_khtt", "1")
	params.Set("goods_2", "0")
	params.Set("searchkind", "0")
	params.Set("type_view_open", "0")
	params.Set("sl_nhathau", "0")
	params.Set("sl_nhathau_cgtt", "0")
	params.Set("search_idprovince", "1")
	params.Set("type_org", "1")
	params.Set("goods", "0")
	params.Set("cat", "0")
	params.Set("keyword_id_province", "0")
	params.Set("oda", "-1")
	params.Set("khlcnt", "0")
	params.Add("search_rq_province", "-1")
	params.Add("search_rq_province", "1")
	params.Set("rq_form_value", "0")
	params.Set("searching", "1")
	return searchPath + "?" + params.Encode()
}
