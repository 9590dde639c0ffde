// Package documents acquires the authoritative filing documents: it walks
// the disclosure portal's announcement feed, downloads the PDFs, converts
// them to text, and records each file in the store so the reconciliation
// engine can locate the text later.
package documents

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fundamentals-cli/internal/fetcher"
	"github.com/sells-group/fundamentals-cli/internal/model"
)

// httpClient is the transport surface the portal needs. HTTPFetcher
// satisfies it.
type httpClient interface {
	PostForm(ctx context.Context, rawURL string, form url.Values) (io.ReadCloser, error)
	DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error)
}

// Announcement is one filing entry from the portal feed.
type Announcement struct {
	Title      string `json:"announcementTitle"`
	AdjunctURL string `json:"adjunctUrl"`
}

type announcementPage struct {
	Announcements []Announcement `json:"announcements"`
	HasMore       bool           `json:"hasMore"`
}

type orgEntry struct {
	Code  string `json:"code"`
	OrgID string `json:"orgId"`
}

// PortalClient speaks the disclosure portal's form-POST JSON API.
type PortalClient struct {
	http    httpClient
	baseURL string
}

// NewPortalClient wires a PortalClient against baseURL.
func NewPortalClient(http httpClient, baseURL string) *PortalClient {
	return &PortalClient{http: http, baseURL: strings.TrimRight(baseURL, "/")}
}

// OrgID resolves the portal's internal organisation id for a stock code.
// Announcement queries work without it but return far noisier results, so a
// lookup miss is reported as empty, not as an error.
func (p *PortalClient) OrgID(ctx context.Context, stockCode string) (string, error) {
	body, err := p.http.PostForm(ctx, p.baseURL+"/new/information/topSearch/query", url.Values{
		"keyWord": {stockCode},
	})
	if err != nil {
		return "", eris.Wrapf(err, "documents: org lookup for %s", stockCode)
	}
	defer body.Close()

	entries, errs := fetcher.DecodeJSONArray[orgEntry](ctx, body)
	var orgID string
	for e := range entries {
		if orgID == "" && e.Code == stockCode {
			orgID = e.OrgID
		}
	}
	if err := <-errs; err != nil {
		return "", eris.Wrapf(err, "documents: decode org lookup for %s", stockCode)
	}
	return orgID, nil
}

// Announcements pages through the portal's periodic-report feed for the
// stock, newest first, covering the lookback window. Summaries and
// cancelled filings are filtered out and highlight markup is stripped.
func (p *PortalClient) Announcements(ctx context.Context, stockCode string, market model.Market, lookbackDays int) ([]Announcement, error) {
	orgID, err := p.OrgID(ctx, stockCode)
	if err != nil {
		return nil, err
	}
	stockParam := stockCode
	if orgID != "" {
		stockParam = stockCode + "," + orgID
	}

	end := time.Now()
	start := end.AddDate(0, 0, -lookbackDays)

	form := url.Values{
		"pageSize":  {"30"},
		"tabName":   {"fulltext"},
		"stock":     {stockParam},
		"seDate":    {fmt.Sprintf("%s~%s", start.Format("2006-01-02"), end.Format("2006-01-02"))},
		"isHLtitle": {"true"},
	}
	switch market {
	case model.MarketHK:
		form.Set("column", "hke")
		form.Set("category", "category_ndbg_hkhk;category_bndbg_hkhk")
	default:
		if strings.HasPrefix(stockCode, "6") {
			form.Set("column", "sse")
		} else {
			form.Set("column", "szse")
		}
		form.Set("category", "category_ndbg_szsh;category_bndbg_szsh;category_yjdbg_szsh;category_sjdbg_szsh")
	}

	var out []Announcement
	for page := 1; ; page++ {
		form.Set("pageNum", strconv.Itoa(page))
		pageData, err := p.queryPage(ctx, form)
		if err != nil {
			return nil, eris.Wrapf(err, "documents: announcement page %d for %s", page, stockCode)
		}
		for _, ann := range pageData.Announcements {
			ann.Title = CleanTitle(ann.Title)
			if isExcluded(ann.Title) {
				continue
			}
			out = append(out, ann)
		}
		if !pageData.HasMore {
			break
		}
	}
	return out, nil
}

func (p *PortalClient) queryPage(ctx context.Context, form url.Values) (*announcementPage, error) {
	body, err := p.http.PostForm(ctx, p.baseURL+"/new/hisAnnouncement/query", form)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return fetcher.DecodeJSONObject[announcementPage](body)
}
