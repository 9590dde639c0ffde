package statements

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fundamentals-cli/internal/fetcher"
	"github.com/sells-group/fundamentals-cli/internal/fieldmap"
)

// WideProvider serves wide-format statement tables (domestic listings).
type WideProvider interface {
	StatementTable(ctx context.Context, stockCode string, kind Kind) (*fieldmap.WideTable, error)
}

// LongProvider serves long-format statement tables (cross-border listings).
type LongProvider interface {
	StatementTable(ctx context.Context, stockCode string, kind Kind) (*fieldmap.LongTable, error)
}

// wideResponse is the domestic provider's JSON payload: period ends plus one
// row per line item, values aligned with the period list.
type wideResponse struct {
	ReportDates []string `json:"report_dates"`
	Items       []struct {
		Name   string   `json:"name"`
		Values []string `json:"values"`
	} `json:"items"`
}

// HTTPWideProvider fetches wide statement tables from the domestic provider.
type HTTPWideProvider struct {
	f       fetcher.Fetcher
	baseURL string
}

// NewHTTPWideProvider creates a provider over the given fetcher.
func NewHTTPWideProvider(f fetcher.Fetcher, baseURL string) *HTTPWideProvider {
	return &HTTPWideProvider{f: f, baseURL: baseURL}
}

func (p *HTTPWideProvider) StatementTable(ctx context.Context, stockCode string, kind Kind) (*fieldmap.WideTable, error) {
	url := fmt.Sprintf("%s/api/financial/%s/%s.json", p.baseURL, kind, stockCode)
	body, err := p.f.Download(ctx, url)
	if err != nil {
		return nil, eris.Wrapf(err, "provider: fetch %s table for %s", kind, stockCode)
	}
	defer body.Close() //nolint:errcheck

	resp, err := fetcher.DecodeJSONObject[wideResponse](body)
	if err != nil {
		return nil, eris.Wrapf(err, "provider: decode %s table for %s", kind, stockCode)
	}

	table := fieldmap.NewWideTable()
	for _, item := range resp.Items {
		for i, period := range resp.ReportDates {
			if i >= len(item.Values) {
				break
			}
			table.SetCell(period, item.Name, item.Values[i])
		}
	}
	return table, nil
}

// longResponse is the cross-border provider's JSON payload, one entry per
// line item per period.
type longResponse struct {
	Result struct {
		Data []struct {
			ReportDate string `json:"REPORT_DATE"`
			ItemName   string `json:"STD_ITEM_NAME"`
			Amount     string `json:"AMOUNT"`
		} `json:"data"`
	} `json:"result"`
}

// HTTPLongProvider fetches long statement tables from the cross-border
// provider.
type HTTPLongProvider struct {
	f       fetcher.Fetcher
	baseURL string
}

// NewHTTPLongProvider creates a provider over the given fetcher.
func NewHTTPLongProvider(f fetcher.Fetcher, baseURL string) *HTTPLongProvider {
	return &HTTPLongProvider{f: f, baseURL: baseURL}
}

func (p *HTTPLongProvider) StatementTable(ctx context.Context, stockCode string, kind Kind) (*fieldmap.LongTable, error) {
	url := fmt.Sprintf("%s/api/hk/financial/%s/%s.json", p.baseURL, kind, stockCode)
	body, err := p.f.Download(ctx, url)
	if err != nil {
		return nil, eris.Wrapf(err, "provider: fetch hk %s table for %s", kind, stockCode)
	}
	defer body.Close() //nolint:errcheck

	resp, err := fetcher.DecodeJSONObject[longResponse](body)
	if err != nil {
		return nil, eris.Wrapf(err, "provider: decode hk %s table for %s", kind, stockCode)
	}

	table := &fieldmap.LongTable{}
	for _, d := range resp.Result.Data {
		table.Entries = append(table.Entries, fieldmap.LongEntry{
			Period: d.ReportDate,
			Item:   d.ItemName,
			Amount: d.Amount,
		})
	}
	return table, nil
}
