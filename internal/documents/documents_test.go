package documents

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fundamentals-cli/internal/model"
	"github.com/sells-group/fundamentals-cli/internal/store"
)

func TestParseTitle(t *testing.T) {
	tests := []struct {
		title  string
		period string
		rt     model.ReportType
		ok     bool
	}{
		{"贵州茅台2023年年度报告", "2023-12-31", model.ReportAnnual, true},
		{"贵州茅台2023年第三季度报告", "2023-09-30", model.ReportQ3, true},
		{"贵州茅台2024年第一季度报告", "2024-03-31", model.ReportQ1, true},
		{"贵州茅台2023年半年度报告", "2023-06-30", model.ReportH1, true},
		{"某公司2022年中报", "2022-06-30", model.ReportH1, true},
		{"某公司2022年三季报", "2022-09-30", model.ReportQ3, true},
		{"关于召开股东大会的通知", "", "", false},
		{"2023年度利润分配方案", "", "", false},
	}
	for _, tt := range tests {
		period, rt, ok := ParseTitle(tt.title)
		assert.Equal(t, tt.ok, ok, tt.title)
		assert.Equal(t, tt.period, period, tt.title)
		assert.Equal(t, tt.rt, rt, tt.title)
	}
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "贵州茅台2023年年度报告",
		CleanTitle(" <em>贵州茅台</em>2023年年度报告 "))
	assert.Equal(t, "A_B", CleanTitle("A/B"))
}

// fakeTransport serves canned portal responses and fake PDF downloads.
type fakeTransport struct {
	orgJSON      string
	pages        []string
	pageIdx      int
	lastForms    []url.Values
	downloadURLs []string
	downloadErr  error
}

func (f *fakeTransport) PostForm(_ context.Context, rawURL string, form url.Values) (io.ReadCloser, error) {
	f.lastForms = append(f.lastForms, form)
	if strings.Contains(rawURL, "topSearch") {
		return io.NopCloser(strings.NewReader(f.orgJSON)), nil
	}
	page := f.pages[f.pageIdx]
	if f.pageIdx < len(f.pages)-1 {
		f.pageIdx++
	}
	return io.NopCloser(strings.NewReader(page)), nil
}

func (f *fakeTransport) DownloadToFile(_ context.Context, rawURL string, path string) (int64, error) {
	f.downloadURLs = append(f.downloadURLs, rawURL)
	if f.downloadErr != nil {
		return 0, f.downloadErr
	}
	data := []byte("%PDF-1.4 fake")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// fakeExtractor stands in for pdftotext.
type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(context.Context, string) (string, error) {
	return f.text, f.err
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "documents.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestPortalOrgID(t *testing.T) {
	tr := &fakeTransport{
		orgJSON: `[{"code":"000001","orgId":"other"},{"code":"600519","orgId":"gssh0600519"}]`,
	}
	portal := NewPortalClient(tr, "http://portal.example")

	orgID, err := portal.OrgID(context.Background(), "600519")
	require.NoError(t, err)
	assert.Equal(t, "gssh0600519", orgID)

	orgID, err = portal.OrgID(context.Background(), "999999")
	require.NoError(t, err)
	assert.Empty(t, orgID)
}

func TestPortalAnnouncementsPagesAndFilters(t *testing.T) {
	tr := &fakeTransport{
		orgJSON: `[{"code":"600519","orgId":"gssh0600519"}]`,
		pages: []string{
			`{"announcements":[
				{"announcementTitle":"<em>贵州茅台</em>2023年年度报告","adjunctUrl":"finalpage/2024/a.pdf"},
				{"announcementTitle":"贵州茅台2023年年度报告摘要","adjunctUrl":"finalpage/2024/b.pdf"}
			],"hasMore":true}`,
			`{"announcements":[
				{"announcementTitle":"贵州茅台2023年第三季度报告","adjunctUrl":"finalpage/2023/c.pdf"}
			],"hasMore":false}`,
		},
	}
	portal := NewPortalClient(tr, "http://portal.example")

	anns, err := portal.Announcements(context.Background(), "600519", model.MarketCN, 365)
	require.NoError(t, err)
	require.Len(t, anns, 2)
	assert.Equal(t, "贵州茅台2023年年度报告", anns[0].Title)
	assert.Equal(t, "贵州茅台2023年第三季度报告", anns[1].Title)

	// page two of the query, index 2 of the recorded forms (org lookup first)
	require.Len(t, tr.lastForms, 3)
	query := tr.lastForms[1]
	assert.Equal(t, "600519,gssh0600519", query.Get("stock"))
	assert.Equal(t, "sse", query.Get("column"))
	assert.Equal(t, "2", tr.lastForms[2].Get("pageNum"))
}

func TestPortalHKCategory(t *testing.T) {
	tr := &fakeTransport{
		orgJSON: `[]`,
		pages:   []string{`{"announcements":[],"hasMore":false}`},
	}
	portal := NewPortalClient(tr, "http://portal.example")

	_, err := portal.Announcements(context.Background(), "00700", model.MarketHK, 365)
	require.NoError(t, err)
	query := tr.lastForms[1]
	assert.Equal(t, "hke", query.Get("column"))
	assert.Equal(t, "00700", query.Get("stock"))
}

func TestDownloaderRecordsFiles(t *testing.T) {
	tr := &fakeTransport{
		orgJSON: `[{"code":"600519","orgId":"gssh0600519"}]`,
		pages: []string{`{"announcements":[
			{"announcementTitle":"贵州茅台2023年年度报告","adjunctUrl":"finalpage/2024/a.pdf"},
			{"announcementTitle":"关于召开股东大会的通知","adjunctUrl":"finalpage/2024/n.pdf"}
		],"hasMore":false}`},
	}
	st := newTestStore(t)
	dir := t.TempDir()
	dl := NewDownloader(NewPortalClient(tr, "http://portal.example"), tr, st,
		&fakeExtractor{text: "营业总收入 1,476.94亿元"},
		DownloaderOptions{BaseDir: dir, StaticBaseURL: "http://static.example"},
	)

	n, err := dl.Download(context.Background(), "600519", model.MarketCN, 365)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, tr.downloadURLs, 1)
	assert.Equal(t, "http://static.example/finalpage/2024/a.pdf", tr.downloadURLs[0])

	files, err := st.ListFiles(context.Background(), "600519")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "2023-12-31", files[0].ReportPeriod)
	assert.Equal(t, model.ReportAnnual, files[0].ReportType)
	assert.Equal(t, model.ParseSuccess, files[0].ParseStatus)
	assert.FileExists(t, files[0].TxtPath)

	txtPath, err := st.LocateText(context.Background(), "600519", "2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, files[0].TxtPath, txtPath)
}

func TestDownloaderConversionFailureIsRecorded(t *testing.T) {
	tr := &fakeTransport{
		orgJSON: `[]`,
		pages: []string{`{"announcements":[
			{"announcementTitle":"贵州茅台2023年年度报告","adjunctUrl":"finalpage/2024/a.pdf"}
		],"hasMore":false}`},
	}
	st := newTestStore(t)
	dl := NewDownloader(NewPortalClient(tr, "http://portal.example"), tr, st,
		&fakeExtractor{err: assert.AnError},
		DownloaderOptions{BaseDir: t.TempDir()},
	)

	n, err := dl.Download(context.Background(), "600519", model.MarketCN, 365)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	files, err := st.ListFiles(context.Background(), "600519")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, model.ParseFailed, files[0].ParseStatus)
	assert.Empty(t, files[0].TxtPath)

	// no text means the reconciliation engine cannot find this period
	txtPath, err := st.LocateText(context.Background(), "600519", "2023-12-31")
	require.NoError(t, err)
	assert.Empty(t, txtPath)
}

func TestDownloaderSkipsExistingPDF(t *testing.T) {
	tr := &fakeTransport{
		orgJSON: `[]`,
		pages: []string{`{"announcements":[
			{"announcementTitle":"贵州茅台2023年年度报告","adjunctUrl":"finalpage/2024/a.pdf"}
		],"hasMore":false}`},
	}
	st := newTestStore(t)
	dir := t.TempDir()
	saveDir := filepath.Join(dir, "600519")
	require.NoError(t, os.MkdirAll(saveDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(saveDir, "贵州茅台2023年年度报告.pdf"), []byte("%PDF-1.4"), 0o644))

	dl := NewDownloader(NewPortalClient(tr, "http://portal.example"), tr, st,
		&fakeExtractor{text: "text"},
		DownloaderOptions{BaseDir: dir},
	)

	n, err := dl.Download(context.Background(), "600519", model.MarketCN, 365)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, tr.downloadURLs, "existing PDF must not be re-downloaded")
}
