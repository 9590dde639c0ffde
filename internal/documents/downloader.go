package documents

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fundamentals-cli/internal/model"
	"github.com/sells-group/fundamentals-cli/internal/ocr"
	"github.com/sells-group/fundamentals-cli/internal/store"
)

// Downloader fetches the periodic-report PDFs for a stock, converts them to
// text, and records every file in the store. One bad document never aborts
// the batch; its failure lands in the file record's parse status instead.
type Downloader struct {
	portal    *PortalClient
	http      httpClient
	store     store.Store
	extractor ocr.Extractor
	baseDir   string
	staticURL string
}

// DownloaderOptions configures a Downloader.
type DownloaderOptions struct {
	// BaseDir is the root downloads directory; files land under
	// BaseDir/<stock_code>/.
	BaseDir string
	// StaticBaseURL hosts the PDF adjuncts referenced by the feed.
	StaticBaseURL string
}

// NewDownloader wires a Downloader.
func NewDownloader(portal *PortalClient, http httpClient, st store.Store, extractor ocr.Extractor, opts DownloaderOptions) *Downloader {
	staticURL := opts.StaticBaseURL
	if staticURL == "" {
		staticURL = "http://static.cninfo.com.cn"
	}
	return &Downloader{
		portal:    portal,
		http:      http,
		store:     st,
		extractor: extractor,
		baseDir:   opts.BaseDir,
		staticURL: strings.TrimRight(staticURL, "/"),
	}
}

// Download walks the announcement feed for the stock over the lookback
// window and acquires every periodic report. Returns the number of files
// recorded.
func (d *Downloader) Download(ctx context.Context, stockCode string, market model.Market, lookbackDays int) (int, error) {
	anns, err := d.portal.Announcements(ctx, stockCode, market, lookbackDays)
	if err != nil {
		return 0, err
	}

	saveDir := filepath.Join(d.baseDir, stockCode)
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		return 0, eris.Wrapf(err, "documents: create dir %s", saveDir)
	}

	recorded := 0
	for _, ann := range anns {
		period, rt, ok := ParseTitle(ann.Title)
		if !ok {
			zap.L().Debug("skipping unclassifiable title",
				zap.String("stock", stockCode),
				zap.String("title", ann.Title),
			)
			continue
		}
		if err := d.acquire(ctx, stockCode, period, rt, ann, saveDir); err != nil {
			zap.L().Warn("document acquisition failed",
				zap.String("stock", stockCode),
				zap.String("title", ann.Title),
				zap.Error(err),
			)
			continue
		}
		recorded++
	}

	zap.L().Info("documents downloaded",
		zap.String("stock", stockCode),
		zap.Int("announcements", len(anns)),
		zap.Int("recorded", recorded),
	)
	return recorded, nil
}

// acquire downloads one PDF if absent, converts it to text, and upserts the
// file record. A conversion failure still records the file as FAILED so the
// download is not repeated next run.
func (d *Downloader) acquire(ctx context.Context, stockCode, period string, rt model.ReportType, ann Announcement, saveDir string) error {
	pdfPath := filepath.Join(saveDir, ann.Title+".pdf")

	if _, err := os.Stat(pdfPath); os.IsNotExist(err) {
		pdfURL := d.staticURL + "/" + strings.TrimLeft(ann.AdjunctURL, "/")
		if _, err := d.http.DownloadToFile(ctx, pdfURL, pdfPath); err != nil {
			return eris.Wrapf(err, "documents: download %s", ann.Title)
		}
	}

	rec := model.DocumentFileRecord{
		StockCode:    stockCode,
		ReportPeriod: period,
		ReportType:   rt,
		FileType:     "PDF",
		FilePath:     pdfPath,
	}
	if info, err := os.Stat(pdfPath); err == nil {
		rec.FileSize = info.Size()
	}

	txtPath, err := d.convert(ctx, pdfPath)
	if err != nil {
		zap.L().Warn("text conversion failed",
			zap.String("pdf", pdfPath),
			zap.Error(err),
		)
		rec.ParseStatus = model.ParseFailed
	} else {
		rec.TxtPath = txtPath
		rec.ParseStatus = model.ParseSuccess
	}

	if err := d.store.UpsertFile(ctx, rec); err != nil {
		return err
	}
	return nil
}

// convert extracts text next to the PDF, reusing an existing .txt.
func (d *Downloader) convert(ctx context.Context, pdfPath string) (string, error) {
	txtPath := strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + ".txt"
	if _, err := os.Stat(txtPath); err == nil {
		return txtPath, nil
	}

	text, err := d.extractor.ExtractText(ctx, pdfPath)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(txtPath, []byte(text), 0o644); err != nil {
		return "", eris.Wrapf(err, "documents: write %s", txtPath)
	}
	return txtPath, nil
}
