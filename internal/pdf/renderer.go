// Package pdf renders printable document HTML to PDF through a
// headless Chrome instance and validates the result before it is
// stored or mailed.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 30 * time.Second

	// A4 in inches, Chrome's print unit
	a4Width  = 8.27
	a4Height = 11.69
	marginIn = 0.4
)

// Config holds renderer configuration
type Config struct {
	// Timeout bounds one render
	Timeout time.Duration
	// RemoteURL points at an already running Chrome instance; when
	// empty a local headless browser is launched
	RemoteURL string
	// NoSandbox is required when running as root inside containers
	NoSandbox bool
	Logger    *zap.Logger
}

// Renderer converts HTML to A4 portrait PDF via the DevTools protocol
type Renderer struct {
	timeout     time.Duration
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewRenderer creates a renderer and its Chrome allocator
func NewRenderer(cfg Config) *Renderer {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Renderer{timeout: timeout, logger: logger}

	if cfg.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return r
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r
}

// Render prints the HTML document to PDF and validates the output
func (r *Renderer) Render(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, fmt.Errorf("render: empty html")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx)
	defer browserCancel()

	start := time.Now()
	var data []byte

	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4Width).
				WithPaperHeight(a4Height).
				WithMarginTop(marginIn).
				WithMarginRight(marginIn).
				WithMarginBottom(marginIn).
				WithMarginLeft(marginIn).
				WithLandscape(false).
				Do(ctx)
			if err != nil {
				return err
			}
			data = out
			return nil
		}),
	)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("render timed out after %v: %w", r.timeout, err)
		}
		r.logger.Error("chromedp render failed", zap.Error(err))
		return nil, fmt.Errorf("render: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("render: empty pdf output")
	}

	pages, err := ValidatePDF(data)
	if err != nil {
		return nil, err
	}

	r.logger.Info("pdf rendered",
		zap.Int("bytes", len(data)),
		zap.Int("pages", pages),
		zap.Duration("duration", time.Since(start)))
	return data, nil
}

// Close releases the Chrome allocator
func (r *Renderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

// ValidatePDF checks the bytes are a well-formed PDF and returns its
// page count
func ValidatePDF(data []byte) (int, error) {
	conf := pdfmodel.NewDefaultConfiguration()
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return 0, fmt.Errorf("validate pdf: %w", err)
	}
	pages, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("count pdf pages: %w", err)
	}
	return pages, nil
}
