// Package pdf prints rendered report HTML to A4 PDF through headless Chrome.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/reports"
)

const ContentType = "application/pdf"

// A4 in inches, the unit Chrome's print API expects.
const (
	a4Width  = 8.27
	a4Height = 11.69
)

// ErrDisabled is returned when no browser is configured.
var ErrDisabled = errors.New("pdf rendering is not configured")

// Filename returns AssurePro_Audit_<number>.pdf.
func Filename(projectNumber string) string {
	return fmt.Sprintf("AssurePro_Audit_%s.pdf", reports.FilePart(projectNumber))
}

type Config struct {
	ChromeBin   string
	DebuggerURL string
	Timeout     time.Duration
}

// Renderer owns one lazily started browser; every Render call gets its own page.
type Renderer struct {
	cfg Config
	log *zap.Logger

	mu      sync.Mutex
	browser *rod.Browser
}

func New(cfg Config, log *zap.Logger) *Renderer {
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{cfg: cfg, log: log}
}

func (r *Renderer) ensure() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return r.browser, nil
	}

	var l *launcher.Launcher
	controlURL := r.cfg.DebuggerURL
	if controlURL == "" {
		l = launcher.New().Headless(true)
		if r.cfg.ChromeBin != "" {
			l = l.Bin(r.cfg.ChromeBin)
		}
		u, err := l.Launch()
		if err != nil {
			l.Kill()
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		if l != nil {
			l.Kill()
		}
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	r.browser = b
	r.log.Info("pdf browser connected", zap.String("control_url", controlURL))
	return b, nil
}

// drop forgets b so the next Render reconnects. A newer browser is left alone.
func (r *Renderer) drop(b *rod.Browser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != b {
		return
	}
	_ = b.Close()
	r.browser = nil
}

// Render prints html to an A4 PDF with background graphics at device scale 2.
// Failures are returned as is; nothing is retried.
func (r *Renderer) Render(ctx context.Context, html []byte) ([]byte, error) {
	b, err := r.ensure()
	if err != nil {
		return nil, err
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		// chrome went away
		r.drop(b)
		r.log.Warn("pdf browser dropped", zap.Error(err))
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() { _ = page.Close() }()
	p := page.Context(ctx).Timeout(r.cfg.Timeout)

	// 210mm x 297mm at 96dpi
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             794,
		Height:            1123,
		DeviceScaleFactor: 2,
	}).Call(p); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if err := p.SetDocumentContent(string(html)); err != nil {
		return nil, fmt.Errorf("load html: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	w, h, zero := a4Width, a4Height, 0.0
	stream, err := p.PDF(&proto.PagePrintToPDF{
		PaperWidth:        &w,
		PaperHeight:       &h,
		MarginTop:         &zero,
		MarginBottom:      &zero,
		MarginLeft:        &zero,
		MarginRight:       &zero,
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return data, nil
}

// Close shuts the browser down if it was started.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil
	return err
}

// Disabled satisfies the same contract when no browser is configured.
type Disabled struct{}

func (Disabled) Render(context.Context, []byte) ([]byte, error) { return nil, ErrDisabled }
