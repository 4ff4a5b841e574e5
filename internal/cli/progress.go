package cli

import (
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/longscribe/longscribe/internal/engine"
)

// progressObserver renders pipeline progress on stderr. It implements
// engine.Observer; chunk callbacks arrive from worker goroutines.
type progressObserver struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func (a *appState) newProgressObserver() engine.Observer {
	if !a.progressEnabled() {
		return nil
	}
	return &progressObserver{}
}

func (p *progressObserver) JobStarted(string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.bar = progressbar.NewOptions(
		-1,
		progressbar.OptionSetDescription("Preparing audio"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(80*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progressObserver) Preprocessed(string, time.Duration) {}

func (p *progressObserver) Planned(_ string, windows []engine.Window) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Finish()
	}
	p.bar = progressbar.NewOptions(
		len(windows),
		progressbar.OptionSetDescription("Transcribing chunks"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progressObserver) ChunkStarted(string, int) {}

func (p *progressObserver) ChunkFinished(string, int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *progressObserver) Merged(string, int, int) {
	p.finish()
}

func (p *progressObserver) JobFailed(string, string, error) {
	p.finish()
}

func (p *progressObserver) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}
