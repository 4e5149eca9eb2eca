package classification

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"structmeta/internal/logging"
)

// TerminalWriter returns f when it is attached to a terminal and nil
// otherwise, so progress output never lands in redirected logs.
func TerminalWriter(f *os.File) io.Writer {
	if f == nil {
		return nil
	}
	fd := f.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return f
	}
	return nil
}

type progress struct {
	bar    *progressbar.ProgressBar
	logger *slog.Logger
}

func newProgress(w io.Writer, total int, logger *slog.Logger) *progress {
	p := &progress{logger: logger}
	if w == nil || total <= 0 {
		return p
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Classifying structures...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				logger.Debug("progress newline failed", logging.Error(err))
			}
		}),
	)
	return p
}

func (p *progress) add() {
	if p.bar == nil {
		return
	}
	if err := p.bar.Add(1); err != nil {
		p.logger.Debug("progress update failed", logging.Error(err))
	}
}

func (p *progress) finish() {
	if p.bar == nil || p.bar.IsFinished() {
		return
	}
	if err := p.bar.Finish(); err != nil {
		p.logger.Debug("progress finish failed", logging.Error(err))
	}
}
