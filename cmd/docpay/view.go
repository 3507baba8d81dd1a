package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"doc-analyzer/internal/workflow"
)

const progressWidth = 30

// terminalView prints controller side effects as plain lines.
type terminalView struct {
	mu       sync.Mutex
	w        io.Writer
	panel    workflow.Panel
	rendered string
}

func newTerminalView(w io.Writer) *terminalView {
	return &terminalView{w: w}
}

func (v *terminalView) ShowPanel(p workflow.Panel) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p == v.panel {
		return
	}
	v.panel = p
	fmt.Fprintf(v.w, "[%s]\n", p)
}

func (v *terminalView) Progress(step string, percent int) {
	percent = max(0, min(percent, 100))
	filled := percent * progressWidth / 100
	fmt.Fprintf(v.w, "%-12s [%s%s] %3d%%\n", step, strings.Repeat("#", filled), strings.Repeat(".", progressWidth-filled), percent)
}

func (v *terminalView) SetSubmit(enabled bool, label string) {
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Fprintf(v.w, "submit %s: %s\n", state, label)
}

func (v *terminalView) Notify(n workflow.Notification) {
	fmt.Fprintf(v.w, "%s: %s\n", strings.ToUpper(string(n.Level)), n.Message)
}

func (v *terminalView) RenderSections(html string) {
	v.setRendered(html)
}

func (v *terminalView) RenderSummary(html string) {
	v.setRendered(html)
}

func (v *terminalView) setRendered(html string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rendered = html
}

// Rendered returns the last analysis markup.
func (v *terminalView) Rendered() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rendered
}

// fileDownloader writes exports into Dir.
type fileDownloader struct {
	Dir string
	Out io.Writer
}

func (d fileDownloader) Save(fileName, contentType string, data []byte) error {
	path := filepath.Join(d.Dir, filepath.Base(fileName))
	if err := writeFile(path, data); err != nil {
		return err
	}
	out := d.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, "Saved %s (%s, %s)\n", path, contentType, humanize.Bytes(uint64(len(data))))
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
