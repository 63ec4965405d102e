package main

import (
	"fmt"
	"io"
	"sync"

	"shop-sim-viewer/src/models"
)

// framePrinter writes each new log entry, stage change and replay milestone of a session.
type framePrinter struct {
	out io.Writer

	mu       sync.Mutex
	nextSeq  int
	stage    models.Stage
	started  bool
	lastStep int
}

func newFramePrinter(out io.Writer) *framePrinter {
	return &framePrinter{out: out}
}

// -----------------------------------------------------------------------------

func (p *framePrinter) OnFrame(frame models.MSessionFrame) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || frame.Stage != p.stage {
		fmt.Fprintf(p.out, "== %s\n", frame.Stage)
		p.stage = frame.Stage
		p.started = true
	}

	for _, m := range frame.Messages {
		if m.Seq < p.nextSeq {
			continue
		}
		fmt.Fprintf(p.out, "%s [%s] %s -> %s: %s\n", m.Timestamp.Format("15:04:05"), m.Category, m.From, m.To, m.Content)
		p.nextSeq = m.Seq + 1
	}

	// Only the end of each replay, a line per cell is too chatty.
	progress := frame.Progress
	if progress.TotalSteps > 0 && progress.CurrentStep == progress.TotalSteps && progress.CurrentStep != p.lastStep {
		fmt.Fprintf(p.out, "   arrived at (%d,%d) after %d steps\n", frame.Position.Row, frame.Position.Col, progress.TotalSteps)
	}
	p.lastStep = progress.CurrentStep
}
