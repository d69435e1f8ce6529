package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/tailcall-stress/oracle"
	"github.com/wippyai/tailcall-stress/stress"
)

func runSingle(ctx context.Context, r *stress.Runner, index int, w io.Writer) (*stress.Summary, error) {
	res, err := r.RunOne(context.WithoutCancel(ctx), index)
	if err != nil {
		return nil, err
	}
	sum := r.Summary()

	t := res.Trial
	fmt.Fprintf(w, "trial %d (seed %d): %s\n", index, t.Seed, t)
	switch res.Outcome {
	case oracle.OutcomeSkipped:
		fmt.Fprintf(w, "skipped: no callee below stack area %d (counts as match)\n", t.Area)
	case oracle.OutcomeMatch:
		fmt.Fprintf(w, "match: %#x\n", res.Actual)
	case oracle.OutcomeMismatch:
		fmt.Fprintf(w, "MISMATCH: tail call %#x, direct call %#x\n", res.Actual, res.Expected)
		fmt.Fprintf(w, "  caller %s\n  callee %s\n", t.Signature(), t.Callee.Signature())
	}
	if !t.Skipped() {
		status := "lowered as a tail call"
		if sum.Succeeded == 0 {
			status = "rejected"
			for _, reason := range sum.Reasons {
				status += ": " + reason.Reason
			}
		}
		fmt.Fprintf(w, "tail call %s\n", status)
	}
	return sum, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func runLoop(ctx context.Context, r *stress.Runner, cfg *stress.Config, mode string, level zapcore.Level) (*stress.Summary, error) {
	if mode == "auto" {
		switch {
		case isTerminal(os.Stdout):
			mode = "tui"
		case isTerminal(os.Stderr):
			mode = "bar"
		default:
			mode = "log"
		}
	}

	switch mode {
	case "tui":
		return runTUI(ctx, r, cfg)
	case "bar":
		bar := progressbar.Default(int64(cfg.Iterations), "trials")
		sum, err := r.Run(ctx, func(p stress.Progress) {
			bar.Describe(fmt.Sprintf("trials (%d tail calls, %d mismatches)", p.Succeeded, p.Mismatches))
			_ = bar.Set(p.Processed)
		})
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
		return sum, err
	case "log":
		logger, err := newLogger(min(level, zapcore.InfoLevel))
		if err != nil {
			return nil, err
		}
		logger = logger.Named("progress")
		return r.Run(ctx, func(p stress.Progress) {
			logger.Info("progress",
				zap.Int("processed", p.Processed),
				zap.Int("total", p.Total),
				zap.Int("skipped", p.Skipped),
				zap.Int("mismatches", p.Mismatches),
				zap.Int("observed", p.Observed),
				zap.Int("succeeded", p.Succeeded))
		})
	case "none":
		return r.Run(ctx, nil)
	default:
		return nil, fmt.Errorf("unknown progress mode %q", mode)
	}
}

func printReport(w io.Writer, sum *stress.Summary, markdown bool) error {
	if !markdown {
		return sum.WriteText(w)
	}
	md := sum.Markdown()
	if !isTerminal(os.Stdout) {
		_, err := io.WriteString(w, md)
		return err
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	out, err := renderer.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
