package stress

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wippyai/tailcall-stress/diag"
)

// MismatchExitBase is the exit status of a run without mismatches. Each
// mismatch adds one, up to MaxExitCode.
const (
	MismatchExitBase = 100
	MaxExitCode      = 255
)

// ExitCode maps a mismatch count to a process exit status.
func ExitCode(mismatches int) int {
	return min(MismatchExitBase+mismatches, MaxExitCode)
}

// Summary is the final report of a run.
type Summary struct {
	RunID       string
	Convention  string
	Engine      string
	Reasons     []diag.Reason
	Processed   int
	Skipped     int
	Matched     int
	Mismatches  int
	Observed    int
	Succeeded   int
	Rejected    int
	Elapsed     time.Duration
	Interrupted bool
}

// ExitCode returns the process exit status for the run.
func (s *Summary) ExitCode() int {
	return ExitCode(s.Mismatches)
}

// WriteText writes the plain-text report.
func (s *Summary) WriteText(w io.Writer) error {
	var sb strings.Builder
	if s.Interrupted {
		sb.WriteString("interrupted\n")
	}
	fmt.Fprintf(&sb, "run %s (%s, %s) in %s\n", s.RunID, s.Convention, s.Engine, s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&sb, "trials: %d processed, %d skipped, %d matched, %d mismatched\n",
		s.Processed, s.Skipped, s.Matched, s.Mismatches)
	fmt.Fprintf(&sb, "successful tail calls: %d of %d observed\n", s.Succeeded, s.Observed)
	if len(s.Reasons) > 0 {
		fmt.Fprintf(&sb, "rejections (%d):\n", s.Rejected)
		for _, r := range s.Reasons {
			fmt.Fprintf(&sb, "  %6.2f%% %8d  %s\n", r.Percent, r.Count, r.Reason)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Markdown renders the report as a markdown document.
func (s *Summary) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# Tail-call stress report\n\n")
	if s.Interrupted {
		sb.WriteString("> Run interrupted before the iteration limit.\n\n")
	}
	fmt.Fprintf(&sb, "Run `%s` on **%s** with the wazero **%s**, %s.\n\n",
		s.RunID, s.Convention, s.Engine, s.Elapsed.Round(time.Millisecond))

	sb.WriteString("| Trials | Count |\n|---|---:|\n")
	fmt.Fprintf(&sb, "| processed | %d |\n| skipped | %d |\n| matched | %d |\n| mismatched | %d |\n\n",
		s.Processed, s.Skipped, s.Matched, s.Mismatches)

	fmt.Fprintf(&sb, "**%d** of **%d** observed tail calls were lowered as tail calls.\n", s.Succeeded, s.Observed)
	if len(s.Reasons) == 0 {
		return sb.String()
	}

	sb.WriteString("\n## Rejections\n\n| Reason | Count | Share |\n|---|---:|---:|\n")
	for _, r := range s.Reasons {
		fmt.Fprintf(&sb, "| %s | %d | %.2f%% |\n", strings.ReplaceAll(r.Reason, "|", `\|`), r.Count, r.Percent)
	}
	return sb.String()
}
