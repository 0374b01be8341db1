package cli

import (
	"fmt"
	"time"
)

// PageResult is the outcome of warming one page.
type PageResult struct {
	Path     string
	File     string
	Bundle   string
	Duration time.Duration
	Err      error
}

// BuildReport summarizes a run that renders every configured page once so
// its hydration bundle lands in the cache.
type BuildReport struct {
	out       *Output
	results   []PageResult
	startTime time.Time
	outputDir string
}

func NewBuildReport(out *Output, outputDir string) *BuildReport {
	return &BuildReport{
		out:       out,
		startTime: time.Now(),
		outputDir: outputDir,
	}
}

func (r *BuildReport) Add(result PageResult) {
	r.results = append(r.results, result)
}

func (r *BuildReport) HasFailures() bool {
	for _, res := range r.results {
		if res.Err != nil {
			return true
		}
	}
	return false
}

func (r *BuildReport) Render() {
	duration := time.Since(r.startTime)
	o := r.out

	fmt.Fprintf(o.out, "  "+o.Green("✓ ")+"%d pages found\n", len(r.results))
	fmt.Fprintln(o.out)

	failed := 0
	for _, res := range r.results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(o.out, "  %s %s %s\n", o.Red("✗"), res.Path, o.Gray(res.File))
			continue
		}
		fmt.Fprintf(o.out, "  %s %s %s\n", o.Green("✓"), res.Path, o.Gray(res.Bundle+" "+formatDuration(res.Duration)))
	}

	if failed > 0 {
		fmt.Fprintln(o.errOut)
		fmt.Fprintf(o.errOut, "  "+o.Red("✗ ")+"Errors (%d):\n", failed)
		for _, res := range r.results {
			if res.Err == nil {
				continue
			}
			fmt.Fprintf(o.errOut, "  %s %s\n", o.Red("✗"), res.Path)
			fmt.Fprintf(o.errOut, "    %s\n", res.Err)
		}
		fmt.Fprintln(o.errOut)
		fmt.Fprintf(o.errOut, "  %s\n", o.Red(fmt.Sprintf("Build failed after %s", formatDuration(duration))))
	} else {
		fmt.Fprintln(o.out)
		fmt.Fprintf(o.out, "  "+o.Green("✓ ")+"Build complete in %s\n", formatDuration(duration))
	}

	if r.outputDir != "" {
		fmt.Fprintf(o.out, "\n  %s\n", o.Gray("Output: "+r.outputDir))
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.1fs", float64(d)/float64(time.Second))
}

// FormatSize renders a byte count the way the cache listing shows it.
func FormatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
