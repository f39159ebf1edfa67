package bench

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/montanaflynn/stats"
)

// Report summarizes a run.
type Report struct {
	RunID     string
	Workload  string
	Workers   int
	Committed int
	Aborted   int
	// Aborts counts aborted procedures by reason.
	Aborts  map[string]int
	Elapsed time.Duration
	// HeapAlloc is the heap in use when the run ended.
	HeapAlloc uint64

	// milliseconds from Prepare to the end of Execute
	latencies []float64
}

// Throughput returns the committed procedures per second.
func (r *Report) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Committed) / r.Elapsed.Seconds()
}

// Percentile returns the p-th percentile of the latencies in milliseconds.
func (r *Report) Percentile(p float64) (float64, error) {
	return stats.Percentile(r.latencies, p)
}

func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run %s: %s with %d workers in %s\n", r.RunID, r.Workload, r.Workers, r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&sb, "committed: %s, aborted: %s, throughput: %s tx/s\n",
		humanize.Comma(int64(r.Committed)),
		humanize.Comma(int64(r.Aborted)),
		humanize.FormatFloat("#,###.##", r.Throughput()),
	)

	if mean, err := stats.Mean(r.latencies); err == nil {
		fmt.Fprintf(&sb, "latency ms: mean %s", humanize.FormatFloat("#,###.###", mean))
		for _, p := range []float64{50, 95, 99} {
			if v, err := r.Percentile(p); err == nil {
				fmt.Fprintf(&sb, ", p%g %s", p, humanize.FormatFloat("#,###.###", v))
			}
		}
		if max, err := stats.Max(r.latencies); err == nil {
			fmt.Fprintf(&sb, ", max %s", humanize.FormatFloat("#,###.###", max))
		}
		sb.WriteString("\n")
	}

	if r.HeapAlloc > 0 {
		fmt.Fprintf(&sb, "heap in use: %s\n", humanize.IBytes(r.HeapAlloc))
	}

	reasons := make([]string, 0, len(r.Aborts))
	for reason := range r.Aborts {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(&sb, "  aborted %s times: %s\n", humanize.Comma(int64(r.Aborts[reason])), reason)
	}

	return sb.String()
}
