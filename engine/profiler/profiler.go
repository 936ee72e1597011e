package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/prism/engine/logger"
)

// FrameStats is what one rendered frame contributes to the running report.
type FrameStats struct {
	DrawCalls int
	Instances int
	Uploads   int
}

// Report is one interval's worth of aggregated frame statistics.
type Report struct {
	FPS         float64
	DrawCalls   float64 // per frame
	Instances   float64 // per frame
	Uploads     int     // total over the interval
	Skipped     int
	HeapMB      float64
	AllocRateMB float64
	GCCount     uint32
	MaxPauseUs  uint64
}

// Profiler aggregates frame statistics and logs a Report at a fixed interval.
type Profiler struct {
	now            func() time.Time
	interval       time.Duration
	lastTime       time.Time
	frames         int
	skipped        int
	totals         FrameStats
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler.
//
// Parameters:
//   - options: functional options; the interval defaults to one second
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		now:      time.Now,
		interval: time.Second,
	}
	for _, option := range options {
		option(p)
	}
	p.lastTime = p.now()
	return p
}

// Skip records a frame that was abandoned, e.g. after a device error.
func (p *Profiler) Skip() {
	p.skipped++
}

// Tick records a completed frame. When the interval has elapsed it logs and returns the Report.
//
// Parameters:
//   - stats: the frame's dispatch statistics
//
// Returns:
//   - Report: the report for the interval that just closed
//   - bool: true if an interval closed on this tick
func (p *Profiler) Tick(stats FrameStats) (Report, bool) {
	p.frames++
	p.totals.DrawCalls += stats.DrawCalls
	p.totals.Instances += stats.Instances
	p.totals.Uploads += stats.Uploads

	current := p.now()
	elapsed := current.Sub(p.lastTime)
	if elapsed < p.interval {
		return Report{}, false
	}

	r := p.report(elapsed)
	logger.Info("frame stats",
		"fps", r.FPS,
		"draws", r.DrawCalls,
		"instances", r.Instances,
		"uploads", r.Uploads,
		"skipped", r.Skipped,
		"heap_mb", r.HeapMB,
		"alloc_mb_s", r.AllocRateMB,
		"gc", r.GCCount,
		"max_pause_us", r.MaxPauseUs,
	)

	p.frames = 0
	p.skipped = 0
	p.totals = FrameStats{}
	p.lastTime = current
	return r, true
}

func (p *Profiler) report(elapsed time.Duration) Report {
	runtime.ReadMemStats(&p.memStats)
	secs := elapsed.Seconds()
	frames := float64(p.frames)

	r := Report{
		FPS:         frames / secs,
		DrawCalls:   float64(p.totals.DrawCalls) / frames,
		Instances:   float64(p.totals.Instances) / frames,
		Uploads:     p.totals.Uploads,
		Skipped:     p.skipped,
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / secs,
		GCCount:     p.memStats.NumGC,
	}

	// PauseNs is a circular buffer of the last 256 pauses.
	start := p.lastGCCount
	if r.GCCount-start > 256 {
		start = r.GCCount - 256
	}
	for i := start; i < r.GCCount; i++ {
		r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
	}

	p.lastGCCount = r.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return r
}
