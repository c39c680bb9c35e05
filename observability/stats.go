// Package observability collects process self-stats for periodic health
// logging and the debug endpoint.
package observability

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/process"
)

type ProcessStats struct {
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
	Status     string  `json:"status"`
	Goroutines int     `json:"goroutines"`
	AllocMemMb uint64  `json:"alloc_mem_mb"`
	NumGC      uint32  `json:"num_gc"`
}

// Collector reads stats of the current process.
type Collector struct {
	proc *process.Process
}

func NewCollector() (*Collector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Collector{proc: proc}, nil
}

func (c *Collector) Collect() (ProcessStats, error) {
	memInfo, err := c.proc.MemoryInfo()
	if err != nil {
		return ProcessStats{}, err
	}
	cpuPercent, err := c.proc.CPUPercent()
	if err != nil {
		return ProcessStats{}, err
	}
	status, err := c.proc.Status()
	if err != nil {
		return ProcessStats{}, err
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return ProcessStats{
		RSSBytes:   memInfo.RSS,
		CPUPercent: cpuPercent,
		Status:     status,
		Goroutines: runtime.NumGoroutine(),
		AllocMemMb: m.Alloc / 1024 / 1024,
		NumGC:      m.NumGC,
	}, nil
}
