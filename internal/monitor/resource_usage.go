package monitor

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// ResourceUsage is a point-in-time view of process and host memory.
type ResourceUsage struct {
	RSSMB                int64   // Resident set size of this process
	AllocMB              int64   // Heap currently allocated by the Go runtime
	Goroutines           int     // Number of goroutines
	SystemMemUsedPercent float64 // Host memory used percentage
}

// GetResourceUsage collects the current usage. Fields that cannot be read stay zero.
func GetResourceUsage() ResourceUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	usage := ResourceUsage{
		AllocMB:    int64(m.Alloc / 1024 / 1024),
		Goroutines: runtime.NumGoroutine(),
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfo(); err == nil {
			usage.RSSMB = int64(info.RSS / 1024 / 1024)
		}
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		usage.SystemMemUsedPercent = vmStat.UsedPercent
	}

	return usage
}
