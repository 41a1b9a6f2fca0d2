package manager

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"

	"sentinel/internal/models"
)

const defaultTelemetryInterval = 5 * time.Second

// HostMonitor samples resource usage of the machine running Sentinel.
type HostMonitor struct {
	interval time.Duration
	diskPath string

	mu           sync.RWMutex
	latest       *models.SystemTelemetry
	lastCPUTotal float64
	lastCPUIdle  float64

	stopMu sync.Mutex
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewHostMonitor builds a monitor sampling every interval; the disk usage of
// diskPath is reported.
func NewHostMonitor(interval time.Duration, diskPath string) *HostMonitor {
	if interval <= 0 {
		interval = defaultTelemetryInterval
	}
	if diskPath == "" {
		diskPath = "/"
	}
	return &HostMonitor{interval: interval, diskPath: diskPath}
}

// Start launches the background sampler. Calling Start twice is a no-op.
func (h *HostMonitor) Start() {
	h.stopMu.Lock()
	if h.stop != nil {
		h.stopMu.Unlock()
		return
	}
	stop := make(chan struct{})
	h.stop = stop
	h.stopMu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		ctx := context.Background()
		h.Refresh(ctx)
		for {
			select {
			case <-ticker.C:
				h.Refresh(ctx)
			case <-stop:
				return
			}
		}
	}()
}

// Stop halts the sampler and waits for it to exit.
func (h *HostMonitor) Stop() {
	h.stopMu.Lock()
	stop := h.stop
	h.stop = nil
	h.stopMu.Unlock()
	if stop != nil {
		close(stop)
	}
	h.wg.Wait()
}

// Refresh takes one sample immediately.
func (h *HostMonitor) Refresh(ctx context.Context) {
	if snap := h.collect(ctx); snap != nil {
		h.mu.Lock()
		h.latest = snap
		h.mu.Unlock()
	}
}

// Latest returns a copy of the most recent sample, or nil before the first one.
func (h *HostMonitor) Latest() *models.SystemTelemetry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return nil
	}
	copy := *h.latest
	return &copy
}

func (h *HostMonitor) collect(ctx context.Context) *models.SystemTelemetry {
	timesStats, err := cpu.TimesWithContext(ctx, false)
	if err != nil || len(timesStats) == 0 {
		return nil
	}
	total := cpuTotal(timesStats[0])
	idle := timesStats[0].Idle + timesStats[0].Iowait
	deltaTotal, deltaIdle, hasPrev := h.updateCPUSample(total, idle)

	var cpuPercent float64
	if hasPrev && deltaTotal > 0 {
		used := deltaTotal - deltaIdle
		if used < 0 {
			used = 0
		}
		cpuPercent = clampFloat((used/deltaTotal)*100, 0, 100)
	}

	snap := &models.SystemTelemetry{CPUPercent: cpuPercent, SampledAt: time.Now()}

	if vm, _ := mem.VirtualMemoryWithContext(ctx); vm != nil {
		snap.MemoryPercent = clampFloat(vm.UsedPercent, 0, 100)
		snap.MemoryUsed = vm.Used
		snap.MemoryTotal = vm.Total
	}
	if du, _ := disk.UsageWithContext(ctx, h.diskPath); du != nil {
		snap.DiskPercent = clampFloat(du.UsedPercent, 0, 100)
		snap.DiskUsed = du.Used
		snap.DiskTotal = du.Total
	}
	if counters, _ := net.IOCountersWithContext(ctx, false); len(counters) > 0 {
		snap.NetworkInboundBytes = counters[0].BytesRecv
		snap.NetworkOutboundBytes = counters[0].BytesSent
	}
	if avg, _ := load.AvgWithContext(ctx); avg != nil {
		snap.Load1 = avg.Load1
	}
	if info, _ := host.InfoWithContext(ctx); info != nil {
		snap.UptimeSeconds = info.Uptime
	}
	return snap
}

func (h *HostMonitor) updateCPUSample(total, idle float64) (float64, float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	deltaTotal := total - h.lastCPUTotal
	deltaIdle := idle - h.lastCPUIdle
	hasPrev := h.lastCPUTotal > 0
	h.lastCPUTotal = total
	h.lastCPUIdle = idle
	return deltaTotal, deltaIdle, hasPrev
}

func cpuTotal(stat cpu.TimesStat) float64 {
	return stat.User + stat.System + stat.Nice + stat.Idle + stat.Iowait + stat.Irq + stat.Softirq + stat.Steal + stat.Guest + stat.GuestNice
}

func clampFloat(val, min, max float64) float64 {
	if math.IsNaN(val) {
		return min
	}
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
