package sensors

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"kamsent/internal/models"
)

// CollectSystemInfo gathers the one-time host inventory served by
// /api/system and frozen into the original profile backup. Every field is
// best-effort; missing hardware leaves the zero value or "N/A".
func CollectSystemInfo(ctx context.Context, gpu *NvidiaSMISource) models.SystemInfo {
	info := models.SystemInfo{
		GPUName:    "N/A",
		CapturedAt: time.Now(),
	}

	if hi, err := host.InfoWithContext(ctx); err == nil && hi != nil {
		info.OS = hi.OS
		info.OSVersion = hi.PlatformVersion
		info.OSRelease = hi.KernelVersion
		info.Hostname = hi.Hostname
	}

	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		info.CPUName = infos[0].ModelName
		info.CPUMaxGHz = round2(infos[0].Mhz / 1000)
	}
	if cores, err := cpu.CountsWithContext(ctx, false); err == nil {
		info.CPUCores = cores
	}
	if threads, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.CPUThreads = threads
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm != nil {
		info.RAMTotalMB = vm.Total / (1 << 20)
		info.RAMTotalGB = round2(float64(vm.Total) / (1 << 30))
	}
	if swap, err := mem.SwapMemoryWithContext(ctx); err == nil && swap != nil {
		info.SwapUsedMB = swap.Used / (1 << 20)
		info.SwapTotalMB = swap.Total / (1 << 20)
	}

	if gpu != nil {
		if name, err := gpu.GPUName(ctx); err == nil {
			info.GPUName = name
		}
	}

	if parts, err := disk.PartitionsWithContext(ctx, false); err == nil {
		for _, part := range parts {
			usage, err := disk.UsageWithContext(ctx, part.Mountpoint)
			if err != nil || usage == nil {
				continue
			}
			info.Disks = append(info.Disks, models.DiskInfo{
				Device:     part.Device,
				Mountpoint: part.Mountpoint,
				TotalGB:    round1(float64(usage.Total) / (1 << 30)),
				UsedGB:     round1(float64(usage.Used) / (1 << 30)),
				FreeGB:     round1(float64(usage.Free) / (1 << 30)),
				Percent:    usage.UsedPercent,
			})
		}
	}

	return info
}

func round1(v float64) float64 { return float64(int64(v*10+0.5)) / 10 }
func round2(v float64) float64 { return float64(int64(v*100+0.5)) / 100 }
