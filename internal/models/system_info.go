package models

import "time"

// DiskInfo describes one mounted partition for the system inventory page.
type DiskInfo struct {
	Device     string  `json:"device"`
	Mountpoint string  `json:"mountpoint"`
	TotalGB    float64 `json:"total_gb"`
	UsedGB     float64 `json:"used_gb"`
	FreeGB     float64 `json:"free_gb"`
	Percent    float64 `json:"percent"`
}

// SystemInfo is the one-time host inventory collected at startup. It backs
// /api/system and the write-once original profile backup.
type SystemInfo struct {
	OS           string     `json:"os"`
	OSVersion    string     `json:"os_version"`
	OSRelease    string     `json:"os_release"`
	Hostname     string     `json:"hostname"`
	CPUName      string     `json:"cpu_name"`
	CPUCores     int        `json:"cpu_cores"`
	CPUThreads   int        `json:"cpu_threads"`
	CPUMaxGHz    float64    `json:"cpu_max_ghz"`
	RAMTotalMB   uint64     `json:"ram_total_mb"`
	RAMTotalGB   float64    `json:"ram_total_gb"`
	SwapUsedMB   uint64     `json:"pagefile_used_mb"`
	SwapTotalMB  uint64     `json:"pagefile_total_mb"`
	GPUName      string     `json:"gpu_name"`
	GPUVRAMTotal float64    `json:"gpu_vram_mb"`
	Disks        []DiskInfo `json:"disks"`
	CapturedAt   time.Time  `json:"captured_at"`
}
