package observability

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats снимает показатели текущего процесса
type ProcessStats struct {
	StartTime time.Time
	proc      *process.Process
}

// ProcessSnapshot показатели процесса в момент снятия
type ProcessSnapshot struct {
	Uptime     time.Duration
	CPUPercent float64
	RSSMB      float64
	HeapMB     float64
	Goroutines int
	NumGC      uint32
}

// NewProcessStats создаёт сборщик показателей для текущего процесса
func NewProcessStats() (*ProcessStats, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть процесс: %w", err)
	}
	return &ProcessStats{StartTime: time.Now(), proc: proc}, nil
}

// Sample возвращает текущие показатели.
// Если CPU процесса недоступен, используется общая загрузка системы.
func (ps *ProcessStats) Sample() (ProcessSnapshot, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	snap := ProcessSnapshot{
		Uptime:     time.Since(ps.StartTime),
		HeapMB:     float64(m.HeapAlloc) / 1024 / 1024,
		Goroutines: runtime.NumGoroutine(),
		NumGC:      m.NumGC,
	}

	cpuPercent, err := ps.proc.CPUPercent()
	if err != nil {
		cpuPercents, sysErr := cpu.Percent(100*time.Millisecond, false)
		if sysErr != nil || len(cpuPercents) == 0 {
			return snap, fmt.Errorf("не удалось получить загрузку CPU: %w", err)
		}
		cpuPercent = cpuPercents[0]
	}
	snap.CPUPercent = cpuPercent

	mem, err := ps.proc.MemoryInfo()
	if err != nil {
		return snap, fmt.Errorf("не удалось получить память процесса: %w", err)
	}
	snap.RSSMB = float64(mem.RSS) / 1024 / 1024
	return snap, nil
}

// FormatUptime форматирует время работы
func FormatUptime(uptime time.Duration) string {
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}
