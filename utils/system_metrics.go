package utils

import (
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"kapsul/logger"
)

// GetCPUUsage returns the current CPU usage as a percentage
func GetCPUUsage() float64 {
	percentage, err := cpu.Percent(time.Second, false)
	if err != nil {
		logger.L.Warn("cpu usage read failed", logger.Error(err))
		return 0
	}
	if len(percentage) > 0 {
		return percentage[0]
	}
	return 0
}

// GetMemoryUsage returns the percentage of system memory in use
func GetMemoryUsage() float64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		logger.L.Warn("memory usage read failed", logger.Error(err))
		return 0
	}
	return vm.UsedPercent
}
