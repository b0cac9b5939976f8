package hwinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/jaypipes/ghw"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

const gib = 1024.0 * 1024.0 * 1024.0

// Fallback messages
const (
	NoPlatformInfo = "Platform: unknown"
	NoRAMInfo      = "No providers available to retrieve RAM information."
	NoGPUInfo      = "No libraries available to retrieve GPU information."
)

// NewReporter returns a reporter with the default provider chains. runner is
// used for vendor GPU tools; nil means ExecRunner.
func NewReporter(runner CommandRunner) Reporter {
	if runner == nil {
		runner = ExecRunner{}
	}
	return Reporter{
		Platform: Chain{
			Category:  "platform",
			Providers: []Provider{{"gopsutil", gopsutilPlatform}, {"runtime", runtimePlatform}},
			Fallback:  NoPlatformInfo,
		},
		CPU: Chain{
			Category:  "cpu",
			Providers: []Provider{{"gopsutil", gopsutilCPU}, {"ghw", ghwCPU}, {"runtime", runtimeCPU}},
		},
		RAM: Chain{
			Category:  "ram",
			Providers: []Provider{{"gopsutil", gopsutilRAM}, {"ghw", ghwRAM}},
			Fallback:  NoRAMInfo,
		},
		GPU: Chain{
			Category: "gpu",
			Providers: []Provider{
				{"nvidia-smi", NvidiaSMI(runner)},
				{"rocm-smi", RocmSMI(runner)},
				{"ghw", ghwGPU},
			},
			Fallback: NoGPUInfo,
		},
	}
}

func gopsutilPlatform(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", err
	}
	parts := []string{info.OS, info.Platform, info.PlatformVersion, info.KernelArch}
	return "Platform: " + joinNonEmpty(parts, "-"), nil
}

func runtimePlatform(context.Context) (string, error) {
	return fmt.Sprintf("Platform: %s-%s", runtime.GOOS, runtime.GOARCH), nil
}

func gopsutilCPU(ctx context.Context) (string, error) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return "", nil
	}
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return "", err
	}
	return formatCPU(infos[0].ModelName, cores), nil
}

func ghwCPU(context.Context) (string, error) {
	info, err := ghw.CPU()
	if err != nil {
		return "", err
	}
	if len(info.Processors) == 0 {
		return "", nil
	}
	return formatCPU(info.Processors[0].Model, int(info.TotalCores)), nil
}

func runtimeCPU(context.Context) (string, error) {
	return formatCPU(runtime.GOARCH, runtime.NumCPU()), nil
}

func formatCPU(model string, cores int) string {
	return fmt.Sprintf("CPU Model: %s\nCPU Cores: %d", strings.TrimSpace(model), cores)
}

func gopsutilRAM(ctx context.Context) (string, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Total RAM: %d GB\nAvailable RAM: %d GB", roundGB(float64(vm.Total)), roundGB(float64(vm.Available))), nil
}

// ghw has no notion of free memory, so only the total is reported
func ghwRAM(context.Context) (string, error) {
	info, err := ghw.Memory()
	if err != nil {
		return "", err
	}
	total := info.TotalPhysicalBytes
	if total <= 0 {
		total = info.TotalUsableBytes
	}
	if total <= 0 {
		return "", nil
	}
	return fmt.Sprintf("Total RAM: %d GB", roundGB(float64(total))), nil
}

func roundGB(bytes float64) int64 {
	return int64(math.Round(bytes / gib))
}

// NvidiaSMI lists NVIDIA GPUs through nvidia-smi's CSV query output
func NvidiaSMI(runner CommandRunner) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		if _, err := runner.LookPath("nvidia-smi"); err != nil {
			return "", nil
		}
		out, err := runner.Run(ctx, "nvidia-smi", "--query-gpu=name,memory.total", "--format=csv,noheader,nounits")
		if err != nil {
			return "", err
		}

		var lines []string
		for _, row := range strings.Split(strings.TrimSpace(out), "\n") {
			name, total, found := strings.Cut(row, ",")
			name = strings.TrimSpace(name)
			if !found || name == "" {
				continue
			}
			// [N/A] on Jetson and some vGPU/MIG setups
			memory := "unknown"
			if mib, err := strconv.ParseFloat(strings.TrimSpace(total), 64); err == nil {
				memory = fmt.Sprintf("%.2fGB", mib/1024)
			}
			lines = append(lines, formatGPU(len(lines), name, memory))
		}
		if len(lines) == 0 {
			return installedNoGPUs("nvidia-smi"), nil
		}
		return strings.Join(lines, "\n"), nil
	}
}

// RocmSMI lists AMD GPUs through rocm-smi's JSON output
func RocmSMI(runner CommandRunner) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		if _, err := runner.LookPath("rocm-smi"); err != nil {
			return "", nil
		}
		out, err := runner.Run(ctx, "rocm-smi", "--showproductname", "--showmeminfo", "vram", "--json")
		if err != nil {
			return "", err
		}

		var cards map[string]map[string]string
		if err := json.Unmarshal([]byte(out), &cards); err != nil {
			return "", fmt.Errorf("parse rocm-smi output: %w", err)
		}

		keys := make([]string, 0, len(cards))
		for k := range cards {
			if strings.HasPrefix(k, "card") {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		lines := make([]string, 0, len(keys))
		for i, k := range keys {
			card := cards[k]
			name := firstNonEmpty(card["Card series"], card["Card model"], card["Card SKU"], k)
			memory := "unknown"
			if b, err := strconv.ParseFloat(card["VRAM Total Memory (B)"], 64); err == nil {
				memory = fmt.Sprintf("%.2fGB", b/gib)
			}
			lines = append(lines, formatGPU(i, name, memory))
		}
		if len(lines) == 0 {
			return installedNoGPUs("rocm-smi"), nil
		}
		return strings.Join(lines, "\n"), nil
	}
}

// ghw enumerates display controllers on the PCI bus but cannot size their
// memory
func ghwGPU(context.Context) (string, error) {
	info, err := ghw.GPU()
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(info.GraphicsCards))
	for i, card := range info.GraphicsCards {
		name := card.Address
		if d := card.DeviceInfo; d != nil {
			var vendor, product string
			if d.Vendor != nil {
				vendor = d.Vendor.Name
			}
			if d.Product != nil {
				product = d.Product.Name
			}
			if n := joinNonEmpty([]string{vendor, product}, " "); n != "" {
				name = n
			}
		}
		lines = append(lines, formatGPU(i, name, "unknown"))
	}
	return strings.Join(lines, "\n"), nil
}

func formatGPU(index int, name, memory string) string {
	return fmt.Sprintf("GPU %d: %s, Memory: %s", index, name, memory)
}

func installedNoGPUs(provider string) string {
	return provider + " is installed but no GPUs are available."
}

func joinNonEmpty(parts []string, sep string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
