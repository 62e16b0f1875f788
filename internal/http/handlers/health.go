package handlers

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/jmylchreest/aaradio/internal/scheduler"
	"github.com/jmylchreest/aaradio/internal/service"
	"github.com/jmylchreest/aaradio/pkg/format"
	"github.com/jmylchreest/aaradio/pkg/httpclient"
)

// Health status values.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// UpstreamStats reports outbound request counters.
type UpstreamStats interface {
	Stats() httpclient.Stats
}

// DirectoryReporter reports channel directory cache state.
type DirectoryReporter interface {
	Status() []service.DirectoryStatus
}

// JobLister lists scheduled jobs.
type JobLister interface {
	Jobs() []scheduler.JobInfo
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	version     string
	startTime   time.Time
	upstream    UpstreamStats
	directories DirectoryReporter
	jobs        JobLister
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startTime: time.Now(),
	}
}

// WithUpstreamStats sets the source of outbound request counters.
func (h *HealthHandler) WithUpstreamStats(upstream UpstreamStats) *HealthHandler {
	h.upstream = upstream
	return h
}

// WithDirectories sets the channel directory reporter.
func (h *HealthHandler) WithDirectories(directories DirectoryReporter) *HealthHandler {
	h.directories = directories
	return h
}

// WithJobs sets the scheduled job lister.
func (h *HealthHandler) WithJobs(jobs JobLister) *HealthHandler {
	h.jobs = jobs
	return h
}

// HealthInput is the input for the health check endpoint.
type HealthInput struct{}

// HealthOutput is the output for the health check endpoint.
type HealthOutput struct {
	Body HealthResponse
}

// LivezInput is the input for the liveness probe.
type LivezInput struct{}

// LivezOutput is the output for the liveness probe.
type LivezOutput struct {
	Body LivezResponse
}

// Register registers the health routes with the API.
func (h *HealthHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getHealth",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns service health including system metrics, upstream counters and directory cache state",
		Tags:        []string{"System"},
	}, h.GetHealth)

	huma.Register(api, huma.Operation{
		OperationID: "getLivez",
		Method:      http.MethodGet,
		Path:        "/livez",
		Summary:     "Liveness probe",
		Tags:        []string{"System"},
	}, h.GetLivez)
}

// GetHealth returns the health status of the service.
// The service is degraded when any directory's last fetch failed.
func (h *HealthHandler) GetHealth(_ context.Context, _ *HealthInput) (*HealthOutput, error) {
	now := time.Now()
	uptime := now.Sub(h.startTime)

	resp := HealthResponse{
		Status:        StatusHealthy,
		Timestamp:     now.UTC().Format(time.RFC3339),
		Version:       h.version,
		Uptime:        format.Duration(uptime),
		UptimeSeconds: uptime.Seconds(),
		Load:          loadInfo(),
		Memory:        memoryInfo(),
	}

	if h.upstream != nil {
		stats := h.upstream.Stats()
		resp.Upstream = UpstreamInfo{
			Requests: stats.Requests,
			Failures: stats.Failures,
			Summary:  fmt.Sprintf("%s requests, %s failed", format.Number(stats.Requests), format.Number(stats.Failures)),
		}
	}

	if h.directories != nil {
		resp.Directories = h.directories.Status()
		for _, d := range resp.Directories {
			if d.LastError != "" {
				resp.Status = StatusDegraded
			}
		}
	}

	if h.jobs != nil {
		resp.Jobs = h.jobs.Jobs()
	}

	return &HealthOutput{Body: resp}, nil
}

// GetLivez reports that the process is serving requests.
func (h *HealthHandler) GetLivez(_ context.Context, _ *LivezInput) (*LivezOutput, error) {
	return &LivezOutput{Body: LivezResponse{Status: "ok"}}, nil
}

func loadInfo() LoadInfo {
	info := LoadInfo{Cores: runtime.NumCPU()}
	if avg, err := load.Avg(); err == nil && avg != nil {
		info.Load1Min = avg.Load1
		info.Load5Min = avg.Load5
		info.Load15Min = avg.Load15
	}
	return info
}

func memoryInfo() MemoryInfo {
	var info MemoryInfo
	vm, err := mem.VirtualMemory()
	if err != nil || vm == nil {
		return info
	}

	info.TotalBytes = vm.Total
	info.UsedBytes = vm.Used
	info.AvailableBytes = vm.Available
	info.UsedPercent = vm.UsedPercent
	info.Summary = fmt.Sprintf("%s of %s (%s)",
		format.Bytes(vm.Used), format.Bytes(vm.Total), format.Percentage(vm.UsedPercent, 1))
	return info
}
