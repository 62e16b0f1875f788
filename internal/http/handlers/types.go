// Package handlers provides HTTP API handlers for aaradio.
package handlers

import (
	"github.com/jmylchreest/aaradio/internal/scheduler"
	"github.com/jmylchreest/aaradio/internal/service"
)

// QualitiesResponse lists the supported stream qualities.
type QualitiesResponse struct {
	Qualities []string `json:"qualities" doc:"Supported stream qualities"`
	Default   string   `json:"default" doc:"Quality used when none is configured" example:"public3"`
}

// StreamResponse is a resolved stream for one channel.
type StreamResponse struct {
	Service string `json:"service" example:"di"`
	Channel string `json:"channel" example:"trance"`
	URL     string `json:"url" doc:"Playable stream URL, including the listen key when one is configured"`
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status        string                    `json:"status" doc:"healthy or degraded" example:"healthy"`
	Timestamp     string                    `json:"timestamp"`
	Version       string                    `json:"version"`
	Uptime        string                    `json:"uptime"`
	UptimeSeconds float64                   `json:"uptime_seconds"`
	Load          LoadInfo                  `json:"load"`
	Memory        MemoryInfo                `json:"memory"`
	Upstream      UpstreamInfo              `json:"upstream"`
	Directories   []service.DirectoryStatus `json:"directories,omitempty"`
	Jobs          []scheduler.JobInfo       `json:"jobs,omitempty"`
}

// LoadInfo holds system load averages.
type LoadInfo struct {
	Cores     int     `json:"cores"`
	Load1Min  float64 `json:"load_1min"`
	Load5Min  float64 `json:"load_5min"`
	Load15Min float64 `json:"load_15min"`
}

// MemoryInfo holds system memory usage.
type MemoryInfo struct {
	TotalBytes     uint64  `json:"total_bytes"`
	UsedBytes      uint64  `json:"used_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	UsedPercent    float64 `json:"used_percent"`
	Summary        string  `json:"summary,omitempty" example:"1.2 GB of 7.7 GB (15.6%)"`
}

// UpstreamInfo summarises requests made to the AudioAddict servers.
type UpstreamInfo struct {
	Requests int64  `json:"requests"`
	Failures int64  `json:"failures"`
	Summary  string `json:"summary" example:"1,204 requests, 3 failed"`
}

// LivezResponse is the body of the liveness probe.
type LivezResponse struct {
	Status string `json:"status" example:"ok"`
}
