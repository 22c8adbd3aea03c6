// Package common provides shared helpers for the server
package common

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"tasks-server/internal/version"
)

// Info holds system and application information
type Info struct {
	Hostname  string         `json:"hostname"`
	OS        string         `json:"os"`
	Version   string         `json:"version"`
	GoVersion string         `json:"go_version"`
	NumCPU    int            `json:"num_cpu"`
	StartTime time.Time      `json:"start_time"`
	Uptime    string         `json:"uptime"`
	Requests  int64          `json:"requests"`
	Tables    map[string]int `json:"tables"`
}

// GetInfo returns system and application information for a process started at startTime
func GetInfo(startTime time.Time) *Info {
	hostname, _ := os.Hostname()

	return &Info{
		Hostname:  hostname,
		OS:        runtime.GOOS,
		Version:   version.Version,
		GoVersion: runtime.Version(),
		NumCPU:    runtime.NumCPU(),
		StartTime: startTime,
		Uptime:    time.Since(startTime).Truncate(time.Second).String(),
		Tables:    map[string]int{},
	}
}

// String returns a string representation of the Info struct
func (i *Info) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Server Information:\n")
	fmt.Fprintf(&sb, "Hostname: %s\n", i.Hostname)
	fmt.Fprintf(&sb, "OS: %s\n", i.OS)
	fmt.Fprintf(&sb, "Version: %s\n", i.Version)
	fmt.Fprintf(&sb, "Go Version: %s\n", i.GoVersion)
	fmt.Fprintf(&sb, "NumCPU: %d\n", i.NumCPU)
	fmt.Fprintf(&sb, "Uptime: %s\n", i.Uptime)
	fmt.Fprintf(&sb, "Requests: %d\n", i.Requests)

	names := make([]string, 0, len(i.Tables))
	for name := range i.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "Table %s: %d records\n", name, i.Tables[name])
	}

	return sb.String()
}
