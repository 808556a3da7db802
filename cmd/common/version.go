package common

import (
	"fmt"
	"io"
	"runtime"
)

const (
	ProjectName = "Trend RSI Backtest"
	ProjectRepo = "github.com/ducminhle1904/trend-rsi-backtest"
)

// Build information, overridden with -ldflags "-X ...common.Version=...".
var (
	Version     = "0.3.0"
	BuildDate   = "unknown"
	BuildCommit = "dev"
)

// VersionInfo contains version and build information
type VersionInfo struct {
	ProjectName  string `json:"project_name"`
	Version      string `json:"version"`
	BuildDate    string `json:"build_date"`
	BuildCommit  string `json:"build_commit"`
	GoVersion    string `json:"go_version"`
	Architecture string `json:"architecture"`
	Repository   string `json:"repository"`
}

func GetVersionInfo() VersionInfo {
	return VersionInfo{
		ProjectName:  ProjectName,
		Version:      Version,
		BuildDate:    BuildDate,
		BuildCommit:  BuildCommit,
		GoVersion:    runtime.Version(),
		Architecture: runtime.GOOS + "/" + runtime.GOARCH,
		Repository:   ProjectRepo,
	}
}

// PrintVersion writes the version banner of appName to w.
func PrintVersion(w io.Writer, appName string) {
	info := GetVersionInfo()
	fmt.Fprintf(w, "%s v%s\n", appName, info.Version)
	fmt.Fprintf(w, "Build: %s (%s)\n", info.BuildCommit, info.BuildDate)
	fmt.Fprintf(w, "Go: %s (%s)\n", info.GoVersion, info.Architecture)
}

// IsDevBuild returns true if this is a development build
func IsDevBuild() bool {
	return BuildCommit == "dev"
}
