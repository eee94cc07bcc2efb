package exprjson

import (
	"fmt"

	"github.com/hengadev/exprjson/internal/visitor"
)

// Version of the exprjson library
const Version = "0.3.0"

// SchemaURI identifies the document layout this version reads and writes.
const SchemaURI = visitor.SchemaURI

// Build information (set by ldflags during build)
var (
	GitCommit string
	BuildDate string
)

// VersionInfo returns formatted version information
func VersionInfo() string {
	if GitCommit == "" {
		return fmt.Sprintf("exprjson v%s", Version)
	}
	return fmt.Sprintf("exprjson v%s (commit: %s, built: %s)", Version, GitCommit, BuildDate)
}

// VersionDetails contains detailed version information
type VersionDetails struct {
	Version   string `json:"version"`
	Schema    string `json:"schema"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

func FullVersionInfo() VersionDetails {
	return VersionDetails{
		Version:   Version,
		Schema:    SchemaURI,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	}
}

// String returns a formatted version string
func (v VersionDetails) String() string {
	if v.GitCommit == "" {
		return fmt.Sprintf("v%s", v.Version)
	}
	commit := v.GitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("v%s-%s (%s)", v.Version, commit, v.BuildDate)
}
