// Package version holds build-time metadata injected via -ldflags, e.g.
//
//	go build -ldflags "-X sentinel/internal/version.Version=v0.2.0"
package version

var (
	// Version is a SemVer tag like v1.2.3 for releases. Empty for dev builds.
	Version = ""
	// Commit is the short git SHA for the build.
	Commit = ""
	// Date is the UTC build timestamp in RFC3339 format.
	Date = ""
)

// APIVersion is reported by the status endpoints regardless of build metadata.
const APIVersion = "0.1.0"

// String returns Version for releases, "dev-<sha>" for commit builds, else "dev".
func String() string {
	if Version != "" {
		return Version
	}
	if Commit != "" {
		return "dev-" + Commit
	}
	return "dev"
}

// Info is the payload served by GET /version.
type Info struct {
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	Commit     string `json:"commit,omitempty"`
	Date       string `json:"date,omitempty"`
}

// Current returns the build metadata of the running binary.
func Current() Info {
	return Info{Version: String(), APIVersion: APIVersion, Commit: Commit, Date: Date}
}
