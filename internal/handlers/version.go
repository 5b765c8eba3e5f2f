package handlers

import (
	"net/http"
	"runtime/debug"
	"time"
)

// Version is stamped at build time with -ldflags "-X .../handlers.Version=..."
var Version = "dev"

// VersionInfo handles the /version endpoint
func VersionInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]string{
		"version":   Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info["go_version"] = bi.GoVersion
	}
	respondJSON(w, http.StatusOK, info)
}
