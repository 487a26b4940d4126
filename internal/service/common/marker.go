//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/mlcommons/mlcube-deploy/internal/logger"
)

const (
	// MarkerFilename marks that a deploy run is in progress to avoid
	// two runs staging into the same deploy directory.
	MarkerFilename = "mlcube-deploy-marker.bin"

	// markerLifetime is the period after which a marker without a live
	// process behind it is considered stale.
	markerLifetime = 30 * time.Second

	// baseExecutable is the tool binary name; platform helpers append extension when needed.
	baseExecutable = "mlcube-deploy"
)

// ErrRunInProgress indicates another deploy run holds the marker.
var ErrRunInProgress = errors.New("another mlcube-deploy run is in progress")

// AcquireRunMarker creates the run marker, refusing when another run holds it.
func AcquireRunMarker(ctx context.Context) error {
	if IsRunInProgress(ctx) {
		return ErrRunInProgress
	}

	marker, err := os.Create(MarkerFilename)
	if err != nil {
		return err
	}

	return marker.Close()
}

// ReleaseRunMarker removes the run marker. Best-effort; a leftover marker
// ages out via the staleness check.
func ReleaseRunMarker() {
	if _, err := os.Stat(MarkerFilename); err == nil {
		_ = os.Remove(MarkerFilename)
	}
}

// IsRunInProgress checks presence of a marker file and attempts recovery if it looks stale.
func IsRunInProgress(ctx context.Context) bool {
	logger.Debug(ctx, "Checking for the presence of a run marker")

	fileInfo, err := os.Stat(MarkerFilename)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The run marker is too old, checking for a live process")

		if isProcessAliveByName(toolExecutable()) {
			return true
		}

		if err = os.Remove(MarkerFilename); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	logger.Infof(ctx, "Unable to read run marker: %v", err)

	return false
}

// isProcessAliveByName reports whether another process with the provided
// executable name is running.
func isProcessAliveByName(processName string) bool {
	processList, err := ps.Processes()
	if err != nil {
		// Cannot inspect processes; honor the marker.
		return true
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() == processName {
			return true
		}
	}

	return false
}

// toolExecutable returns the tool binary name for the current platform.
func toolExecutable() string {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return baseExecutable + ".exe"
	}

	return baseExecutable
}
