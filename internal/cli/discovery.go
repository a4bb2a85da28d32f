package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/wagiedev/qrexec-go/internal/errors"
)

// BridgeName is the executable name of the qrexec bridge.
const BridgeName = "qrexec-client-vm"

// commonPaths are the install locations used by Qubes packages.
var commonPaths = []string{
	"/usr/bin/" + BridgeName,
	"/usr/lib/qubes/" + BridgeName,
}

// Config holds configuration for bridge discovery.
type Config struct {
	// BridgePath is an explicit bridge path that skips PATH search.
	// If empty, discovery will search PATH and common locations.
	BridgePath string

	// Logger is an optional logger for discovery operations.
	// If nil, a no-op logger is used.
	Logger *slog.Logger
}

// Discoverer locates the qrexec bridge binary.
type Discoverer interface {
	// Discover returns the path to the bridge binary or an
	// *errors.ExecutableNotFoundError.
	Discover(ctx context.Context) (string, error)
}

type discoverer struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new bridge discoverer with the given configuration.
func NewDiscoverer(cfg *Config) Discoverer {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &discoverer{
		cfg: cfg,
		log: log,
	}
}

// Discover locates the bridge binary.
func (d *discoverer) Discover(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// If explicit path provided, use it and only it
	if d.cfg.BridgePath != "" {
		d.log.Debug("Using explicit bridge path", "bridge_path", d.cfg.BridgePath)

		if _, err := os.Stat(d.cfg.BridgePath); err == nil {
			return d.cfg.BridgePath, nil
		}

		return "", &errors.ExecutableNotFoundError{SearchedPaths: []string{d.cfg.BridgePath}}
	}

	searchedPaths := make([]string, 0, len(commonPaths)+1)

	if path, err := exec.LookPath(BridgeName); err == nil {
		d.log.Debug("Found bridge in PATH", "path", path)

		return path, nil
	}

	searchedPaths = append(searchedPaths, "$PATH")

	for _, path := range commonPaths {
		searchedPaths = append(searchedPaths, path)

		if _, err := os.Stat(path); err == nil {
			d.log.Debug("Found bridge at common path", "path", path)

			return path, nil
		}
	}

	d.log.Warn("Bridge not found in any searched paths", "searched_paths", searchedPaths)

	return "", &errors.ExecutableNotFoundError{SearchedPaths: searchedPaths}
}
