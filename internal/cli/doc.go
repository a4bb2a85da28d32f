// Package cli provides discovery, name validation, and command building for
// the qrexec-client-vm bridge binary.
//
// # Discovery
//
// The Discoverer interface locates the bridge binary:
//
//	discoverer := cli.NewDiscoverer(&cli.Config{
//	    BridgePath: "",           // Optional explicit path
//	    Logger:     slog.Default(),
//	})
//	path, err := discoverer.Discover(ctx)
//
// Discovery searches in the following order:
//  1. Explicit path in Config.BridgePath (if provided)
//  2. System PATH
//  3. The Qubes install locations (/usr/bin, /usr/lib/qubes)
//
// # Command Building
//
// BuildArgs assembles the bridge invocation. The negotiated write buffer size
// is passed as --buffer-size so both ends agree on the largest frame:
//
//	args := cli.BuildArgs(65536, "work", "my.Service+arg", "", nil)
//	// --buffer-size=65536 work my.Service+arg
package cli
