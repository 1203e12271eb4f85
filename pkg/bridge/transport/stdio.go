package transport

import (
	"context"
	"fmt"
	"os"

	mcpgoclient "github.com/mark3labs/mcp-go/client"

	"github.com/mcpweave/mcpweave/pkg/bridge/config"
	"github.com/mcpweave/mcpweave/pkg/logging"
)

// childMarkerEnv tags spawned children as bridge-managed (spec §4.1:
// "well-behaved children [can] mute spurious shutdown traces"), grounded on
// original_source's server_manager.py: server_env["MCP_BRIDGE_CHILD"] = "1".
const childMarkerEnv = "MCPWEAVE_CHILD=1"

// Stdio opens a child-process transport for cfg, which must use
// transportType "stdio" and carry a non-empty Command (spec §4.7 point 2
// already enforces this at config-validation time).
func Stdio(ctx context.Context, cfg *config.BackendConfig) (*Handle, error) {
	build := func(context.Context) (*mcpgoclient.Client, error) {
		return spawnStdio(cfg)
	}

	c, err := build(ctx)
	if err != nil {
		return nil, fmt.Errorf("spawning stdio backend %q: %w", cfg.Name, err)
	}

	h := &Handle{
		Client:    c,
		kind:      config.TransportStdio,
		errs:      make(chan error, errorQueueCapacity),
		rebuildFn: build,
		// Respawning a child process is expensive and resets its internal
		// state; it is the rebuild primitive of last resort (spec §9), but
		// it is still the *only* recovery primitive stdio has, so it is
		// reported as supported.
		supportsRebuild: true,
	}
	return h, nil
}

func spawnStdio(cfg *config.BackendConfig) (*mcpgoclient.Client, error) {
	env := sanitizedEnv(cfg.Env)
	logging.Debugf("transport: spawning stdio backend %q: %s %v", cfg.Name, cfg.Command, cfg.Args)
	return mcpgoclient.NewStdioMCPClient(cfg.Command, env, cfg.Args...)
}

// sanitizedEnv builds the child's environment: the bridge process's own
// environment plus the per-backend overrides plus the bridge-managed marker
// (spec §4.1).
func sanitizedEnv(overrides map[string]string) []string {
	base := os.Environ()
	env := make([]string, 0, len(base)+len(overrides)+1)
	env = append(env, base...)
	for k, v := range overrides {
		env = append(env, k+"="+v)
	}
	env = append(env, childMarkerEnv)
	return env
}
