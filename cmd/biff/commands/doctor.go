package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/biffhq/biff/internal/config"
	"github.com/biffhq/biff/internal/identity"
	"github.com/biffhq/biff/internal/relay"
)

const relayProbeTimeout = 3 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose a biff installation for this repository",
	Long: `Run the six installation probes (identity authority, transport
registration, plugin files, relay reachability, per-repo config, status bar)
and report pass/fail for each. The first four are required; the exit code
is non-zero iff any required probe fails.`,
	RunE: runDoctor,
}

type probeResult struct {
	name     string
	required bool
	ok       bool
	detail   string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	dir, err := workDir()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	probes := []struct {
		name     string
		required bool
		fn       func(dir string) (bool, string)
	}{
		{"identity authority", true, probeIdentity},
		{"transport registration", true, probeTransportRegistration},
		{"plugin files", true, probePluginFiles},
		{"relay reachable", true, probeRelay},
		{"per-repo config", false, probeConfig},
		{"status bar installed", false, probeStatusBar},
	}

	results := make([]probeResult, len(probes))
	group, _ := errgroup.WithContext(context.Background())
	for i, p := range probes {
		i, p := i, p
		group.Go(func() error {
			ok, detail := p.fn(dir)
			results[i] = probeResult{name: p.name, required: p.required, ok: ok, detail: detail}
			return nil
		})
	}
	_ = group.Wait()

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROBE\tREQUIRED\tSTATUS\tDETAIL")
	failed := false
	for _, r := range results {
		status := "ok"
		if !r.ok {
			status = "FAIL"
			if r.required {
				failed = true
			}
		}
		fmt.Fprintf(w, "%s\t%v\t%s\t%s\n", r.name, r.required, status, r.detail)
	}
	w.Flush()
	fmt.Fprint(cmd.OutOrStdout(), buf.String())

	if failed {
		return fmt.Errorf("one or more required checks failed")
	}
	return nil
}

func probeIdentity(dir string) (bool, string) {
	id, err := identity.Resolve()
	if err != nil {
		return false, err.Error()
	}
	return true, "login=" + id.Login
}

func probeTransportRegistration(dir string) (bool, string) {
	marker := filepath.Join(config.GetPaths().Config, registrationFileName)
	if _, err := os.Stat(marker); err != nil {
		return false, marker + " not found"
	}
	return true, marker
}

func probePluginFiles(dir string) (bool, string) {
	paths := config.GetPaths()
	if _, err := os.Stat(paths.Config); err != nil {
		return false, paths.Config + " missing"
	}
	return true, paths.Config
}

func probeRelay(dir string) (bool, string) {
	cfg, err := config.LoadForDirectory(dir)
	if err != nil {
		return false, err.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), relayProbeTimeout)
	defer cancel()

	paths := config.GetPaths()
	r, err := relay.New(ctx, cfg.Relay, paths.RelayDataPath())
	if err != nil {
		return false, err.Error()
	}
	defer r.Close()

	if _, err := r.ListSessions(ctx, "doctor-probe"); err != nil {
		return false, err.Error()
	}
	return true, "reachable"
}

func probeConfig(dir string) (bool, string) {
	path := config.ProjectConfigPath(dir)
	if _, err := os.Stat(path); err != nil {
		return false, path + " not found (LocalRelay defaults apply)"
	}
	return true, path
}

func probeStatusBar(dir string) (bool, string) {
	script := filepath.Join(config.GetPaths().Config, statuslineScriptName)
	if _, err := os.Stat(script); err != nil {
		return false, script + " not found"
	}
	return true, script
}
