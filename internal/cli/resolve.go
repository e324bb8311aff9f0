package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgrepo/internal/api"
	"github.com/matzehuels/pkgrepo/pkg/resolve"
)

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var (
		o      overrides
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <repository-url>",
		Short: "Resolve every package of a repository for the target platform",
		Long: `Resolve fetches the repository manifest at <repository-url> together with its
includes, enriches each package from its code host and selects the release
that installs on the target platform and host version.

A GitHub account URL (https://github.com/<user>) resolves every repository
of the account instead.`,
		Example: `  pkgrepo resolve https://example.com/repository.json
  pkgrepo resolve https://example.com/repository.json --platform windows --arch x64 --host-version 4169
  pkgrepo resolve https://github.com/someuser --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd, args[0], o, asJSON)
		},
	}

	o.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")

	return cmd
}

func (c *CLI) runResolve(cmd *cobra.Command, repoURL string, o overrides, asJSON bool) error {
	ctx := cmd.Context()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if err := o.apply(cmd, &cfg); err != nil {
		return err
	}

	svc, err := newService(ctx, cfg, o, c.Logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	provider := svc.Provider(repoURL)
	prog := newProgress(c.Logger)

	var spinner *Spinner
	if !asJSON {
		spinner = newSpinnerWithContext(ctx, "Resolving "+repoURL)
		spinner.Start()
	}
	res, err := provider.Packages(ctx)
	if err != nil {
		if spinner != nil {
			spinner.StopWithError("Resolution failed")
		}
		return fmt.Errorf("resolve %s: %w", repoURL, err)
	}
	if spinner != nil {
		spinner.Stop()
	}
	prog.done(fmt.Sprintf("Resolved %d packages", len(res.Packages)))

	out := cmd.OutOrStdout()
	if asJSON {
		return writeResultJSON(out, repoURL, res)
	}
	printResult(out, repoURL, res)
	return nil
}

func writeResultJSON(w io.Writer, repoURL string, res *resolve.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(api.PackagesResponse{
		Repository:  repoURL,
		Packages:    res.Sorted(),
		Unavailable: res.Unavailable,
		Renamed:     res.Renamed,
	})
}
