// Package cli is the mapmate command line. Each command stands in for one
// screen or control of the web client and drives the same application
// services.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bobvengers/mapmate/internal/interfaces/cli/render"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// IO holds the process streams
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// BuildInfo describes the binary
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildTime string
}

// Execute runs the command line and returns the process exit code
func Execute(ctx context.Context, build BuildInfo, args []string, stdio IO) int {
	var (
		opts globalOptions
		app  *App
	)

	root := &cobra.Command{
		Use:           "mapmate",
		Short:         "Restaurant maps, reviews, and dining meetups from the terminal",
		Version:       build.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			app, err = newApp(cmd.Context(), opts, build, stdio)
			return err
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("mapmate %s (commit %s, built %s)\n", build.Version, build.GitCommit, build.BuildTime))
	root.SetArgs(args)
	root.SetIn(stdio.In)
	root.SetOut(stdio.Out)
	root.SetErr(stdio.Err)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default mapmate.toml or mapmate.yaml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVarP(&opts.output, "output", "o", "", "output format: table, json, yaml")
	flags.BoolVar(&opts.stats, "stats", false, "print per-endpoint request statistics to stderr")

	// Commands read the App through this accessor because it only exists
	// once PersistentPreRunE has run.
	get := func() *App { return app }
	root.AddGroup(
		&cobra.Group{ID: "account", Title: "Account:"},
		&cobra.Group{ID: "browse", Title: "Maps and reviews:"},
		&cobra.Group{ID: "meetups", Title: "Meetups:"},
	)
	root.AddCommand(
		newLoginCommand(get),
		newSignupCommand(get),
		newLogoutCommand(get),
		newWhoamiCommand(get),
		newHomeCommand(get),
		newMapsCommand(get),
		newReviewsCommand(get),
		newAssembleCommand(get),
		newPlacesCommand(get),
	)

	err := root.ExecuteContext(ctx)
	if app != nil {
		if opts.stats {
			if serr := printStats(app, stdio.Err); serr != nil {
				app.Logger.Warn("could not print request statistics", zap.Error(serr))
			}
		}
		_ = app.Close()
	}
	if err != nil {
		fmt.Fprintf(stdio.Err, "Error: %s\n", describe(err))
		return 1
	}
	return 0
}

func printStats(app *App, w io.Writer) error {
	stats, err := app.Recorder.Summary()
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	return render.New(render.FormatTable, w).Render(stats, func(t *render.Table) {
		t.Row("METHOD", "ENDPOINT", "REQUESTS", "REJECTED", "UNREACHABLE", "AVG")
		for _, s := range stats {
			t.Row(s.Method, s.Endpoint, s.Requests, s.Rejected, s.Unreachable, s.AvgLatency().Round(time.Millisecond))
		}
	})
}
