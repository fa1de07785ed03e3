package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/viewer"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runList(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sess, err := internal.OpenSession(cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	rows, err := sess.Viewer.ListDiagrams(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tLAYOUT\tNODES\tEDGES\tSCENES")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			r.SpecID, r.Title, r.Layout, r.NodeCount, r.EdgeCount, r.SceneCount)
	}
	return w.Flush()
}

func runRender(ctx context.Context, cmd *cli.Command) error {
	specID := cmd.Args().First()
	if specID == "" {
		return fmt.Errorf("usage: ansuz render <diagram-id>")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sess, err := internal.OpenSession(cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	var result *viewer.RenderResult
	if scene := cmd.String("scene"); scene != "" {
		result, err = sess.Viewer.RenderScene(ctx, specID, scene)
	} else {
		result, err = sess.Viewer.RenderOverlays(ctx, specID, cmd.StringSlice("overlay"))
	}
	if err != nil {
		return err
	}

	for _, warning := range result.Warnings {
		sess.Logger.Warn("render warning", slog.String("detail", warning))
	}

	if out := cmd.String("out"); out != "" {
		if err := os.WriteFile(out, []byte(result.Text), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		sess.Logger.Info("diagram written", slog.String("path", out))
		return nil
	}

	fmt.Print(result.Text)
	if !strings.HasSuffix(result.Text, "\n") {
		fmt.Println()
	}
	return nil
}

func runPlay(ctx context.Context, cmd *cli.Command) error {
	specID := cmd.Args().First()
	if specID == "" {
		return fmt.Errorf("usage: ansuz play <diagram-id>")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if ms := cmd.Int("interval-ms"); ms > 0 {
		cfg.Playback.IntervalMS = int(ms)
	}

	return internal.Run(ctx,
		internal.WithConfig(cfg),
		internal.WithSpecID(specID),
	)
}

func runSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("usage: ansuz search <query>")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sess, err := internal.OpenSession(cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	results, err := sess.Viewer.Search(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSNIPPET")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.SpecID, r.Title, r.Snippet)
	}
	return w.Flush()
}

func runMCP(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sess, err := internal.OpenSession(cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	return mcpserver.New(sess.Viewer).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:  "ansuz",
		Usage: "Local-first diagram study tool: composes overlay scenes onto JSON diagram specs and renders them as Mermaid text",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List catalogued diagrams",
				Action: runList,
			},
			{
				Name:      "render",
				Usage:     "Render a diagram to Mermaid text",
				ArgsUsage: "<diagram-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "scene",
						Usage: "Scene id to render",
					},
					&cli.StringSliceFlag{
						Name:  "overlay",
						Usage: "Overlay id to apply (repeatable, applied in order; ignored when --scene is set)",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Write output to a file instead of stdout",
					},
				},
				Action: runRender,
			},
			{
				Name:      "play",
				Usage:     "Auto-play a diagram walkthrough step by step",
				ArgsUsage: "<diagram-id>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "interval-ms",
						Usage: "Auto-play interval in milliseconds (overrides config)",
					},
				},
				Action: runPlay,
			},
			{
				Name:      "search",
				Usage:     "Full-text search through diagram content",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 20,
					},
				},
				Action: runSearch,
			},
			{
				Name:   "mcp",
				Usage:  "Serve diagram tools over the Model Context Protocol on stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
