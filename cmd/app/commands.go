package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/pit/internal"
	"github.com/starford/pit/internal/taskservice"
	pkgconfig "github.com/starford/pit/pkg/config"
)

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:   "pit",
		Usage:  "Checklist tasks with inline annotations over a Markdown vault",
		Action: serve,
		Writer: os.Stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Override the vault directory from the config file",
				Sources: cli.EnvVars("PIT_VAULT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and the vault watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:      "tasks",
				Usage:     "List the tasks of a document",
				ArgsUsage: "<path>",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    listTasks,
			},
			{
				Name:      "roll",
				Usage:     "Draw a task weighted by priority",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					jsonFlag(),
					&cli.BoolFlag{Name: "open", Usage: "Skip completed tasks"},
				},
				Action: rollTask,
			},
			{
				Name:      "toggle",
				Usage:     "Toggle the completion of the task on a one-based line",
				ArgsUsage: "<path> <line>",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    toggleTask,
			},
			{
				Name:      "stats",
				Usage:     "Show the completion history",
				ArgsUsage: "[path]",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    stats,
			},
		},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Print JSON"}
}

// loadConfig reads the config file. One-shot commands tolerate a missing
// file and run on defaults.
func loadConfig(cmd *cli.Command, optional bool) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	load := pkgconfig.Load[internal.Config]
	if optional {
		load = pkgconfig.LoadOptional[internal.Config]
	}
	if err := load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if v := cmd.String("vault"); v != "" {
		cfg.Vault.Path = v
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

// openRuntime wires the core for a one-shot command. Toggles settle as soon
// as they are written because no watcher runs.
func openRuntime(cmd *cli.Command) (*internal.Runtime, error) {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return nil, err
	}
	return internal.NewRuntime(
		[]internal.Option{internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr)},
		taskservice.WithSettleOnWrite(),
	)
}

func listTasks(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("tasks: document path is required")
	}
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	doc, err := rt.Service.ListTasks(ctx, path)
	if err != nil {
		return err
	}
	w := cmd.Root().Writer
	if cmd.Bool("json") {
		return printJSON(w, doc)
	}
	for _, t := range doc.Tasks {
		fmt.Fprintln(w, formatTask(t))
	}
	return nil
}

func rollTask(ctx context.Context, cmd *cli.Command) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	v, err := rt.Service.RollTask(ctx, cmd.Args().First(), taskservice.RollOptions{OpenOnly: cmd.Bool("open")})
	if err != nil {
		return err
	}
	w := cmd.Root().Writer
	if cmd.Bool("json") {
		return printJSON(w, v)
	}
	fmt.Fprintln(w, formatTask(*v))
	return nil
}

func toggleTask(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("toggle: expected <path> <line>")
	}
	line, err := strconv.Atoi(cmd.Args().Get(1))
	if err != nil || line < 1 {
		return fmt.Errorf("toggle: line must be a positive number, got %q", cmd.Args().Get(1))
	}
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.Service.ToggleTask(ctx, taskservice.ToggleRequest{Path: cmd.Args().First(), Line: line - 1})
	if err != nil {
		return err
	}
	w := cmd.Root().Writer
	if cmd.Bool("json") {
		return printJSON(w, res)
	}
	if res.Task != nil {
		fmt.Fprintln(w, formatTask(*res.Task))
	}
	return nil
}

func stats(ctx context.Context, cmd *cli.Command) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	st, err := rt.Service.Stats(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	w := cmd.Root().Writer
	if cmd.Bool("json") {
		return printJSON(w, st)
	}
	fmt.Fprintf(w, "%s  today %d, best %d\n", st.Sparkline, st.History.Today, st.History.Max)
	return nil
}

// formatTask renders "path:line:col text (due ...)" with one-based line and
// column, the form editors accept for jump-to.
func formatTask(t taskservice.TaskView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d:%d %s", t.Path, t.Line+1, t.Col+1, strings.TrimSpace(t.Text))
	if t.DueRelative != "" {
		fmt.Fprintf(&b, " (due %s)", t.DueRelative)
	}
	return b.String()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
