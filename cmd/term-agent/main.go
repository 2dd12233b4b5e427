package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hualet/deepin-term-agent/internal/agent"
	"github.com/hualet/deepin-term-agent/internal/config"
	"github.com/hualet/deepin-term-agent/internal/provider"
	"github.com/hualet/deepin-term-agent/internal/registry"
	"github.com/hualet/deepin-term-agent/internal/tool/builtin"
	"github.com/hualet/deepin-term-agent/internal/ui"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:     "term-agent",
		Short:   "deepin-term-agent: an AI assistant for the terminal",
		Long:    "An interactive terminal agent that runs commands, works with files, and calls MCP tool servers on your behalf.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context())
		},
	}

	root.AddCommand(chatCmd())
	root.AddCommand(runCmd())
	root.AddCommand(serverCmd())
	root.AddCommand(initCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.General.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	out := os.Stderr
	if cfg.General.LogFile != "" {
		if f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			out = f
		}
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

// setup loads configuration and assembles the tool registry, the provider,
// and the agent.
func setup(ctx context.Context) (*agent.Agent, *registry.Registry, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)

	reg := registry.New(cfg, logger)
	for _, h := range builtin.Set(cfg, logger) {
		if err := reg.RegisterBuiltin(h); err != nil {
			return nil, nil, fmt.Errorf("register builtin: %w", err)
		}
	}
	reg.ConnectServers(ctx)

	p, err := provider.New(cfg.Provider, logger)
	if err != nil {
		return nil, nil, err
	}

	return agent.New(p, agent.NewRouter(reg, logger), logger), reg, nil
}

func runChat(ctx context.Context) error {
	a, reg, err := setup(ctx)
	if err != nil {
		return err
	}
	return ui.Run(a, reg)
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context())
		},
	}
}

func runCmd() *cobra.Command {
	var command string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single request headlessly and print the answer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if command == "" {
				return fmt.Errorf("--command is required")
			}
			a, _, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			answer, err := a.RunTurn(cmd.Context(), command)
			if err != nil {
				return err
			}
			fmt.Println(answer)
			return nil
		},
	}
	cmd.Flags().StringVarP(&command, "command", "c", "", "request to execute")
	return cmd
}

func serverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Manage MCP server connections",
	}

	var enabled bool
	add := &cobra.Command{
		Use:   "add <name> <endpoint>",
		Short: "Add an MCP server (ws:// or wss:// endpoint)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.NewLoader().AddServer(args[0], args[1], enabled); err != nil {
				return err
			}
			fmt.Printf("added server %q (%s)\n", args[0], args[1])
			return nil
		},
	}
	add.Flags().BoolVar(&enabled, "enabled", true, "connect to this server on startup")

	remove := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove an MCP server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.NewLoader().RemoveServer(args[0]); err != nil {
				return err
			}
			fmt.Printf("removed server %q\n", args[0])
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List configured MCP servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if len(cfg.Servers) == 0 {
				fmt.Println("no servers configured")
				return nil
			}
			for name, server := range cfg.Servers {
				state := "disabled"
				if server.Enabled {
					state = "enabled"
				}
				fmt.Printf("%s\t%s\t%s\n", name, server.Endpoint, state)
			}
			return nil
		},
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader()
			cfg, err := loader.Load()
			if err != nil {
				cfg = config.DefaultConfig()
			}
			if err := loader.Save(cfg); err != nil {
				return err
			}
			home, _ := os.UserHomeDir()
			fmt.Printf("wrote %s/.config/%s/%s\n", home, config.ConfigDir, config.ConfigFile)
			return nil
		},
	}
}
