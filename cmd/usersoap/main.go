package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/usersoap/internal/config"
	"github.com/standardbeagle/usersoap/internal/debug"
	"github.com/standardbeagle/usersoap/internal/version"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	// Apply CLI flag overrides
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}
	if c.IsSet("backend") {
		cfg.Store.Backend = c.String("backend")
	}
	if c.IsSet("data") {
		data := c.String("data")
		if cfg.Store.Backend == config.BackendPostgres {
			cfg.Store.DSN = data
		} else {
			cfg.Store.Path = data
			cfg.Store.DSN = ""
		}
	}

	if err := config.NewValidator().ValidateAndSetDefaults(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// storeFlags select the backend for commands that open the store
func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "Data location: JSON file for file, database file for sqlite, DSN for postgres",
		},
		&cli.StringFlag{
			Name:    "backend",
			Aliases: []string{"b"},
			Usage:   "Store backend: file, sqlite, postgres, memory",
		},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "usersoap",
		Usage:                  "SOAP-style user record service",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Before: func(c *cli.Context) error {
			// DEBUG=1 traces go to stderr; MCP mode still silences them
			if debug.IsDebugEnabled() {
				debug.SetDebugOutput(c.App.ErrWriter)
			}
			return nil
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (.kdl or .toml)",
				Value:   config.DefaultConfigFile,
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"s"},
				Usage:   "Serve the SOAP endpoint over HTTP",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Aliases: []string{"a"},
						Usage:   "Listen address (default :8000)",
					},
				}, storeFlags()...),
				Action: serveCommand,
			},
			{
				Name:   "mcp",
				Usage:  "Start MCP (Model Context Protocol) server with stdio transport",
				Flags:  storeFlags(),
				Action: mcpCommand,
			},
			{
				Name:   "init",
				Usage:  "Create an empty user store if none exists",
				Flags:  storeFlags(),
				Action: initCommand,
			},
			{
				Name:  "call",
				Usage: "Send one operation to a running server and print the response envelope",
				Description: `Examples:
  usersoap call --op GetAllUsers
  usersoap call --op CreateUser --name Ana --email ana@x.io --age 30
  usersoap call --addr localhost:9000 --op DeleteUser --id 3`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Aliases: []string{"a"},
						Usage:   "Server address or URL",
						Value:   "localhost" + config.DefaultAddr,
					},
					&cli.StringFlag{
						Name:     "op",
						Aliases:  []string{"o"},
						Usage:    "Operation: GetAllUsers, GetUser, CreateUser, UpdateUser, DeleteUser",
						Required: true,
					},
					&cli.IntFlag{Name: "id", Usage: "User id"},
					&cli.StringFlag{Name: "name", Usage: "User name"},
					&cli.StringFlag{Name: "email", Usage: "User email"},
					&cli.IntFlag{Name: "age", Usage: "User age"},
				},
				Action: callCommand,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List the users held by a running server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Aliases: []string{"a"},
						Usage:   "Server address or URL",
						Value:   "localhost" + config.DefaultAddr,
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: listCommand,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}
