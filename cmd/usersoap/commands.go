package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/usersoap/internal/config"
	"github.com/standardbeagle/usersoap/internal/debug"
	"github.com/standardbeagle/usersoap/internal/logging"
	"github.com/standardbeagle/usersoap/internal/mcp"
	"github.com/standardbeagle/usersoap/internal/server"
	"github.com/standardbeagle/usersoap/internal/soap"
	"github.com/standardbeagle/usersoap/internal/types"
)

func mcpCommand(c *cli.Context) error {
	// stdout carries the protocol, so debug output is suppressed
	debug.SetMCPMode(true)

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	var logOut io.Writer = io.Discard
	if cfg.Log.Level == "debug" {
		logOut = c.App.ErrWriter
	}
	logger := logging.New(cfg.Log, logOut)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	debug.LogMCP("serving %s store over stdio", st.Backend())
	return mcp.NewServer(newService(cfg, st, logger)).Start(ctx)
}

func initCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	st, err := openStore(c.Context, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	users, err := st.Load(c.Context)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "%s store ready at %s (%d users)\n", st.Backend(), storeLocation(cfg.Store), len(users))
	return nil
}

func storeLocation(s config.Store) string {
	switch {
	case s.Backend == config.BackendMemory:
		return "memory"
	case s.DSN != "":
		return s.DSN
	default:
		return s.Path
	}
}

func callCommand(c *cli.Context) error {
	op := types.Operation(c.String("op"))
	if !op.Known() {
		if suggestion, ok := soap.Suggest(op.String()); ok {
			return fmt.Errorf("unknown operation %q (did you mean %q?)", op, suggestion)
		}
	}

	for _, flag := range []string{"id", "age"} {
		if c.IsSet(flag) && c.Int(flag) < 0 {
			return fmt.Errorf("--%s must not be negative, got %d", flag, c.Int(flag))
		}
	}

	var params soap.Params
	if c.IsSet("id") {
		params.ID = soap.Int(c.Int("id"))
	}
	if c.IsSet("name") {
		params.Name = soap.String(c.String("name"))
	}
	if c.IsSet("email") {
		params.Email = soap.String(c.String("email"))
	}
	if c.IsSet("age") {
		params.Age = soap.Int(c.Int("age"))
	}

	client := server.NewClient(c.String("addr"))
	defer client.CloseIdleConnections()

	envelope, err := client.Call(c.Context, soap.NewRequest(op, params))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, envelope)
	return nil
}

func listCommand(c *cli.Context) error {
	client := server.NewClient(c.String("addr"))
	defer client.CloseIdleConnections()

	users, err := client.ListUsers(c.Context)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(users)
	}

	if len(users) == 0 {
		fmt.Fprintln(c.App.Writer, "No users")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "%-6s %-24s %-32s %s\n", "ID", "NAME", "EMAIL", "AGE")
	for _, u := range users {
		fmt.Fprintf(c.App.Writer, "%-6d %-24s %-32s %d\n", u.ID, u.Name, u.Email, u.Age)
	}
	return nil
}
