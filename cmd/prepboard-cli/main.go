package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"prepboard/internal/cli/command"
	"prepboard/internal/cli/config"
	httpclient "prepboard/internal/cli/http"
	"prepboard/internal/cli/repl"
	"prepboard/internal/cli/state"
)

const defaultConfigPath = "configs/cli.yaml"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the arguments after the flags as one command, or starts the
// interactive shell when there are none.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("prepboard-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	baseURL := fs.String("base", "", "Override base URL")
	timeout := fs.Duration("timeout", 0, "Override HTTP timeout (e.g. 10s)")
	token := fs.String("token", "", "Override access token")
	statePath := fs.String("state", "", "Override token state path")
	pretty := fs.Bool("pretty", false, "Pretty print JSON response")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	configSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			configSet = true
		}
	})
	cfg, err := config.Load(*configPath, configSet)
	if err != nil {
		fmt.Fprintf(stderr, "load config failed: %v\n", err)
		return 1
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *statePath != "" {
		cfg.TokenStatePath = *statePath
	}
	if *pretty {
		trueValue := true
		cfg.PrettyJSON = &trueValue
	}

	tokenState, err := state.Load(cfg.TokenStatePath)
	if err != nil {
		fmt.Fprintf(stderr, "load token state failed: %v\n", err)
		return 1
	}
	if *token != "" {
		tokenState.AccessToken = *token
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	client := httpclient.New(cfg.BaseURL, cfg.Timeout, func() string {
		return tokenState.AccessToken
	})
	commands := command.Registry()

	if rest := fs.Args(); len(rest) > 0 {
		session := repl.New(client, commands, &tokenState, cfg.TokenStatePath, cfg.Pretty(), cfg.Prompt, nil, stdout)
		if err := session.ExecuteTokens(ctx, rest); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}

	in, err := repl.NewLineReader(cfg.Prompt, cfg.HistoryFile, commands)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer func() {
		_ = in.Close()
	}()
	session := repl.New(client, commands, &tokenState, cfg.TokenStatePath, cfg.Pretty(), cfg.Prompt, in, stdout)
	if err := session.Run(ctx); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	return 0
}
