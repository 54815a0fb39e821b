package repl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"prepboard/internal/cli/command"
	httpclient "prepboard/internal/cli/http"
	"prepboard/internal/cli/state"
	pkgerrors "prepboard/pkg/errors"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
)

// LineReader is the input side of a session. *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
	ReadPassword(prompt string) ([]byte, error)
	SetPrompt(prompt string)
	Close() error
}

// NewLineReader opens a readline terminal with history and completion of the
// registered commands.
func NewLineReader(prompt, historyFile string, commands map[string]command.Command) (LineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       historyFile,
		AutoComplete:      completer(commands),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, fmt.Errorf("init readline failed: %w", err)
	}
	return rl, nil
}

func completer(commands map[string]command.Command) *readline.PrefixCompleter {
	byService := map[string][]readline.PrefixCompleterInterface{}
	var services []string
	for _, key := range command.Keys(commands) {
		cmd := commands[key]
		if _, ok := byService[cmd.Service]; !ok {
			services = append(services, cmd.Service)
		}
		byService[cmd.Service] = append(byService[cmd.Service], readline.PcItem(cmd.Action))
	}

	items := make([]readline.PrefixCompleterInterface, 0, len(services)+4)
	for _, service := range services {
		items = append(items, readline.PcItem(service, byService[service]...))
	}
	items = append(items,
		readline.PcItem("set", readline.PcItem("base"), readline.PcItem("token"), readline.PcItem("timeout")),
		readline.PcItem("show", readline.PcItem("token"), readline.PcItem("config")),
		readline.PcItem("logout"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
	return readline.NewPrefixCompleter(items...)
}

// Session holds REPL state.
type Session struct {
	client     *httpclient.Client
	commands   map[string]command.Command
	tokenState *state.TokenState
	statePath  string
	prettyJSON bool
	prompt     string
	in         LineReader
	out        io.Writer
	now        func() time.Time
}

// New creates a session. in may be nil for one-shot use, in which case
// missing required fields are reported instead of prompted for.
func New(client *httpclient.Client, commands map[string]command.Command, tokenState *state.TokenState, statePath string, prettyJSON bool, prompt string, in LineReader, out io.Writer) *Session {
	return &Session{
		client:     client,
		commands:   commands,
		tokenState: tokenState,
		statePath:  statePath,
		prettyJSON: prettyJSON,
		prompt:     prompt,
		in:         in,
		out:        out,
		now:        time.Now,
	}
}

// Run reads lines until exit, EOF or an interrupt on an empty line.
func (s *Session) Run(ctx context.Context) error {
	if s.in == nil {
		return errors.New("interactive input is not available")
	}
	for {
		line, err := s.in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input failed: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			s.printLine("bye")
			return nil
		}
		if err := s.Execute(ctx, line); err != nil {
			s.printLine("error: %v", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Execute runs one command line.
func (s *Session) Execute(ctx context.Context, line string) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	return s.ExecuteTokens(ctx, tokens)
}

// ExecuteTokens runs an already split command line.
func (s *Session) ExecuteTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	if s.handleSystemCommand(tokens) {
		return nil
	}
	if len(tokens) < 2 {
		return fmt.Errorf("invalid command, use: <service> <action> key=value ... (try help)")
	}

	cmd, ok := s.commands[tokens[0]+" "+tokens[1]]
	if !ok {
		return fmt.Errorf("unknown command: %s %s", tokens[0], tokens[1])
	}
	params := command.Params{}
	for _, token := range tokens[2:] {
		key, value, found := strings.Cut(token, "=")
		if !found {
			return fmt.Errorf("invalid param: %s", token)
		}
		params.Set(key, value)
	}
	params.Canonicalize(cmd.Fields)

	if cmd.RequiresAuth {
		if s.tokenState.AccessToken == "" {
			return fmt.Errorf("not signed in: run auth signin or set token")
		}
		if s.tokenState.Expired(s.now()) {
			s.printLine("warning: access token expired at %s", s.tokenState.AccessExpiresAt.Format(time.RFC3339))
		}
	}
	if err := s.promptMissing(cmd, params); err != nil {
		return err
	}
	req, err := command.BuildRequest(cmd, params)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(ctx, req.Method, req.Path, req.Body, cmd.RequiresAuth)
	if err != nil {
		return err
	}
	s.renderResponse(resp)
	if cmd.StoresToken {
		s.storeToken(resp)
	}
	return nil
}

func (s *Session) handleSystemCommand(tokens []string) bool {
	switch tokens[0] {
	case "help":
		s.printHelp()
	case "set":
		s.handleSet(tokens[1:])
	case "show":
		s.handleShow(tokens[1:])
	case "logout":
		*s.tokenState = state.TokenState{}
		if err := state.Clear(s.statePath); err != nil {
			s.printLine("clear token failed: %v", err)
			return true
		}
		s.printLine("signed out")
	default:
		return false
	}
	return true
}

func (s *Session) handleSet(args []string) {
	if len(args) < 2 {
		s.printLine("usage: set base <url> | set timeout <duration> | set token <access_token>")
		return
	}
	switch args[0] {
	case "base":
		s.client.SetBaseURL(args[1])
		s.printLine("base set to %s", s.client.BaseURL())
	case "timeout":
		dur, err := time.ParseDuration(args[1])
		if err != nil || dur <= 0 {
			s.printLine("invalid duration: %s", args[1])
			return
		}
		s.client.SetTimeout(dur)
		s.printLine("timeout set to %s", dur)
	case "token":
		*s.tokenState = state.TokenState{AccessToken: args[1]}
		if err := state.Save(s.statePath, *s.tokenState); err != nil {
			s.printLine("save token failed: %v", err)
			return
		}
		s.printLine("token updated")
	default:
		s.printLine("unknown set command: %s", args[0])
	}
}

func (s *Session) handleShow(args []string) {
	if len(args) == 0 {
		s.printLine("usage: show token|config")
		return
	}
	switch args[0] {
	case "token":
		if s.tokenState.AccessToken == "" {
			s.printLine("token: <empty>")
			return
		}
		s.printLine("token: %s", maskToken(s.tokenState.AccessToken))
		if s.tokenState.Email != "" {
			s.printLine("email: %s", s.tokenState.Email)
		}
		if !s.tokenState.AccessExpiresAt.IsZero() {
			s.printLine("expires: %s", s.tokenState.AccessExpiresAt.Format(time.RFC3339))
		}
	case "config":
		s.printLine("base: %s", s.client.BaseURL())
		s.printLine("timeout: %s", s.client.Timeout())
		s.printLine("tokenStatePath: %s", s.statePath)
	default:
		s.printLine("usage: show token|config")
	}
}

func maskToken(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:6] + "..." + token[len(token)-4:]
}

func (s *Session) promptMissing(cmd command.Command, params command.Params) error {
	if s.in == nil {
		return nil
	}
	defer s.in.SetPrompt(s.prompt)
	for _, field := range cmd.Fields {
		if !field.Required || strings.TrimSpace(params.Get(field.Name)) != "" {
			continue
		}
		prompt := field.Prompt + ": "
		var value string
		if field.Type == command.FieldSecret {
			raw, err := s.in.ReadPassword(prompt)
			if err != nil {
				return fmt.Errorf("read %s failed: %w", field.Name, err)
			}
			value = string(raw)
		} else {
			s.in.SetPrompt(prompt)
			line, err := s.in.Readline()
			if err != nil {
				return fmt.Errorf("read %s failed: %w", field.Name, err)
			}
			value = line
		}
		params.Set(field.Name, strings.TrimSpace(value))
	}
	return nil
}

func (s *Session) renderResponse(resp httpclient.ResponseInfo) {
	s.printLine("HTTP %d (%s)", resp.StatusCode, resp.Duration.Round(time.Millisecond))
	if len(resp.Body) == 0 {
		return
	}
	if s.prettyJSON {
		var raw interface{}
		if err := json.Unmarshal(resp.Body, &raw); err == nil {
			formatted, _ := json.MarshalIndent(raw, "", "  ")
			s.printLine("%s", formatted)
			return
		}
	}
	s.printLine("%s", resp.Body)
}

func (s *Session) storeToken(resp httpclient.ResponseInfo) {
	env, ok := resp.Envelope()
	if !ok || env.Code != int(pkgerrors.Success) {
		return
	}
	var data struct {
		AccessToken     string    `json:"access_token"`
		AccessExpiresAt time.Time `json:"access_expires_at"`
		User            struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.AccessToken == "" {
		return
	}
	*s.tokenState = state.TokenState{
		Email:           data.User.Email,
		AccessToken:     data.AccessToken,
		AccessExpiresAt: data.AccessExpiresAt,
	}
	if err := state.Save(s.statePath, *s.tokenState); err != nil {
		s.printLine("save token failed: %v", err)
		return
	}
	s.printLine("signed in as %s", data.User.Email)
}

func (s *Session) printHelp() {
	s.printLine("usage: <service> <action> key=value ...")
	s.printLine("system: help | exit | logout | set base|timeout|token <value> | show token|config")
	s.printLine("commands:")
	for _, key := range command.Keys(s.commands) {
		s.printLine("  %s", s.commands[key].Usage)
	}
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format+"\n", args...)
}
