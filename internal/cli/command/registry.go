package command

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

var (
	emailField    = Field{Name: "email", Prompt: "email", Type: FieldString, Required: true}
	passwordField = Field{Name: "password", Prompt: "password", Type: FieldSecret, Required: true}
	problemField  = Field{Name: "problem_id", Aliases: []string{"id", "pid"}, Prompt: "problem_id", Type: FieldInt64, Required: true}
)

// Registry returns all CLI commands keyed by "service action".
func Registry() map[string]Command {
	commands := []Command{
		{
			Service:      "auth",
			Action:       "signup",
			Method:       http.MethodPost,
			PathTemplate: "/api/v1/auth/signup",
			StoresToken:  true,
			Fields:       []Field{emailField, passwordField},
			Usage:        "auth signup email=ada@example.com",
		},
		{
			Service:      "auth",
			Action:       "signin",
			Method:       http.MethodPost,
			PathTemplate: "/api/v1/auth/signin",
			StoresToken:  true,
			Fields:       []Field{emailField, passwordField},
			Usage:        "auth signin email=ada@example.com",
		},
		{
			Service:      "auth",
			Action:       "me",
			Method:       http.MethodGet,
			PathTemplate: "/api/v1/auth/me",
			RequiresAuth: true,
			Usage:        "auth me",
		},
		{
			Service:      "company",
			Action:       "list",
			Method:       http.MethodGet,
			PathTemplate: "/api/v1/companies",
			RequiresAuth: true,
			Usage:        "company list",
		},
		{
			Service:      "company",
			Action:       "problems",
			Method:       http.MethodGet,
			PathTemplate: "/api/v1/companies/:slug/problems",
			RequiresAuth: true,
			Fields: []Field{
				{Name: "slug", Aliases: []string{"company", "name"}, Prompt: "company", Type: FieldString, In: InPath, Required: true},
				{Name: "filter", Prompt: "filter (ALL|TODO|REDO)", Type: FieldString, In: InQuery},
				{Name: "sort", Prompt: "sort (id|frequency)", Type: FieldString, In: InQuery},
			},
			Usage: `company problems slug="Jane Street" filter=REDO sort=frequency`,
		},
		{
			Service:      "progress",
			Action:       "set",
			Method:       http.MethodPost,
			PathTemplate: "/api/v1/progress",
			RequiresAuth: true,
			Fields: []Field{
				problemField,
				{Name: "status", Prompt: "status (TODO|DONE|REDO)", Type: FieldString, Required: true},
			},
			Usage: "progress set problem_id=12 status=DONE",
		},
		{
			Service:      "progress",
			Action:       "toggle",
			Method:       http.MethodPost,
			PathTemplate: "/api/v1/progress/toggle",
			RequiresAuth: true,
			Fields: []Field{
				problemField,
				{Name: "target", Prompt: "target (DONE|REDO)", Type: FieldString, Required: true},
			},
			Usage: "progress toggle problem_id=12 target=REDO",
		},
		{
			Service:      "progress",
			Action:       "get",
			Method:       http.MethodGet,
			PathTemplate: "/api/v1/progress/:problem_id",
			RequiresAuth: true,
			Fields: []Field{
				{Name: problemField.Name, Aliases: problemField.Aliases, Prompt: problemField.Prompt, Type: FieldInt64, In: InPath, Required: true},
			},
			Usage: "progress get problem_id=12",
		},
	}

	result := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		result[cmd.Key()] = cmd
	}
	return result
}

// Keys returns the registry keys in sorted order.
func Keys(commands map[string]Command) []string {
	keys := make([]string, 0, len(commands))
	for key := range commands {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// BuildRequest creates the HTTP request spec for a command. Path and query
// fields are escaped; body fields are typed and encoded as JSON.
func BuildRequest(cmd Command, params Params) (RequestSpec, error) {
	params.Canonicalize(cmd.Fields)

	path := cmd.PathTemplate
	query := url.Values{}
	payload := map[string]interface{}{}
	for _, field := range cmd.Fields {
		raw := strings.TrimSpace(params.Get(field.Name))
		if raw == "" {
			if field.Required {
				return RequestSpec{}, fmt.Errorf("missing parameter: %s", field.Name)
			}
			continue
		}
		value, err := typedValue(field, raw)
		if err != nil {
			return RequestSpec{}, err
		}
		switch field.In {
		case InPath:
			path = strings.ReplaceAll(path, ":"+field.Name, url.PathEscape(raw))
		case InQuery:
			query.Set(field.Name, raw)
		default:
			payload[field.Name] = value
		}
	}
	if strings.Contains(path, "/:") {
		return RequestSpec{}, fmt.Errorf("unresolved path parameter in %s", path)
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var body []byte
	if cmd.Method != http.MethodGet && cmd.Method != http.MethodDelete {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return RequestSpec{}, fmt.Errorf("marshal request body failed: %w", err)
		}
	}

	return RequestSpec{Method: cmd.Method, Path: path, Body: body}, nil
}

func typedValue(field Field, raw string) (interface{}, error) {
	switch field.Type {
	case FieldInt64:
		n, err := ParseInt64(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", field.Name, err)
		}
		return n, nil
	default:
		return raw, nil
	}
}
