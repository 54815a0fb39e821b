package command

import (
	"strconv"
	"strings"
)

// FieldType describes how a value is typed in the request.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInt64
	// FieldSecret is a string that is read without echo when prompted.
	FieldSecret
)

// FieldLocation says where a field is sent.
type FieldLocation int

const (
	InBody FieldLocation = iota
	InPath
	InQuery
)

// Field defines a CLI input field.
type Field struct {
	Name     string
	Aliases  []string
	Prompt   string
	Type     FieldType
	In       FieldLocation
	Required bool
}

// Command binds "service action" to an HTTP endpoint.
type Command struct {
	Service      string
	Action       string
	Method       string
	PathTemplate string
	RequiresAuth bool
	// StoresToken marks commands whose response carries a new access token.
	StoresToken bool
	Fields      []Field
	Usage       string
}

// Key returns the registry key of the command.
func (c Command) Key() string {
	return c.Service + " " + c.Action
}

// RequestSpec is the built HTTP request.
type RequestSpec struct {
	Method string
	Path   string
	Body   []byte
}

// Params holds parsed key=value input.
type Params map[string]string

func (p Params) Get(key string) string {
	return p[strings.ToLower(key)]
}

func (p Params) Set(key, value string) {
	p[strings.ToLower(key)] = value
}

func (p Params) Has(key string) bool {
	_, ok := p[strings.ToLower(key)]
	return ok
}

// Canonicalize rewrites aliases to their field names.
func (p Params) Canonicalize(fields []Field) {
	for _, field := range fields {
		for _, alias := range field.Aliases {
			aliasKey := strings.ToLower(alias)
			if value, ok := p[aliasKey]; ok {
				if !p.Has(field.Name) {
					p.Set(field.Name, value)
				}
				delete(p, aliasKey)
			}
		}
	}
}

func ParseInt64(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}
