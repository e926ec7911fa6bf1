package report

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"inspector/internal/extractor"
)

// Info describes the generated API document.
type Info struct {
	Title       string
	Version     string
	Description string
	ServerURL   string
}

type OpenAPISpec struct {
	OpenAPI string              `json:"openapi" yaml:"openapi"`
	Info    SpecInfo            `json:"info" yaml:"info"`
	Servers []Server            `json:"servers,omitempty" yaml:"servers,omitempty"`
	Paths   map[string]PathItem `json:"paths" yaml:"paths"`
	Tags    []Tag               `json:"tags,omitempty" yaml:"tags,omitempty"`
}

type SpecInfo struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version" yaml:"version"`
}

type Server struct {
	URL string `json:"url" yaml:"url"`
}

type PathItem struct {
	Get     *Operation `json:"get,omitempty" yaml:"get,omitempty"`
	Put     *Operation `json:"put,omitempty" yaml:"put,omitempty"`
	Post    *Operation `json:"post,omitempty" yaml:"post,omitempty"`
	Delete  *Operation `json:"delete,omitempty" yaml:"delete,omitempty"`
	Options *Operation `json:"options,omitempty" yaml:"options,omitempty"`
	Head    *Operation `json:"head,omitempty" yaml:"head,omitempty"`
	Patch   *Operation `json:"patch,omitempty" yaml:"patch,omitempty"`
}

type Operation struct {
	Tags        []string            `json:"tags,omitempty" yaml:"tags,omitempty"`
	Summary     string              `json:"summary,omitempty" yaml:"summary,omitempty"`
	OperationID string              `json:"operationId" yaml:"operationId"`
	Parameters  []Parameter         `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Responses   map[string]Response `json:"responses" yaml:"responses"`
	Handlers    []string            `json:"x-handlers,omitempty" yaml:"x-handlers,omitempty"`
	Source      string              `json:"x-source,omitempty" yaml:"x-source,omitempty"`
}

type Parameter struct {
	Name     string `json:"name" yaml:"name"`
	In       string `json:"in" yaml:"in"`
	Required bool   `json:"required" yaml:"required"`
	Schema   Schema `json:"schema" yaml:"schema"`
}

type Schema struct {
	Type string `json:"type" yaml:"type"`
}

type Response struct {
	Description string `json:"description" yaml:"description"`
}

type Tag struct {
	Name string `json:"name" yaml:"name"`
}

// standardMethods is what an ALL route expands to, in OpenAPI order.
var standardMethods = []string{"get", "put", "post", "delete", "options", "head", "patch"}

var pathParamRe = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)\??`)

// BuildOpenAPI turns routes into an OpenAPI 3.0 document. The first route
// seen for a method and path wins.
func BuildOpenAPI(routes []extractor.Route, info Info) *OpenAPISpec {
	spec := &OpenAPISpec{
		OpenAPI: "3.0.3",
		Info: SpecInfo{
			Title:       info.Title,
			Description: info.Description,
			Version:     info.Version,
		},
		Paths: make(map[string]PathItem),
	}
	if spec.Info.Title == "" {
		spec.Info.Title = "API"
	}
	if spec.Info.Version == "" {
		spec.Info.Version = "1.0.0"
	}
	if info.ServerURL != "" {
		spec.Servers = []Server{{URL: info.ServerURL}}
	}

	tags := make(map[string]bool)
	var tagOrder []string
	usedIDs := make(map[string]int)

	for _, route := range routes {
		openAPIPath, params := ConvertPath(route.Path)
		item := spec.Paths[openAPIPath]

		for _, method := range expandMethod(route.Method) {
			slot := item.slot(method)
			if slot == nil || *slot != nil {
				continue
			}
			op := &Operation{
				Summary:     strings.ToUpper(method) + " " + route.Path,
				OperationID: uniqueID(operationID(method, route.Path), usedIDs),
				Parameters:  params,
				Responses:   map[string]Response{"default": {Description: "Default response"}},
				Handlers:    handlerStrings(route.Middleware),
			}
			if route.File != "" {
				op.Source = fmt.Sprintf("%s:%d", route.File, route.Line)
			}
			if tag := pathTag(route.Path); tag != "" {
				op.Tags = []string{tag}
				if !tags[tag] {
					tags[tag] = true
					tagOrder = append(tagOrder, tag)
				}
			}
			*slot = op
		}
		spec.Paths[openAPIPath] = item
	}

	for _, tag := range tagOrder {
		spec.Tags = append(spec.Tags, Tag{Name: tag})
	}
	return spec
}

// WriteOpenAPI encodes spec as "json" or "yaml".
func WriteOpenAPI(w io.Writer, spec *OpenAPISpec, format string) error {
	switch strings.ToLower(format) {
	case "", "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(spec)
	case "yaml", "yml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(spec); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported format: %s (supported: json, yaml)", format)
	}
}

// ConvertPath rewrites :param segments to {param} and lists the path parameters.
func ConvertPath(p string) (string, []Parameter) {
	var params []Parameter
	seen := make(map[string]bool)
	for _, m := range pathParamRe.FindAllStringSubmatch(p, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		params = append(params, Parameter{Name: name, In: "path", Required: true, Schema: Schema{Type: "string"}})
	}
	converted := pathParamRe.ReplaceAllString(p, "{$1}")
	if !strings.HasPrefix(converted, "/") {
		converted = "/" + converted
	}
	return converted, params
}

func (p *PathItem) slot(method string) **Operation {
	switch method {
	case "get":
		return &p.Get
	case "put":
		return &p.Put
	case "post":
		return &p.Post
	case "delete":
		return &p.Delete
	case "options":
		return &p.Options
	case "head":
		return &p.Head
	case "patch":
		return &p.Patch
	}
	return nil
}

func expandMethod(method string) []string {
	m := strings.ToLower(method)
	if m == "all" {
		return standardMethods
	}
	return []string{m}
}

// operationID builds a camel-case id such as getApiUsersById.
func operationID(method, p string) string {
	var sb strings.Builder
	sb.WriteString(method)
	for _, seg := range strings.Split(p, "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, ":") {
			sb.WriteString("By")
			seg = strings.TrimSuffix(strings.TrimPrefix(seg, ":"), "?")
		}
		sb.WriteString(titleWord(seg))
	}
	return sb.String()
}

func titleWord(seg string) string {
	var sb strings.Builder
	upper := true
	for _, r := range seg {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !isAlnum {
			upper = true
			continue
		}
		if upper && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		upper = false
		sb.WriteRune(r)
	}
	return sb.String()
}

func uniqueID(id string, used map[string]int) string {
	used[id]++
	if n := used[id]; n > 1 {
		return fmt.Sprintf("%s%d", id, n)
	}
	return id
}

func pathTag(p string) string {
	for _, seg := range strings.Split(p, "/") {
		if seg != "" && !strings.HasPrefix(seg, ":") && !strings.ContainsAny(seg, "*{(") {
			return seg
		}
	}
	return ""
}

func handlerStrings(names []extractor.HandlerName) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, n.String())
	}
	return out
}
