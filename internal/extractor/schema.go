package extractor

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Route is one discovered HTTP route declaration.
type Route struct {
	Method     string        `json:"method"`     // Upper-case HTTP method, e.g. "GET" or "ALL"
	Path       string        `json:"path"`       // Fragment as written until mount resolution, then fully composed
	Middleware []HandlerName `json:"middleware"` // Handler chain in argument order
	File       string        `json:"file"`       // Absolute path of the declaring file
	Line       int           `json:"line"`       // 1-based line of the declaring call
}

// WithPath returns a copy of the route carrying a new path.
func (r Route) WithPath(p string) Route {
	r.Path = p
	r.Middleware = slices.Clone(r.Middleware)
	return r
}

// Handler name markers.
const (
	FunctionMarker = "<function>"
	ComputedMarker = "<computed>"
	UnknownMarker  = "<unknown>"
)

// HandlerName is either a single display name or an ordered list of names
// (for array-valued handler arguments).
type HandlerName struct {
	Name string
	List []HandlerName
}

// Named returns a single-name HandlerName.
func Named(name string) HandlerName {
	return HandlerName{Name: name}
}

// ListOf returns a list HandlerName. An empty list stays a list.
func ListOf(names ...HandlerName) HandlerName {
	if names == nil {
		names = []HandlerName{}
	}
	return HandlerName{List: names}
}

// IsList reports whether the name is a list.
func (h HandlerName) IsList() bool {
	return h.List != nil
}

func (h HandlerName) String() string {
	if !h.IsList() {
		return h.Name
	}
	parts := make([]string, len(h.List))
	for i, n := range h.List {
		parts[i] = n.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// MarshalJSON renders a name as a JSON string and a list as a JSON array.
func (h HandlerName) MarshalJSON() ([]byte, error) {
	if h.IsList() {
		return json.Marshal(h.List)
	}
	return json.Marshal(h.Name)
}

func (h *HandlerName) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*h = Named(name)
		return nil
	}
	var list []HandlerName
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("handler name must be a string or an array: %w", err)
	}
	*h = ListOf(list...)
	return nil
}

// MountEdge records that a router is mounted as a child of another router.
type MountEdge struct {
	Prefix    string `json:"prefix"`
	ChildFile string `json:"child_file"`
}

// RouterDecl is the single router tracked for a file.
type RouterDecl struct {
	Name   string      `json:"name"`
	Routes []Route     `json:"routes"`
	Mounts []MountEdge `json:"mounts"`
}

// FileResult is what a visitor produces for one file. Router is set only by
// visitors whose routes still need cross-file mount resolution.
type FileResult struct {
	Router *RouterDecl
	Routes []Route
}
