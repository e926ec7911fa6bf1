package graph

import "inspector/internal/extractor"

// RouterMap holds one router declaration per declaring file, keyed by the
// file's absolute path.
type RouterMap map[string]*extractor.RouterDecl

// Edge is a resolved mount: Parent mounts the router declared in Child under Prefix.
type Edge struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
	Prefix string `json:"prefix"`
}

type link struct {
	parent string
	prefix string
}
