package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inspector/internal/extractor"
)

func route(method, path, file string) extractor.Route {
	return extractor.Route{
		Method:     method,
		Path:       path,
		Middleware: []extractor.HandlerName{extractor.Named("h")},
		File:       file,
		Line:       1,
	}
}

func routeKeys(routes []extractor.Route) []string {
	keys := make([]string, 0, len(routes))
	for _, r := range routes {
		keys = append(keys, r.Method+" "+r.Path)
	}
	return keys
}

func TestResolve_ComposesAcrossFiles(t *testing.T) {
	routers := RouterMap{
		"/app/server.js": {
			Name:   "app",
			Routes: []extractor.Route{route("GET", "/", "/app/server.js")},
			Mounts: []extractor.MountEdge{{Prefix: "/api", ChildFile: "/app/routes/api.js"}},
		},
		"/app/routes/api.js": {
			Name:   "router",
			Routes: []extractor.Route{route("GET", "/health", "/app/routes/api.js")},
			Mounts: []extractor.MountEdge{{Prefix: "/users/", ChildFile: "/app/routes/users.js"}},
		},
		"/app/routes/users.js": {
			Name: "router",
			Routes: []extractor.Route{
				route("GET", "/", "/app/routes/users.js"),
				route("POST", "/:id/", "/app/routes/users.js"),
			},
		},
	}

	routes := Resolve(routers)
	assert.Equal(t, []string{
		"GET /api/health",
		"GET /api/users",
		"POST /api/users/:id",
		"GET /",
	}, routeKeys(routes))

	t.Run("Inputs are not mutated", func(t *testing.T) {
		assert.Equal(t, "/:id/", routers["/app/routes/users.js"].Routes[1].Path)
	})

	t.Run("Bases", func(t *testing.T) {
		assert.Equal(t, map[string]string{
			"/app/server.js":       "/",
			"/app/routes/api.js":   "/api",
			"/app/routes/users.js": "/api/users",
		}, Bases(routers))
	})
}

func TestResolve_UnmountedRouter(t *testing.T) {
	routers := RouterMap{
		"/a.js": {Name: "r", Routes: []extractor.Route{route("GET", "orphan/", "/a.js")}},
	}
	assert.Equal(t, []string{"GET /orphan"}, routeKeys(Resolve(routers)))
}

func TestResolve_LastMountWins(t *testing.T) {
	routers := RouterMap{
		"/a.js":     {Name: "app", Mounts: []extractor.MountEdge{{Prefix: "/from-a", ChildFile: "/child.js"}}},
		"/b.js":     {Name: "app", Mounts: []extractor.MountEdge{{Prefix: "/from-b", ChildFile: "/child.js"}}},
		"/child.js": {Name: "router", Routes: []extractor.Route{route("GET", "/x", "/child.js")}},
	}

	g := NewMountGraph(routers)
	assert.Equal(t, []string{"GET /from-b/x"}, routeKeys(g.Routes()))

	parent, prefix, ok := g.Parent("/child.js")
	require.True(t, ok)
	assert.Equal(t, "/b.js", parent)
	assert.Equal(t, "/from-b", prefix)
	assert.Len(t, g.Edges(), 2)
}

func TestResolve_LastMountWithinFile(t *testing.T) {
	routers := RouterMap{
		"/a.js": {Name: "app", Mounts: []extractor.MountEdge{
			{Prefix: "/one", ChildFile: "/child.js"},
			{Prefix: "/two", ChildFile: "/child.js"},
		}},
		"/child.js": {Name: "router", Routes: []extractor.Route{route("GET", "/", "/child.js")}},
	}
	assert.Equal(t, []string{"GET /two"}, routeKeys(Resolve(routers)))
}

func TestResolve_CycleTerminates(t *testing.T) {
	routers := RouterMap{
		"/a.js": {
			Name:   "a",
			Routes: []extractor.Route{route("GET", "/in-a", "/a.js")},
			Mounts: []extractor.MountEdge{{Prefix: "/b", ChildFile: "/b.js"}},
		},
		"/b.js": {
			Name:   "b",
			Routes: []extractor.Route{route("GET", "/in-b", "/b.js")},
			Mounts: []extractor.MountEdge{
				{Prefix: "/a", ChildFile: "/a.js"},
				{Prefix: "/c", ChildFile: "/c.js"},
			},
		},
		"/c.js": {
			Name:   "c",
			Routes: []extractor.Route{route("GET", "/in-c", "/c.js")},
		},
	}

	g := NewMountGraph(routers)
	assert.Equal(t, "/", g.Base("/a.js"))
	assert.Equal(t, "/", g.Base("/b.js"))
	assert.True(t, g.InCycle("/a.js"))
	assert.True(t, g.InCycle("/b.js"))

	t.Run("Routers below the cycle still compose", func(t *testing.T) {
		assert.Equal(t, "/c", g.Base("/c.js"))
		assert.False(t, g.InCycle("/c.js"))
	})

	assert.Equal(t, []string{"GET /in-a", "GET /in-b", "GET /c/in-c"}, routeKeys(g.Routes()))

	t.Run("Resolution order does not matter", func(t *testing.T) {
		only := RouterMap{"/b.js": routers["/b.js"], "/a.js": routers["/a.js"]}
		assert.Equal(t, map[string]string{"/a.js": "/", "/b.js": "/"}, Bases(only))
	})
}

func TestResolve_SelfMount(t *testing.T) {
	routers := RouterMap{
		"/a.js": {
			Name:   "a",
			Routes: []extractor.Route{route("GET", "/x", "/a.js")},
			Mounts: []extractor.MountEdge{{Prefix: "/again", ChildFile: "/a.js"}},
		},
	}
	assert.Equal(t, []string{"GET /x"}, routeKeys(Resolve(routers)))
}

func TestResolve_Idempotent(t *testing.T) {
	routers := RouterMap{
		"/a.js": {Name: "app", Mounts: []extractor.MountEdge{{Prefix: "/v1", ChildFile: "/b.js"}}},
		"/b.js": {Name: "r", Routes: []extractor.Route{route("DELETE", "/items/:id", "/b.js")}},
	}
	first := Resolve(routers)
	second := Resolve(routers)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"DELETE /v1/items/:id"}, routeKeys(first))
}

func TestMountGraph_Stats(t *testing.T) {
	routers := RouterMap{
		"/app.js": {Name: "app", Mounts: []extractor.MountEdge{
			{Prefix: "/a", ChildFile: "/a.js"},
			{Prefix: "", ChildFile: "/b.js"},
		}},
		"/a.js": {Name: "a"},
		"/b.js": {Name: "b"},
	}
	g := NewMountGraph(routers)
	assert.Equal(t, Stats{Routers: 3, Edges: 2, Mounted: 2, Roots: 1}, g.Stats())
	assert.Equal(t, []string{"/a.js", "/b.js"}, g.Children("/app.js"))
	assert.Equal(t, "/", g.Base("/b.js"))
}
