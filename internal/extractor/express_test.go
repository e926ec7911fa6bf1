package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func visitExpress(t *testing.T, src string, imports map[string]string) *FileResult {
	t.Helper()
	f := parseJS(t, "/app/server.js", src)
	return (&ExpressVisitor{}).Visit(f, imports)
}

func routeKeys(routes []Route) []string {
	keys := make([]string, 0, len(routes))
	for _, r := range routes {
		keys = append(keys, r.Method+" "+r.Path)
	}
	return keys
}

func TestExpressVisitor_Routes(t *testing.T) {
	src := `const express = require('express');
const app = express();

app.get('/health', (req, res) => res.send('ok'));
app.post('/users', auth.required, users.create);
app.delete(` + "`/users/:id`" + `, users.remove);
app.put(path, users.update);
app.patch();
other.get('/ignored', handler);
app.listen(3000);
`
	res := visitExpress(t, src, nil)
	require.NotNil(t, res.Router)
	assert.Equal(t, "app", res.Router.Name)
	assert.Empty(t, res.Router.Mounts)
	assert.Nil(t, res.Routes)

	routes := res.Router.Routes
	assert.Equal(t, []string{"GET /health", "POST /users", "DELETE /users/:id"}, routeKeys(routes))

	t.Run("Record fields", func(t *testing.T) {
		r := routes[1]
		assert.Equal(t, "/app/server.js", r.File)
		assert.Equal(t, 5, r.Line)
		require.Len(t, r.Middleware, 2)
		assert.Equal(t, "auth.required", r.Middleware[0].Name)
		assert.Equal(t, "users.create", r.Middleware[1].Name)

		assert.Equal(t, FunctionMarker, routes[0].Middleware[0].Name)
	})
}

func TestExpressVisitor_LocalMounts(t *testing.T) {
	src := `const express = require('express');
const app = express();
const api = express.Router();
const admin = express.Router();
const orphan = express.Router();

api.get('/users', listUsers);
admin.get('/', dashboard);
orphan.get('/lonely', lonely);
app.get('/', home);

api.use('/admin', admin);
app.use('/api', api);
`
	res := visitExpress(t, src, nil)
	require.NotNil(t, res.Router)
	assert.Equal(t, "app", res.Router.Name)
	assert.Equal(t, []string{
		"GET /api/users",
		"GET /api/admin",
		"GET /lonely",
		"GET /",
	}, routeKeys(res.Router.Routes))
}

func TestExpressVisitor_LastLocalMountWins(t *testing.T) {
	src := `const app = express();
const r = express.Router();
r.get('/x', h);
app.use('/first', r);
app.use('/second', r);
`
	res := visitExpress(t, src, nil)
	assert.Equal(t, []string{"GET /second/x"}, routeKeys(res.Router.Routes))
}

func TestExpressVisitor_CrossFileMounts(t *testing.T) {
	src := `const express = require('express');
const usersRouter = require('./routes/users');
const { adminRouter } = require('./routes/admin');
const app = express();
const v1 = express.Router();

app.use('/users', usersRouter);
app.use(adminRouter);
app.use('/inline', require('./routes/inline'));
app.use('/v1', v1);
v1.use('/items', itemsRouter);
app.use(express.json());
app.use('/missing', notImported);
app.use(prefixVar, usersRouter);
`
	imports := map[string]string{
		"usersRouter":                  "/app/routes/users.js",
		"adminRouter":                  "/app/routes/admin.js",
		"itemsRouter":                  "/app/routes/items.js",
		"require('./routes/inline')":   "/app/routes/inline.js",
		"require('./routes/missing')":  "/app/routes/missing.js",
	}
	res := visitExpress(t, src, imports)
	require.NotNil(t, res.Router)
	assert.Equal(t, []MountEdge{
		{Prefix: "/users", ChildFile: "/app/routes/users.js"},
		{Prefix: "/", ChildFile: "/app/routes/admin.js"},
		{Prefix: "/inline", ChildFile: "/app/routes/inline.js"},
		{Prefix: "/v1/items", ChildFile: "/app/routes/items.js"},
	}, res.Router.Mounts)
}

func TestExpressVisitor_FactoryAliases(t *testing.T) {
	src := `import createApp, { Router as makeRouter } from 'express';
const app = createApp();
const router = makeRouter();
router.get('/a', a);
app.use('/r', router);
`
	f := parseJS(t, "/app/server.ts", src)
	res := (&ExpressVisitor{}).Visit(f, nil)
	require.NotNil(t, res.Router)
	assert.Equal(t, "app", res.Router.Name)
	assert.Equal(t, []string{"GET /r/a"}, routeKeys(res.Router.Routes))
}

func TestExpressVisitor_InlineRequireFactories(t *testing.T) {
	t.Run("Router from require", func(t *testing.T) {
		res := visitExpress(t, `const router = require('express').Router();
router.get('/list', list);
module.exports = router;
`, nil)
		require.NotNil(t, res.Router)
		assert.Equal(t, "router", res.Router.Name)
		assert.Equal(t, []string{"GET /list"}, routeKeys(res.Router.Routes))
	})

	t.Run("App from require call", func(t *testing.T) {
		res := visitExpress(t, `const app = require('express')();
app.post('/login', login);
`, nil)
		require.NotNil(t, res.Router)
		assert.Equal(t, []string{"POST /login"}, routeKeys(res.Router.Routes))
	})

	t.Run("Other modules are not factories", func(t *testing.T) {
		res := visitExpress(t, `const router = require('koa-router').Router();
router.get('/x', h);
const app = require('fastify')();
app.get('/y', h);
`, nil)
		assert.Nil(t, res.Router)
	})
}

func TestExpressVisitor_ChainedRoute(t *testing.T) {
	src := `const router = express.Router();
router.route('/book')
  .get(getBook)
  .post(validate, addBook);
`
	res := visitExpress(t, src, nil)
	require.NotNil(t, res.Router)
	routes := res.Router.Routes
	assert.ElementsMatch(t, []string{"GET /book", "POST /book"}, routeKeys(routes))
	for _, r := range routes {
		if r.Method == "POST" {
			assert.Equal(t, 4, r.Line)
			assert.Len(t, r.Middleware, 2)
		}
	}
}

func TestExpressVisitor_NoRouter(t *testing.T) {
	res := visitExpress(t, `module.exports = function add(a, b) { return a + b; };`, nil)
	assert.Nil(t, res.Router)
	assert.Empty(t, res.Routes)
}

func TestExpressVisitor_IgnoresOtherStyles(t *testing.T) {
	koaSrc := `const Router = require('koa-router');
const router = new Router({ prefix: '/api' });
router.get('/users', list);
`
	fastifySrc := `const fastify = require('fastify')();
fastify.get('/users', list);
`
	assert.Nil(t, visitExpress(t, koaSrc, nil).Router)
	assert.Nil(t, visitExpress(t, fastifySrc, nil).Router)
}
