package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKoaVisitor(t *testing.T) {
	src := `const Router = require('@koa/router');
const api = new Router({ prefix: '/api' });
const plain = new Router();
const dynamic = new Router({ prefix: base });

api.get('/users', auth, users.list);
api.post('user-create', '/users', users.create);
plain.all('/', fallback);
dynamic.get('/never', handler);
api.get(route, handler);
api.prefix('/v2');
api.del('/old', handler);
api.delete('/items/:id', items.remove);
`
	f := parseJS(t, "/srv/routes.js", src)
	res := (&KoaVisitor{}).Visit(f, nil)
	assert.Nil(t, res.Router)

	assert.Equal(t, []string{
		"GET /api/users",
		"POST /api/users",
		"ALL /",
		"DELETE /v2/items/:id",
	}, routeKeys(res.Routes))

	t.Run("Handlers and location", func(t *testing.T) {
		r := res.Routes[0]
		assert.Equal(t, "/srv/routes.js", r.File)
		assert.Equal(t, 6, r.Line)
		require.Len(t, r.Middleware, 2)
		assert.Equal(t, "auth", r.Middleware[0].Name)
		assert.Equal(t, "users.list", r.Middleware[1].Name)

		require.Len(t, res.Routes[1].Middleware, 1)
		assert.Equal(t, "users.create", res.Routes[1].Middleware[0].Name)
	})
}

func TestKoaVisitor_ConstructorAlias(t *testing.T) {
	src := `import KoaRouter from 'koa-router';
const router = new KoaRouter({ "prefix": ` + "`/v1`" + ` });
router.get('status', status);
`
	f := parseJS(t, "/srv/status.mjs", src)
	res := (&KoaVisitor{}).Visit(f, nil)
	assert.Equal(t, []string{"GET /v1/status"}, routeKeys(res.Routes))
}

func TestKoaVisitor_IgnoresExpress(t *testing.T) {
	src := `const app = express();
const router = express.Router();
router.get('/users', list);
app.use('/api', router);
`
	f := parseJS(t, "/srv/app.js", src)
	res := (&KoaVisitor{}).Visit(f, nil)
	assert.Empty(t, res.Routes)
}
