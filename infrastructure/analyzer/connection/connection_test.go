package connection_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/repoatlas/domain"
	"github.com/rios0rios0/repoatlas/infrastructure/analyzer/connection"
	testdoubles "github.com/rios0rios0/repoatlas/test"
)

func newRecord(name string, files ...string) *domain.Record {
	record := domain.NewRecord(domain.ProjectHandle{
		ID: name, Name: name, Path: "acme/" + name,
	})
	record.AnalyzedFiles = files
	record.Scanned = true
	return record
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	t.Run("should record the endpoint owner as a repository dependency of the caller", func(t *testing.T) {
		t.Parallel()

		// given
		orders := newRecord("orders-api", "app.py")
		checkout := newRecord("checkout", "src/client.js")
		reader := &testdoubles.StubContentReader{Files: map[string]map[string]string{
			"acme/orders-api": {
				"app.py": "@app.route('/api/orders', methods=['POST'])\ndef create(): pass\n",
			},
			"acme/checkout": {
				"src/client.js": "fetch('https://orders.internal/api/orders')",
			},
		}}

		// when
		connection.New(reader).Analyze(context.Background(), []*domain.Record{orders, checkout})

		// then
		assert.Contains(t, checkout.Dependencies[domain.DependencyRepositories], "orders-api")
		assert.Empty(t, orders.Dependencies[domain.DependencyRepositories])
		assert.Empty(t, orders.Dependencies[domain.DependencyServices])
	})

	t.Run("should extract endpoints with their methods", func(t *testing.T) {
		t.Parallel()

		// given
		api := newRecord("users-api", "routes.js")
		reader := &testdoubles.StubContentReader{Files: map[string]map[string]string{
			"acme/users-api": {
				"routes.js": "router.post('/users', create)\nrouter.get('/users/:id', show)\n",
			},
		}}

		// when
		connection.New(reader).Analyze(context.Background(), []*domain.Record{api})

		// then
		require.Len(t, api.APIs, 2)
		assert.Equal(t, "POST", api.APIs[0].Method)
		assert.Equal(t, "/users", api.APIs[0].Path)
		assert.Equal(t, "GET", api.APIs[1].Method)
		assert.Equal(t, "/users/:param", api.APIs[1].Path)
	})

	t.Run("should match endpoints across an /api prefix difference", func(t *testing.T) {
		t.Parallel()

		// given
		catalog := newRecord("catalog", "server.go")
		web := newRecord("webshop", "shop.py")
		reader := &testdoubles.StubContentReader{Files: map[string]map[string]string{
			"acme/catalog": {
				"server.go": `mux.HandleFunc("/products", list)`,
			},
			"acme/webshop": {
				"shop.py": "requests.get('http://catalog-svc/api/products')",
			},
		}}

		// when
		connection.New(reader).Analyze(context.Background(), []*domain.Record{catalog, web})

		// then
		assert.Contains(t, web.Dependencies[domain.DependencyRepositories], "catalog")
	})

	t.Run("should match an endpoint contained in a longer gateway path", func(t *testing.T) {
		t.Parallel()

		// given
		inventory := newRecord("inventory-core", "server.py")
		edge := newRecord("edge", "load.js")
		reader := &testdoubles.StubContentReader{Files: map[string]map[string]string{
			"acme/inventory-core": {
				"server.py": "@app.route('/api/items/list')\ndef list_items(): pass\n",
			},
			"acme/edge": {
				"load.js": "fetch('http://edge.internal/gw/api/items/list/page')",
			},
		}}

		// when
		connection.New(reader).Analyze(context.Background(), []*domain.Record{inventory, edge})

		// then
		assert.Contains(t, edge.Dependencies[domain.DependencyRepositories], "inventory-core")
	})

	t.Run("should connect by service name inside a URL", func(t *testing.T) {
		t.Parallel()

		// given
		billing := newRecord("billing-engine", "main.go")
		portal := newRecord("portal", "config.py")
		reader := &testdoubles.StubContentReader{Files: map[string]map[string]string{
			"acme/billing-engine": {"main.go": "package main"},
			"acme/portal": {
				"config.py": "BILLING_URL = 'http://billing-engine:8080/invoices'",
			},
		}}

		// when
		connection.New(reader).Analyze(context.Background(), []*domain.Record{billing, portal})

		// then
		assert.Contains(t, portal.Dependencies[domain.DependencyServices], "billing-engine")
	})

	t.Run("should connect through a compose service key", func(t *testing.T) {
		t.Parallel()

		// given
		billing := newRecord("billing-engine")
		gateway := newRecord("gateway", "docker-compose.yml")
		reader := &testdoubles.StubContentReader{Files: map[string]map[string]string{
			"acme/gateway": {
				"docker-compose.yml": "services:\n  billing-engine:\n    image: acme/billing-engine:1.2\n",
			},
		}}

		// when
		connection.New(reader).Analyze(context.Background(), []*domain.Record{billing, gateway})

		// then
		assert.Contains(t, gateway.Dependencies[domain.DependencyServices], "billing-engine")
		assert.Empty(t, billing.Dependencies[domain.DependencyServices])
	})

	t.Run("should connect through a service host environment variable", func(t *testing.T) {
		t.Parallel()

		// given
		billing := newRecord("billing-engine")
		portal := newRecord("portal", ".env")
		reader := &testdoubles.StubContentReader{Files: map[string]map[string]string{
			"acme/portal": {
				".env": "BILLING_ENGINE_SERVICE_HOST=10.0.0.5\nDEBUG=false\n",
			},
		}}

		// when
		connection.New(reader).Analyze(context.Background(), []*domain.Record{billing, portal})

		// then
		assert.Contains(t, portal.Dependencies[domain.DependencyServices], "billing-engine")
	})

	t.Run("should connect through a client package import", func(t *testing.T) {
		t.Parallel()

		// given
		billing := newRecord("billing")
		shop := newRecord("webshop", "orders.py")
		reader := &testdoubles.StubContentReader{Files: map[string]map[string]string{
			"acme/webshop": {
				"orders.py": "from billing.client import InvoiceClient\n",
			},
		}}

		// when
		connection.New(reader).Analyze(context.Background(), []*domain.Record{billing, shop})

		// then
		assert.Contains(t, shop.Dependencies[domain.DependencyServices], "billing")
	})

	t.Run("should never create a self edge", func(t *testing.T) {
		t.Parallel()

		// given
		api := newRecord("self-calling", "app.py")
		reader := &testdoubles.StubContentReader{Files: map[string]map[string]string{
			"acme/self-calling": {
				"app.py": "@app.route('/ping')\ndef ping(): pass\n" +
					"requests.get('http://self-calling/ping')\n",
			},
		}}

		// when
		connection.New(reader).Analyze(context.Background(), []*domain.Record{api})

		// then
		assert.Empty(t, api.Dependencies[domain.DependencyRepositories])
		assert.Empty(t, api.Dependencies[domain.DependencyServices])
	})

	t.Run("should not connect on a generic name segment", func(t *testing.T) {
		t.Parallel()

		// given
		payment := newRecord("payment-service", "main.py")
		user := newRecord("user-service", "client.py")
		reader := &testdoubles.StubContentReader{Files: map[string]map[string]string{
			"acme/payment-service": {"main.py": "pass"},
			"acme/user-service": {
				"client.py": "requests.get('http://some-other-service/ping')",
			},
		}}

		// when
		connection.New(reader).Analyze(context.Background(), []*domain.Record{payment, user})

		// then
		assert.Empty(t, user.Dependencies[domain.DependencyServices])
	})
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	t.Run("should collapse every placeholder syntax to the same path", func(t *testing.T) {
		t.Parallel()

		// given
		api := newRecord("ids", "a.py", "b.js", "c.py")
		reader := &testdoubles.StubContentReader{Files: map[string]map[string]string{
			"acme/ids": {
				"a.py": "@app.route('/users/<int:id>')\ndef a(): pass\n",
				"b.js": "router.get('/users/:id', handler)",
				"c.py": "@app.route('/users/{id}')\ndef c(): pass\n",
			},
		}}

		// when
		connection.New(reader).Analyze(context.Background(), []*domain.Record{api})

		// then
		require.Len(t, api.APIs, 3)
		for _, endpoint := range api.APIs {
			assert.Equal(t, "/users/:param", endpoint.Path)
		}
	})

	t.Run("should treat numeric segments in calls as parameters", func(t *testing.T) {
		t.Parallel()

		// given
		users := newRecord("users-api", "app.py")
		caller := newRecord("dashboard", "load.js")
		reader := &testdoubles.StubContentReader{Files: map[string]map[string]string{
			"acme/users-api": {
				"app.py": "@app.route('/users/<id>')\ndef show(): pass\n",
			},
			"acme/dashboard": {
				"load.js": "fetch('https://users.internal/users/42')",
			},
		}}

		// when
		connection.New(reader).Analyze(context.Background(), []*domain.Record{users, caller})

		// then
		assert.Contains(t, caller.Dependencies[domain.DependencyRepositories], "users-api")
	})
}
