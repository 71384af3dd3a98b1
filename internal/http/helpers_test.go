package http_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	api "github.com/tazhibayda/events-service/internal/http"
	"github.com/tazhibayda/events-service/internal/queue"
	"github.com/tazhibayda/events-service/internal/repo"
	"github.com/tazhibayda/events-service/internal/security"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

const testSecret = "test_secret"

// recordInvalidator captures invalidation calls so tests can assert
// which paths were flushed and how often.
type recordInvalidator struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordInvalidator) Invalidate(ctx context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recordInvalidator) count(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.paths {
		if p == path {
			n++
		}
	}
	return n
}

type testEnv struct {
	Ctx    context.Context
	Store  *repo.Store
	Pages  *recordInvalidator
	Router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	mc, err := mongodb.RunContainer(ctx, testcontainers.WithImage("mongo:6"))
	if err != nil {
		t.Fatalf("mongo container: %v", err)
	}
	t.Cleanup(func() { _ = mc.Terminate(ctx) })

	uri, err := mc.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("mongo uri: %v", err)
	}

	m := repo.NewManager(uri, func(ctx context.Context) (*repo.Store, error) {
		return repo.NewStore(ctx, uri, "evently_test")
	})
	store, err := m.Connect(ctx)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(ctx) })
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	pages := &recordInvalidator{}
	h := api.NewHandler(m, pages, queue.NewNoop())

	gin.SetMode(gin.TestMode)
	r := api.NewRouter(h, api.RouterOptions{JWTSecret: testSecret, RateLimitPerMin: 0})

	return &testEnv{Ctx: ctx, Store: store, Pages: pages, Router: r}
}

func (e *testEnv) token(t *testing.T, uid string) string {
	t.Helper()
	tok, err := security.MakeAccess(testSecret, uid, uid+"@example.com", time.Minute)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok
}
