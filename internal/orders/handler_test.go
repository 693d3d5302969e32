package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinaradmin/internal/logging"
)

type mockRepo struct {
	orders  map[uuid.UUID]*Order
	listErr error
	updErr  error
	patches []Patch
}

func newMockRepo() *mockRepo {
	return &mockRepo{orders: map[uuid.UUID]*Order{}}
}

func (m *mockRepo) add(email string, created time.Time) *Order {
	o := &Order{ID: uuid.New(), UserEmail: email, Currency: "IQD", Amount: 25000, Status: StatusPending, CreatedAt: created, UpdatedAt: created}
	m.orders[o.ID] = o
	return o
}

func (m *mockRepo) ListByEmail(ctx context.Context, email string) ([]Order, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	res := []Order{}
	for _, o := range m.orders {
		if o.UserEmail == email {
			res = append(res, *o)
		}
	}
	return res, nil
}

func (m *mockRepo) Update(ctx context.Context, id uuid.UUID, p Patch) (*Order, error) {
	m.patches = append(m.patches, p)
	if m.updErr != nil {
		return nil, m.updErr
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	if p.Amount != nil {
		o.Amount = *p.Amount
	}
	return o, nil
}

func newRouter(repo Repository) http.Handler {
	r := chi.NewRouter()
	r.Route("/orders", NewHandler(repo, logging.Discard()).MountRoutes)
	return r
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestListRequiresEmail(t *testing.T) {
	rec := do(newRouter(newMockRepo()), http.MethodGet, "/orders", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Email parameter is required", errorBody(t, rec))
}

func TestListByEmail(t *testing.T) {
	repo := newMockRepo()
	mine := repo.add("customer@dinar.test", time.Now())
	repo.add("other@dinar.test", time.Now())

	rec := do(newRouter(repo), http.MethodGet, "/orders?email=customer@dinar.test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Orders []Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Orders, 1)
	assert.Equal(t, mine.ID, body.Orders[0].ID)
}

func TestListEmptyIsArray(t *testing.T) {
	rec := do(newRouter(newMockRepo()), http.MethodGet, "/orders?email=nobody@dinar.test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"orders":[]}`, rec.Body.String())
}

func TestListStoreError(t *testing.T) {
	repo := newMockRepo()
	repo.listErr = errors.New("db down")
	rec := do(newRouter(repo), http.MethodGet, "/orders?email=a@b.c", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server error", errorBody(t, rec))
}

func TestPatchUnknownOrder(t *testing.T) {
	rec := do(newRouter(newMockRepo()), http.MethodPatch, "/orders/"+uuid.NewString(), `{"status":"completed"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", errorBody(t, rec))
}

func TestPatchMalformedID(t *testing.T) {
	repo := newMockRepo()
	rec := do(newRouter(repo), http.MethodPatch, "/orders/not-a-uuid", `{"status":"completed"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, repo.patches)
}

func TestPatchUpdatesOrder(t *testing.T) {
	repo := newMockRepo()
	o := repo.add("customer@dinar.test", time.Now())

	rec := do(newRouter(repo), http.MethodPatch, "/orders/"+o.ID.String(), `{"status":"shipped","notes":"DHL"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Order Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StatusShipped, body.Order.Status)
	assert.Equal(t, "DHL", body.Order.Notes)

	require.Len(t, repo.patches, 1)
	assert.Nil(t, repo.patches[0].Amount)
}

func TestPatchRejectsInvalidBody(t *testing.T) {
	repo := newMockRepo()
	o := repo.add("customer@dinar.test", time.Now())
	h := newRouter(repo)

	for name, body := range map[string]string{
		"malformed":     `{"status":`,
		"unknown field": `{"userEmail":"x@y.z"}`,
		"bad status":    `{"status":"lost"}`,
		"negative":      `{"amount":-5}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(h, http.MethodPatch, "/orders/"+o.ID.String(), body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, repo.patches)
}

func TestPatchStoreError(t *testing.T) {
	repo := newMockRepo()
	repo.updErr = errors.New("db down")
	rec := do(newRouter(repo), http.MethodPatch, "/orders/"+uuid.NewString(), `{"notes":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPatchEmptyBody(t *testing.T) {
	repo := newMockRepo()
	o := repo.add("customer@dinar.test", time.Now())
	h := newRouter(repo)

	rec := do(h, http.MethodPatch, "/orders/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", errorBody(t, rec))

	rec = do(h, http.MethodPatch, "/orders/"+o.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, repo.patches, 2)
	assert.True(t, repo.patches[1].Empty())
}
