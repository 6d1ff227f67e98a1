package admin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/auth"
	"github.com/debemdeboas/yasny-slukh/internal/config"
	"github.com/debemdeboas/yasny-slukh/internal/draft"
	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/debemdeboas/yasny-slukh/internal/repository"
	"github.com/debemdeboas/yasny-slukh/internal/session"
	"github.com/debemdeboas/yasny-slukh/internal/sse"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	quiet := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	SetLogger(quiet)
	auth.SetLogger(quiet)
	session.SetLogger(quiet)
	repository.SetLogger(quiet)
	draft.SetLogger(quiet)
}

var testTemplates = fstest.MapFS{
	"templates/layout.html": {Data: []byte(`{{block "content" .}}{{end}}`)},
	"templates/admin.html": {Data: []byte(
		`{{define "content"}}error={{.Error}};{{range .Collections}}{{.Kind}}:{{range .Rows}}{{.Key}}={{range .Fields}}{{.Value}},{{end}};{{end}}|{{end}}{{end}}`)},
	"templates/login.html": {Data: []byte(`{{define "content"}}login{{.Error}}{{end}}`)},
}

func seed() *model.Snapshot {
	s := model.NewSnapshot()
	s.Products = []model.Product{{ID: "p1", Name: "Phonak", Price: "100"}, {ID: "p2", Name: "Oticon", Price: "200"}}
	s.Orders = []model.Order{{ID: "o1", CustomerName: "Anna", Status: model.StatusNew}}
	return s
}

type fixture struct {
	store    *repository.MemoryStore
	sessions *session.Manager
	clients  *sse.SSEClients
	router   http.Handler
	cookie   *http.Cookie
	session  *session.Session
}

func newFixture(t *testing.T, templates fstest.MapFS) *fixture {
	t.Helper()

	original := config.AppConfig
	config.AppConfig = &config.Config{}
	config.ApplyDefaults(config.AppConfig)
	t.Cleanup(func() { config.AppConfig = original })

	f := &fixture{
		store:   repository.NewMemoryStoreWith(seed()),
		clients: sse.NewSSEClients(),
	}
	f.sessions = session.NewManager(session.Options{
		Store:    f.store,
		Editor:   draft.NewEditor(draft.Options{}),
		Notifier: NewNotifier(f.clients),
	}, nil, time.Hour)
	t.Cleanup(f.sessions.Close)

	provider := auth.NewPassphraseProvider("hunter2", f.sessions, time.Millisecond, 10, time.Hour)
	h, err := New(templates, provider, f.clients)
	require.NoError(t, err)

	r := chi.NewRouter()
	h.Routes(r)
	f.router = r

	s, err := provider.Login(context.Background(), "hunter2")
	require.NoError(t, err)
	f.session = s
	f.cookie = &http.Cookie{Name: config.CookieAdminSession, Value: s.ID}
	return f
}

func (f *fixture) do(method, target string, body string, modify ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.AddCookie(f.cookie)
	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, m := range modify {
		m(req)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func asScript(r *http.Request) {
	r.Header.Set("X-Requested-With", "fetch")
}

func TestPanelRequiresSession(t *testing.T) {
	f := newFixture(t, testTemplates)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/admin/login"))

	req = httptest.NewRequest(http.MethodPost, "/admin/save", nil)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServePanel(t *testing.T) {
	f := newFixture(t, testTemplates)

	rec := f.do(http.MethodGet, "/admin?error=boom", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "error=boom;")
	assert.Contains(t, body, "products:p1=Phonak,100,,,,;p2=Oticon,200,,,,;|")
	assert.Contains(t, body, "partners:|")
}

func TestEditFlow(t *testing.T) {
	f := newFixture(t, testTemplates)
	ctx := context.Background()

	rec := f.do(http.MethodPost, "/admin/products/add", "", asScript)
	require.Equal(t, http.StatusOK, rec.Code)
	var added map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))
	key := added["key"]
	require.NotEmpty(t, key)

	form := url.Values{"name": {"Signia"}, "price": {"300"}, "bogus": {"ignored"}}
	rec = f.do(http.MethodPost, "/admin/products/"+key+"/update", form.Encode())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin#products", rec.Header().Get("Location"))

	rec = f.do(http.MethodPost, "/admin/products/p1/delete", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	d := f.session.Draft()
	require.Len(t, d.Products, 2)
	assert.Equal(t, "Oticon", d.Products[0].Name)
	assert.Equal(t, "Signia", d.Products[1].Name)
	assert.Equal(t, "300", d.Products[1].Price)

	stored, err := f.store.PullAll(ctx)
	require.NoError(t, err)
	assert.Len(t, stored.Products, 2, "edits stay in the draft until saved")
	assert.Equal(t, "Phonak", stored.Products[0].Name)

	rec = f.do(http.MethodPost, "/admin/save", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	stored, err = f.store.PullAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored.Products, 2)
	assert.Equal(t, "Signia", stored.Products[1].Name)
	assert.NotEmpty(t, stored.Products[1].ID)
	assert.Len(t, stored.Orders, 1, "save never touches orders")
}

func TestEditErrors(t *testing.T) {
	f := newFixture(t, testTemplates)

	rec := f.do(http.MethodPost, "/admin/gadgets/x/update", "name=x", asScript)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/admin/products/missing/delete", "", asScript)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/admin/products/missing/delete", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/admin", loc.Path)
	assert.Contains(t, loc.Query().Get("error"), "record not found")
}

func TestHero(t *testing.T) {
	f := newFixture(t, testTemplates)

	form := url.Values{"title": {"Hear again"}, "subtitle": {"Since 1999"}}
	rec := f.do(http.MethodPost, "/admin/hero", form.Encode())
	require.Equal(t, http.StatusSeeOther, rec.Code)

	hero := f.session.Draft().Hero
	assert.Equal(t, "Hear again", hero.Title)
	assert.Equal(t, "Since 1999", hero.Subtitle)
}

func TestOrderStatus(t *testing.T) {
	f := newFixture(t, testTemplates)
	ctx := context.Background()

	rec := f.do(http.MethodPost, "/admin/orders/o1/status", "status=processing", asScript)
	require.Equal(t, http.StatusNoContent, rec.Code)

	stored, err := f.store.PullAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, stored.Orders[0].Status)
	assert.Equal(t, model.StatusProcessing, f.session.Draft().Orders[0].Status)

	rec = f.do(http.MethodPost, "/admin/orders/o1/status", "status=lost", asScript)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/admin/orders/nope/status", "status=completed", asScript)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportExport(t *testing.T) {
	f := newFixture(t, testTemplates)

	rec := f.do(http.MethodGet, "/admin/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="admin-data-`)
	exported := rec.Body.String()

	doc := `{"products":[{"id":"x1","name":"Imported"}]}`
	rec = f.do(http.MethodPost, "/admin/import", "", asScript, func(r *http.Request) {
		r.Body = io.NopCloser(strings.NewReader(doc))
		r.Header.Set("Content-Type", config.CTypeJSON)
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	d := f.session.Draft()
	require.Len(t, d.Products, 1)
	assert.Equal(t, "Imported", d.Products[0].Name)
	assert.Empty(t, d.Orders)

	stored, err := f.store.PullAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored.Products, 2, "import never writes the store")

	rec = f.do(http.MethodPost, "/admin/import", "", asScript, func(r *http.Request) {
		r.Body = io.NopCloser(strings.NewReader("not json"))
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Contains(t, exported, `"Phonak"`)
}

func TestNotifier(t *testing.T) {
	f := newFixture(t, testTemplates)

	client := &sse.Client{Msg: make(chan sse.Message, 4), Topic: sse.AdminTopic(f.session.ID)}
	f.clients.Add(client)
	defer f.clients.Delete(client)

	other := &sse.Client{Msg: make(chan sse.Message, 4), Topic: sse.AdminTopic("someone-else")}
	f.clients.Add(other)
	defer f.clients.Delete(other)

	f.do(http.MethodPost, "/admin/save", "")

	select {
	case msg := <-client.Msg:
		assert.Equal(t, EventNotice, msg.Event)
		var n session.Notice
		require.NoError(t, json.Unmarshal([]byte(msg.Data), &n))
		assert.Equal(t, session.LevelSuccess, n.Level)
	default:
		t.Fatal("Expected a notice for the session")
	}

	select {
	case msg := <-other.Msg:
		t.Fatalf("Notice leaked to another session: %+v", msg)
	default:
	}
}

func TestShippedTemplates(t *testing.T) {
	templates := fstest.MapFS{}
	for _, name := range []string{config.TemplateLayout, config.TemplateAdmin, config.TemplateLogin} {
		data, err := os.ReadFile("../../templates/" + name)
		require.NoError(t, err)
		templates["templates/"+name] = &fstest.MapFile{Data: data}
	}
	f := newFixture(t, templates)

	rec := f.do(http.MethodGet, "/admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/admin/products/p1/update"`)
	assert.Contains(t, rec.Body.String(), `action="/admin/orders/o1/status"`)

	req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	login := httptest.NewRecorder()
	f.router.ServeHTTP(login, req)
	require.Equal(t, http.StatusOK, login.Code)
	assert.Contains(t, login.Body.String(), `name="passphrase"`)
}
