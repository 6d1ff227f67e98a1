// Package admin serves the passphrase-gated panel that edits the site content
// through a session draft.
package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"

	"github.com/debemdeboas/yasny-slukh/internal/auth"
	"github.com/debemdeboas/yasny-slukh/internal/config"
	"github.com/debemdeboas/yasny-slukh/internal/draft"
	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/debemdeboas/yasny-slukh/internal/repository"
	"github.com/debemdeboas/yasny-slukh/internal/routes"
	"github.com/debemdeboas/yasny-slukh/internal/session"
	"github.com/debemdeboas/yasny-slukh/internal/site"
	"github.com/debemdeboas/yasny-slukh/internal/sse"
	"github.com/debemdeboas/yasny-slukh/internal/transfer"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

var adminLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	adminLogger = l
}

// EventNotice is the SSE event name notices are sent with.
const EventNotice = "notice"

// Notifier delivers session notices to the admin's open panel.
type Notifier struct {
	clients *sse.SSEClients
}

func NewNotifier(clients *sse.SSEClients) *Notifier {
	return &Notifier{clients: clients}
}

func (n *Notifier) Notify(sessionID string, notice session.Notice) {
	data, err := json.Marshal(notice)
	if err != nil {
		adminLogger.Error().Err(err).Msg("Error encoding notice")
		return
	}
	n.clients.Broadcast(sse.AdminTopic(sessionID), sse.Message{Event: EventNotice, Data: string(data)})
}

type Handler struct {
	provider *auth.PassphraseProvider
	clients  *sse.SSEClients

	panel *template.Template
	login *template.Template
}

func New(templates fs.FS, provider *auth.PassphraseProvider, clients *sse.SSEClients) (*Handler, error) {
	panel, err := site.ParsePage(templates, config.TemplateAdmin)
	if err != nil {
		return nil, fmt.Errorf("parsing admin template: %w", err)
	}
	login, err := site.ParsePage(templates, config.TemplateLogin)
	if err != nil {
		return nil, fmt.Errorf("parsing login template: %w", err)
	}
	return &Handler{
		provider: provider,
		clients:  clients,
		panel:    panel,
		login:    login,
	}, nil
}

// Routes registers the login pages and the panel on r.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.provider.WithSession())
		auth.RegisterRoutes(r, h.provider, h.login)

		r.Group(func(r chi.Router) {
			r.Use(auth.Require)

			r.Get(routes.Admin, h.servePanel)
			r.Get(routes.AdminEvents, h.serveEvents)
			r.Get(routes.AdminExport, h.serveExport)
			r.Post(routes.AdminReload, h.serveReload)
			r.Post(routes.AdminSave, h.serveSave)
			r.Post(routes.AdminImport, h.serveImport)
			r.Post(routes.AdminHero, h.serveHero)
			r.Post(routes.AdminOrderStat, h.serveOrderStatus)
			r.Post(routes.AdminAdd, h.serveAdd)
			r.Post(routes.AdminUpdate, h.serveUpdate)
			r.Post(routes.AdminDelete, h.serveDelete)
		})
	})
}

type panelPage struct {
	*model.PageData
	Loaded      bool
	Error       string
	Hero        []Field
	Collections []Collection
	Orders      []model.Order
	Statuses    []model.OrderStatus
}

func current(r *http.Request) *session.Session {
	s, _ := auth.SessionFromContext(r.Context())
	return s
}

func (h *Handler) servePanel(w http.ResponseWriter, r *http.Request) {
	s := current(r)
	snap := s.Draft()

	collections, err := Collections(snap)
	if err != nil {
		adminLogger.Error().Err(err).Msg("Error building admin view")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}

	isAdmin := true
	data := panelPage{
		PageData:    model.NewPageData(r),
		Loaded:      s.Loaded(),
		Error:       r.URL.Query().Get("error"),
		Hero:        HeroFields(snap.Hero),
		Collections: collections,
		Orders:      snap.Orders,
		Statuses:    model.OrderStatuses,
	}
	data.IsAdminPage = &isAdmin

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.Header().Set(config.HCacheControl, "no-store")
	if err := h.panel.ExecuteTemplate(w, config.TemplateLayout, data); err != nil {
		adminLogger.Error().Err(err).Msg("Error rendering admin panel")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
	}
}

func (h *Handler) serveEvents(w http.ResponseWriter, r *http.Request) {
	h.clients.Serve(w, r, sse.AdminTopic(current(r).ID))
}

func scripted(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") != ""
}

// reply finishes an action. Scripted requests get a status code, form posts
// go back to the panel.
func reply(w http.ResponseWriter, r *http.Request, err error, anchor string, result any) {
	status := http.StatusOK
	if err != nil {
		switch {
		case session.IsInputError(err):
			status = http.StatusBadRequest
		case errors.Is(err, repository.ErrOrderNotFound):
			status = http.StatusNotFound
		default:
			status = http.StatusBadGateway
		}
	}

	if scripted(r) {
		if err != nil {
			http.Error(w, err.Error(), status)
			return
		}
		if result == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set(config.HCType, config.CTypeJSON)
		if err := json.NewEncoder(w).Encode(result); err != nil {
			adminLogger.Error().Err(err).Msg("Error writing admin reply")
		}
		return
	}

	target := routes.Admin
	if err != nil {
		target += "?error=" + url.QueryEscape(err.Error())
	}
	if anchor != "" {
		target += "#" + anchor
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) serveReload(w http.ResponseWriter, r *http.Request) {
	reply(w, r, current(r).Load(r.Context()), "", nil)
}

func (h *Handler) serveSave(w http.ResponseWriter, r *http.Request) {
	reply(w, r, current(r).Save(r.Context()), "", nil)
}

// serveImport accepts the document either as the "file" form upload or as a
// raw JSON body.
func (h *Handler) serveImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, transfer.MaxDocumentSize)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get(config.HCType), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			reply(w, r, &transfer.FormatError{Err: err}, "", nil)
			return
		}
		defer file.Close()
		src = file
	}
	reply(w, r, current(r).Import(src), "", nil)
}

func (h *Handler) serveExport(w http.ResponseWriter, r *http.Request) {
	doc, err := current(r).Export()
	if err != nil {
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set(config.HCacheControl, "no-store")
	w.Write(doc.Body)
}

func kindParam(r *http.Request) model.Kind {
	return model.Kind(chi.URLParam(r, "kind"))
}

func (h *Handler) serveAdd(w http.ResponseWriter, r *http.Request) {
	kind := kindParam(r)
	key, err := current(r).Add(r.Context(), kind)
	reply(w, r, err, string(kind), map[string]string{"key": key})
}

// serveUpdate applies every known field present in the form, in field order.
func (h *Handler) serveUpdate(w http.ResponseWriter, r *http.Request) {
	kind := kindParam(r)
	key := chi.URLParam(r, "key")
	s := current(r)

	if err := draft.CheckKind(kind); err != nil {
		reply(w, r, err, "", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		reply(w, r, &transfer.FormatError{Err: err}, string(kind), nil)
		return
	}

	err := applyFields(r.PostForm, fieldsOf(kind), func(field, value string) error {
		return s.Update(r.Context(), kind, key, field, value)
	})
	reply(w, r, err, string(kind), nil)
}

func (h *Handler) serveDelete(w http.ResponseWriter, r *http.Request) {
	kind := kindParam(r)
	err := current(r).Delete(r.Context(), kind, chi.URLParam(r, "key"))
	reply(w, r, err, string(kind), nil)
}

func (h *Handler) serveHero(w http.ResponseWriter, r *http.Request) {
	s := current(r)
	if err := r.ParseForm(); err != nil {
		reply(w, r, &transfer.FormatError{Err: err}, "hero", nil)
		return
	}

	names := make([]string, len(heroFields))
	for i, f := range heroFields {
		names[i] = f.name
	}
	err := applyFields(r.PostForm, names, func(field, value string) error {
		return s.SetHero(r.Context(), field, value)
	})
	reply(w, r, err, "hero", nil)
}

func (h *Handler) serveOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status := model.OrderStatus(r.FormValue("status"))
	reply(w, r, current(r).UpdateOrderStatus(r.Context(), id, status), string(model.KindOrders), nil)
}

// applyFields calls set for each of names present in form and stops at the
// first error.
func applyFields(form url.Values, names []string, set func(field, value string) error) error {
	for _, name := range names {
		if _, ok := form[name]; !ok {
			continue
		}
		if err := set(name, form.Get(name)); err != nil {
			return err
		}
	}
	return nil
}

var _ session.Notifier = (*Notifier)(nil)
