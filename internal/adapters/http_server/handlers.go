package httpserver

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"kemdeholo/internal/app"
	"kemdeholo/internal/domain"
	"kemdeholo/internal/site"
	"kemdeholo/web"
)

const (
	maxBodyBytes       = 64 << 10
	signalKeepAlive    = 25 * time.Second
	msgInvalidBody     = "Requête invalide."
	msgArticleMissing  = "Article introuvable."
	msgPageMissing     = "Page introuvable."
	msgTooManyRequests = "Trop de requêtes, veuillez réessayer dans un instant."
)

type Handlers struct {
	Q       *app.QueryService
	C       *app.SubmissionService
	Signals domain.SignalSubscriber
	// Loc is the site timezone pages are rendered in.
	Loc *time.Location
}

type apiError struct {
	Error string `json:"error"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/api/admin/refresh-signals", h.refreshSignals)

	s.mux.Group(func(r chi.Router) {
		r.Use(Timeout(requestTimeout))

		r.Get("/api/testimonials", h.listTestimonials)
		r.Get("/api/hebergement", h.listRooms)
		r.Get("/api/articles", h.listArticles)
		r.Get("/api/articles/{id}", h.getArticle)

		r.Group(func(r chi.Router) {
			r.Use(SubmitLimiter(s.submitRPS))
			r.Post("/api/testimonials", submit(h.C.CreateTestimonial))
			r.Post("/api/reservations", submit(h.C.CreateReservation))
			r.Post("/subscribe", submit(h.C.Subscribe))
			r.Post("/api/inscriptions", submit(h.C.CreateInscription))
		})

		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static))))
		r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.FS(mustSub(web.Static, "images")))))
		r.Get("/", h.page)
		r.Get("/{name}", h.page)
	})
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiError{Error: msg}); err != nil {
		log.Error().Err(err).Msg("write JSON error response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeList answers a read with an ETag, short-circuiting to 304 when the
// client already holds this version.
func writeList(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeError(w, http.StatusInternalServerError, app.MsgGeneric)
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func writeResult(w http.ResponseWriter, res domain.SubmitResult) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(res.Status)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.Error().Err(err).Msg("write submit result failed")
	}
}

// decodeBody reads a JSON or form-encoded request body into dst. Form
// fields are taken as strings, the way the page scripts send them.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if !isForm(r) {
		return json.NewDecoder(body).Decode(dst)
	}
	r.Body = body
	if err := r.ParseForm(); err != nil {
		return err
	}
	fields := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		fields[k] = r.PostForm.Get(k)
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

func isForm(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/x-www-form-urlencoded"
}

func badRequest(err error) domain.SubmitResult {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return domain.SubmitResult{Status: http.StatusBadRequest, Error: ve.Msg}
	}
	return domain.SubmitResult{Status: http.StatusBadRequest, Error: msgInvalidBody}
}

func emptyIfNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

// ---- reads ----

func (h *Handlers) listTestimonials(w http.ResponseWriter, r *http.Request) {
	ts, err := h.Q.Testimonials(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		log.Error().Err(err).Msg("list testimonials failed")
		writeError(w, http.StatusInternalServerError, app.MsgGeneric)
		return
	}
	writeList(w, r, emptyIfNil(ts))
}

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Q.Rooms(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list rooms failed")
		writeError(w, http.StatusInternalServerError, app.MsgGeneric)
		return
	}
	writeList(w, r, emptyIfNil(rooms))
}

func (h *Handlers) listArticles(w http.ResponseWriter, r *http.Request) {
	as, err := h.Q.Articles(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list articles failed")
		writeError(w, http.StatusInternalServerError, app.MsgGeneric)
		return
	}
	writeList(w, r, emptyIfNil(as))
}

func (h *Handlers) getArticle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, msgArticleMissing)
		return
	}
	a, err := h.Q.Article(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, msgArticleMissing)
		return
	case err != nil:
		log.Error().Err(err).Int64("id", id).Msg("get article failed")
		writeError(w, http.StatusInternalServerError, app.MsgGeneric)
		return
	}
	writeList(w, r, a)
}

// ---- writes ----

// submit decodes a request of type T and runs it. JSON callers get the
// {message}/{error} body; a plain HTML form post gets a result page instead.
func submit[T any](run func(context.Context, T) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req T
		var res domain.SubmitResult
		if err := decodeBody(w, r, &req); err != nil {
			res = badRequest(err)
		} else {
			res = app.ResultFor(run(r.Context(), req))
		}
		if isForm(r) {
			writeResultPage(w, r, res)
			return
		}
		writeResult(w, res)
	}
}

var resultPage = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html lang="fr"><head><meta charset="utf-8"><title>KemdeHolo</title>
<link rel="stylesheet" href="/static/css/site.css"></head>
<body><main class="form-result">
{{if .OK}}<p class="text-green-600">{{.Message}}</p>{{else}}<p class="text-red-600">{{.Error}}</p>{{end}}
<p><a href="{{.Back}}">Retour</a></p>
</main></body></html>
`))

func writeResultPage(w http.ResponseWriter, r *http.Request, res domain.SubmitResult) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(res.Status)
	err := resultPage.Execute(w, struct {
		domain.SubmitResult
		Back string
	}{res, backPath(r)})
	if err != nil {
		log.Error().Err(err).Msg("write result page failed")
	}
}

// backPath is the same-site page the form was posted from, or the home page.
func backPath(r *http.Request) string {
	u, err := url.Parse(r.Referer())
	if err != nil || (u.Host != "" && u.Host != r.Host) {
		return "/"
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return "/"
	}
	return u.Path
}

// ---- refresh signals ----

// refreshSignals streams every Signal as a server-sent event until the client
// goes away. The event id is the signal's marker.
func (h *Handlers) refreshSignals(w http.ResponseWriter, r *http.Request) {
	fl, ok := w.(http.Flusher)
	if !ok || h.Signals == nil {
		writeError(w, http.StatusNotImplemented, "streaming unsupported")
		return
	}
	ctx := r.Context()
	ch, err := h.Signals.Subscribe(ctx)
	if err != nil {
		log.Error().Err(err).Msg("subscribe to refresh signals failed")
		writeError(w, http.StatusServiceUnavailable, app.MsgGeneric)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": subscribed\n\n")
	fl.Flush()

	ping := time.NewTicker(signalKeepAlive)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			fl.Flush()
		case sig, ok := <-ch:
			if !ok {
				return
			}
			b, err := json.Marshal(sig)
			if err != nil {
				log.Error().Err(err).Msg("marshal signal failed")
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", sig.Marker(), sig.Event, b); err != nil {
				return
			}
			fl.Flush()
		}
	}
}

// ---- pages ----

// page serves a shared fragment as is, or a page document bootstrapped
// in-process against the live data.
func (h *Handlers) page(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if web.IsFragment(name) {
		h.fragment(w, r, name)
		return
	}
	file, ok := web.PageName(name)
	if !ok {
		http.Error(w, msgPageMissing, http.StatusNotFound)
		return
	}

	f, err := web.Pages.Open(file)
	if err != nil {
		http.Error(w, msgPageMissing, http.StatusNotFound)
		return
	}
	doc, err := site.Parse(f)
	_ = f.Close()
	if err != nil {
		log.Error().Err(err).Str("page", file).Msg("parse page failed")
		http.Error(w, app.MsgGeneric, http.StatusInternalServerError)
		return
	}

	l := log.With().Str("page", file).Logger()
	p := site.NewPage(doc, r.URL.RequestURI(), app.Local{Q: h.Q, C: h.C}, web.Fragments{},
		site.WithLocation(h.Loc),
		site.WithLogger(l),
	)
	if err := p.Bootstrap(r.Context()); err != nil {
		// each failed block already shows its own message
		l.Warn().Err(err).Msg("page rendered with failed blocks")
	}

	var buf bytes.Buffer
	if err := p.Render(&buf); err != nil {
		l.Error().Err(err).Msg("render page failed")
		http.Error(w, app.MsgGeneric, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(buf.Bytes()); err != nil {
		l.Error().Err(err).Msg("failed to write page")
	}
}

func (h *Handlers) fragment(w http.ResponseWriter, r *http.Request, name string) {
	s, err := web.Fragments{}.Fragment(r.Context(), name)
	if err != nil {
		http.Error(w, msgPageMissing, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(s))
}
