package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"

	"zeus/internal/core"
	zlog "zeus/internal/log"
)

const (
	noticeInsufficient = "saldo-insuficiente"
	noticeSaved        = "salvo"
	noticeSavings      = "cofrinho"
)

var noticeMessages = map[string]string{
	noticeInsufficient: "Saldo insuficiente no cofrinho",
	noticeSaved:        "Tudo salvo com sucesso!",
	noticeSavings:      "Cofrinho atualizado!",
}

func dashboardURL(m core.Month, notice string) string {
	q := url.Values{}
	q.Set("month", m.String())
	if notice != "" {
		q.Set("notice", notice)
	}
	return "/?" + q.Encode()
}

// redirectToDashboard finishes a form post with 303 so a reload does not resubmit.
func redirectToDashboard(w http.ResponseWriter, r *http.Request, m core.Month, notice string) {
	http.Redirect(w, r, dashboardURL(m, notice), http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		zlog.FromContext(r.Context()).WithComponent(zlog.ComponentTemplate).ErrorContext(r.Context(), "Template render error",
			zlog.FieldOperation, zlog.OpRender,
			zlog.FieldError, err,
			"template", name)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorView struct {
	Status  int
	Message string
	Back    string
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string, back string) {
	s.render(w, r, status, "error.html", errorView{Status: status, Message: message, Back: back})
}

// writeFormError maps parse failures to 422 and anything else to 500.
func (s *Server) writeFormError(w http.ResponseWriter, r *http.Request, m core.Month, err error) {
	back := dashboardURL(m, "")
	if ve, ok := asValidation(err); ok {
		zlog.FromContext(r.Context()).InfoContext(r.Context(), "Form validation failed",
			"field", ve.Field, zlog.FieldPath, r.URL.Path)
		s.renderError(w, r, http.StatusUnprocessableEntity, ve.Message, back)
		return
	}
	zlog.FromContext(r.Context()).ErrorContext(r.Context(), "Form handling failed",
		zlog.FieldPath, r.URL.Path, zlog.FieldError, err)
	s.renderError(w, r, http.StatusInternalServerError, "Não foi possível salvar os dados.", back)
}

// writeJSON encodes before writing so an encoding failure is a 500, not a
// truncated 200.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		zlog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed encoding JSON response", zlog.FieldError, err)
		http.Error(w, "encoding error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
