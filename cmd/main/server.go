package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/oakmere/govjinja/pkg/forms"
	"github.com/oakmere/govjinja/pkg/messages"
	"github.com/oakmere/govjinja/pkg/templating"
)

// Server hosts the template preview pages.
type Server struct {
	config *Config
	logger *slog.Logger
	env    *templating.Environment
	mux    *http.ServeMux
}

// NewServer builds the template environment and registers routes.
func NewServer(config *Config, logger *slog.Logger) (*Server, error) {
	env, err := templating.New(logger, config.Templates)
	if err != nil {
		return nil, fmt.Errorf("failed to create template environment: %w", err)
	}

	server := &Server{
		config: config,
		logger: logger,
		env:    env,
		mux:    http.NewServeMux(),
	}

	staticFs := http.FileServer(http.Dir(config.Server.StaticDir))
	server.mux.Handle("/static/", http.StripPrefix("/static/", staticFs))
	server.mux.HandleFunc("POST /feedback", server.handleFeedback)
	server.mux.HandleFunc("POST /refresh", server.handleRefresh)
	server.mux.HandleFunc("/", server.handlePage)

	return server, nil
}

// handlePage renders the template named by the request path, defaulting
// to index.njk for the root.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Path[1:]
	if name == "" {
		name = "index.njk"
	}

	data := map[string]any{
		"request": templating.RequestData(w, r),
		"now":     time.Now(),
		"form":    feedbackForm("", nil),
	}

	var buf bytes.Buffer
	if err := s.env.Execute(&buf, name, data); err != nil {
		s.logger.Error("Failed to execute template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	s.logger.Info("Served page", "template", name, "remote_addr", r.RemoteAddr)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// handleFeedback validates the demo form and queues a flash message for
// the page shown after the redirect.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	store := &messages.Store{}
	comment := r.PostFormValue("comment")
	if comment == "" {
		store.Error("Enter your feedback before sending")
	} else {
		store.Success("Thank you for your feedback")
		s.logger.Info("Feedback received", "length", len(comment))
	}
	messages.SetCookie(w, store)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleRefresh reloads templates from disk without a restart.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.env.Refresh(); err != nil {
		s.logger.Error("Failed to refresh templates", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// feedbackForm describes the demo form rendered through the crispy global.
func feedbackForm(comment string, errs []string) *forms.Form {
	return &forms.Form{
		Action:      "/feedback",
		SubmitLabel: "Send feedback",
		Fields: []forms.Field{
			{
				Name:   "comment",
				Label:  "How could this service be improved?",
				Hint:   "Do not include personal information",
				Type:   "textarea",
				Value:  comment,
				Errors: errs,
			},
		},
	}
}
