package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Server fakes the two purchase endpoints of the ilim backend.
// Each course answers PENDING a fixed number of times after a purchase, then SUCCEEDED.
type Server struct {
	pendingResponses int
	publicURL        string
	logger           *slog.Logger
	mux              *http.ServeMux

	mu        sync.Mutex
	purchases map[string]*purchase
}

type purchase struct {
	invoiceID string
	checks    int
}

type envelope struct {
	Body string `json:"body"`
}

type errorBody struct {
	Message string `json:"message"`
}

func NewServer(pendingResponses int, publicURL string, logger *slog.Logger) *Server {
	s := &Server{
		pendingResponses: pendingResponses,
		publicURL:        strings.TrimRight(publicURL, "/"),
		logger:           logger,
		mux:              http.NewServeMux(),
		purchases:        make(map[string]*purchase),
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /student/purchase-course/{courseId}", s.handlePurchase)
	s.mux.HandleFunc("POST /student/course/{courseId}/check-purchase", s.handleCheck)
	s.mux.HandleFunc("GET /pay/{invoiceId}", s.handlePay)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.logger.Info("Incoming request",
		"method", r.Method,
		"path", r.URL.Path,
		"remote", r.RemoteAddr,
	)
	s.mux.ServeHTTP(w, r)
	s.logger.Debug("Request served", "path", r.URL.Path, "duration", time.Since(start))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		writeJSON(w, http.StatusUnauthorized, errorBody{Message: "missing bearer token"})
		return
	}

	courseID := r.PathValue("courseId")
	p := &purchase{invoiceID: uuid.New().String()}

	s.mu.Lock()
	s.purchases[courseID] = p
	s.mu.Unlock()

	redirectURL := fmt.Sprintf("%s/pay/%s", s.publicURL, p.invoiceID)
	s.logger.Info("Purchase created",
		"course_id", courseID,
		"invoice_id", p.invoiceID,
		"pending_responses", s.pendingResponses,
	)
	writeJSON(w, http.StatusOK, envelope{Body: redirectURL})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		writeJSON(w, http.StatusUnauthorized, errorBody{Message: "missing bearer token"})
		return
	}

	courseID := r.PathValue("courseId")

	s.mu.Lock()
	p, ok := s.purchases[courseID]
	var checks int
	if ok {
		p.checks++
		checks = p.checks
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Message: "no purchase for course " + courseID})
		return
	}

	status := "PENDING"
	if checks > s.pendingResponses {
		status = "SUCCEEDED"
	}

	s.logger.Info("Purchase checked", "course_id", courseID, "check", checks, "status", status)
	writeJSON(w, http.StatusOK, envelope{Body: status})
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "Mock payment page for invoice %s\n", r.PathValue("invoiceId"))
}

func authorized(r *http.Request) bool {
	fields := strings.Fields(r.Header.Get("Authorization"))
	return len(fields) == 2 && strings.EqualFold(fields[0], "bearer")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
