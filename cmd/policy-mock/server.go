package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Server serves policy documents from a directory. It answers both the flat
// "/{profile}.yaml" form and the AppConfig agent path
// "/applications/{app}/environments/{env}/configurations/{profile}".
type Server struct {
	configsDir string
	logger     *slog.Logger
}

func NewServer(configsDir string, logger *slog.Logger) *Server {
	return &Server{
		configsDir: configsDir,
		logger:     logger,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	s.logger.Info("Incoming request",
		"method", r.Method,
		"path", r.URL.Path,
		"remote", r.RemoteAddr,
	)

	if r.URL.Path == "/health" {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
		return
	}

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		s.logger.Warn("Method not allowed", "method", r.Method, "path", r.URL.Path)
		return
	}

	filename, ok := profileFile(r.URL.Path)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		s.logger.Warn("Unknown path", "path", r.URL.Path)
		return
	}

	if strings.Contains(filename, "..") || strings.ContainsRune(filename, '/') {
		w.WriteHeader(http.StatusBadRequest)
		s.logger.Warn("Invalid filename", "filename", filename)
		return
	}

	filePath := filepath.Join(s.configsDir, filename)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			w.WriteHeader(http.StatusNotFound)
			s.logger.Warn("Config file not found", "filename", filename, "path", filePath)
		} else {
			w.WriteHeader(http.StatusInternalServerError)
			s.logger.Error("Failed to read config file", "filename", filename, "error", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)

	s.logger.Info("Config file served",
		"filename", filename,
		"size", len(data),
		"duration", time.Since(start),
	)
}

// profileFile maps a request path to the YAML file holding the profile.
func profileFile(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		name := parts[0]
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			name += ".yaml"
		}
		return name, true
	case len(parts) == 6 && parts[0] == "applications" && parts[2] == "environments" && parts[4] == "configurations":
		return parts[5] + ".yaml", true
	default:
		return "", false
	}
}
