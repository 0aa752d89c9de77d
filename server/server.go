package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dkarlsson/tabview/config"
	"github.com/dkarlsson/tabview/databases"
	"github.com/dkarlsson/tabview/types"
)

const apiKeyHeader = "X-API-Key"

// streamPageSize rows are fetched and flushed per chunk on the export stream.
const streamPageSize = 256

// Server exposes one dataset executor over the explorer's HTTP contract.
type Server struct {
	executor databases.Executor
	apiKey   string
	router   *mux.Router
}

func New(cfg config.ServerConfig, executor databases.Executor) *Server {
	s := &Server{
		executor: executor,
		apiKey:   cfg.APIKey,
	}

	router := mux.NewRouter()
	router.Use(s.authMiddleware)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/tables", s.handleTables).Methods(http.MethodGet)
	router.HandleFunc("/tables/{table}/columns", s.handleColumns).Methods(http.MethodGet)
	router.HandleFunc("/tables/{table}/query", s.handleQuery).Methods(http.MethodPost)
	router.HandleFunc("/tables/{table}/stream", s.handleStream).Methods(http.MethodPost)
	s.router = router

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe(addr string) error {
	slog.Info("serving dataset API", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get(apiKeyHeader) != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.executor.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.executor.ListTables(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tables == nil {
		tables = []string{}
	}
	writeJSON(w, http.StatusOK, types.TablesResponse{Tables: tables})
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]
	columns, err := s.executor.Columns(r.Context(), table)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, types.ColumnsResponse{Columns: columns})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	d, ok := decodeDescriptor(w, r)
	if !ok {
		return
	}

	result, err := s.executor.Query(r.Context(), d)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleStream writes the full filtered result set as NDJSON, ignoring the
// descriptor's pagination: the stream is the whole match, flushed in chunks.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	d, ok := decodeDescriptor(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	page := *d
	page.Limit = streamPageSize
	page.Offset = 0

	for {
		result, err := s.executor.Query(r.Context(), &page)
		if err != nil {
			// Headers may already be out; cutting the connection is the only
			// way left to signal failure mid-stream.
			slog.Error("stream query failed", "table", d.Table, "error", err)
			panic(http.ErrAbortHandler)
		}
		for _, row := range result.Rows {
			if err := enc.Encode(row); err != nil {
				slog.Error("stream write failed", "table", d.Table, "error", err)
				return
			}
		}
		if flusher != nil {
			flusher.Flush()
		}
		if len(result.Rows) < streamPageSize {
			return
		}
		page.Offset += streamPageSize
	}
}

func decodeDescriptor(w http.ResponseWriter, r *http.Request) (*types.QueryDescriptor, bool) {
	var d types.QueryDescriptor
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return nil, false
	}
	d.Table = mux.Vars(r)["table"]
	if d.Limit <= 0 {
		d.Limit = 100
	}
	if d.Offset < 0 {
		writeError(w, http.StatusBadRequest, "offset must be non-negative")
		return nil, false
	}
	if d.LogicalOperator == "" {
		d.LogicalOperator = types.LogicalAnd
	}
	return &d, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Close releases the executor; callers own the HTTP listener's lifecycle.
func (s *Server) Close() error {
	return s.executor.Close()
}
