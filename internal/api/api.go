// Package api exposes a point-query HTTP surface over a running driver,
// grounded on the teacher's cmd/ns-api/v2 Grafana HTTP handler: a
// gorilla/mux router returning JSON, no protocol buffers involved.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/hovering-clouds/acsengine/internal/driver"
	"github.com/hovering-clouds/acsengine/internal/model"
)

// Server serves HTTP point queries against a Driver's bound sketches.
type Server struct {
	d    *driver.Driver
	http *http.Server
}

// NewServer builds an HTTP server rooted at addr that answers queries
// against d. The server isn't started until Start is called.
func NewServer(addr string, d *driver.Driver) *Server {
	s := &Server{d: d}
	s.http = &http.Server{Addr: addr, Handler: s.router()}
	return s
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/tasks", s.handleTasks).Methods(http.MethodGet)
	r.HandleFunc("/query/{task}", s.handleQuery).Methods(http.MethodGet)
	return r
}

// Start runs the HTTP server, blocking until it's shut down. Call this in
// its own goroutine, the same way the teacher's main starts its HTTP/gRPC
// pair.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server, letting in-flight requests
// finish until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"tasks": s.d.TaskNames()})
}

// queryResponse is the JSON body returned by a /query/{task} request.
type queryResponse struct {
	Task  string `json:"task"`
	Value int64  `json:"value"`
}

// handleQuery answers a point query for one task, reading the flow's
// 5-tuple fields from the query string (only the fields the task was
// bound on need be supplied).
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["task"]
	fields, ok := s.d.TaskFields(name)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown task %q", name), http.StatusNotFound)
		return
	}

	ft, err := parseFiveTuple(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	value, err := s.d.Query(name, fields, ft)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{Task: name, Value: value})
}

func parseFiveTuple(q map[string][]string) (*model.FiveTuple, error) {
	get := func(key string) string {
		if v, ok := q[key]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}

	var ft model.FiveTuple
	if v := get("src_ip"); v != "" {
		ip := net.ParseIP(v)
		if ip == nil {
			return nil, fmt.Errorf("invalid src_ip %q", v)
		}
		ft.SrcIP = ip
	}
	if v := get("dst_ip"); v != "" {
		ip := net.ParseIP(v)
		if ip == nil {
			return nil, fmt.Errorf("invalid dst_ip %q", v)
		}
		ft.DstIP = ip
	}
	if v := get("src_port"); v != "" {
		p, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid src_port %q", v)
		}
		ft.SrcPort = uint16(p)
	}
	if v := get("dst_port"); v != "" {
		p, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid dst_port %q", v)
		}
		ft.DstPort = uint16(p)
	}
	if v := get("protocol"); v != "" {
		p, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid protocol %q", v)
		}
		ft.Protocol = uint8(p)
	}
	return &ft, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
