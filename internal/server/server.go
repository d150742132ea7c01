// internal/server/server.go
package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/everion-labs/insight-pipeline/internal/insight"
	"github.com/everion-labs/insight-pipeline/internal/store"
)

// Server is the stateless read/delete surface over the persisted
// insight files. It re-reads the files on every request; the watcher
// processes own the writes.
type Server struct {
	telegramStore *store.Store
	marketStore   *store.Store
	logger        *zap.Logger
}

// New creates the query service over the two source stores.
func New(telegramStore, marketStore *store.Store, logger *zap.Logger) *Server {
	return &Server{
		telegramStore: telegramStore,
		marketStore:   marketStore,
		logger:        logger.Named("server"),
	}
}

// Handler returns the HTTP handler for the query API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /insights", s.handleListAll)
	mux.HandleFunc("GET /insights/telegram", s.handleTelegram)
	mux.HandleFunc("GET /insights/market", s.handleMarket)
	mux.HandleFunc("GET /insights/{identifier}", s.handleGet)
	mux.HandleFunc("DELETE /insights/{identifier}", s.handleDelete)
	return mux
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Insight pipeline API is running!",
		"available_endpoints": []string{
			"/insights",
			"/insights/telegram",
			"/insights/market",
			"/insights/{identifier}",
		},
		"status": "active",
	})
}

// handleListAll merges both files, newest ingestion first. Records
// with a missing or malformed timestamp sort as epoch start.
func (s *Server) handleListAll(w http.ResponseWriter, _ *http.Request) {
	all := append(s.telegramStore.LoadAll(), s.marketStore.LoadAll()...)

	sort.SliceStable(all, func(i, j int) bool {
		return ingestedAt(all[i]).After(ingestedAt(all[j]))
	})

	writeJSON(w, http.StatusOK, nonNil(all))
}

func (s *Server) handleTelegram(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.telegramStore.LoadAll()))
}

func (s *Server) handleMarket(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.marketStore.LoadAll()))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	identifier := r.PathValue("identifier")

	for _, in := range append(s.telegramStore.LoadAll(), s.marketStore.LoadAll()...) {
		if in.MatchesKey(identifier) {
			writeJSON(w, http.StatusOK, in)
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Insight not found"})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	identifier := r.PathValue("identifier")

	removed := 0
	for _, st := range []*store.Store{s.telegramStore, s.marketStore} {
		n, err := st.DeleteByKey(identifier)
		if err != nil {
			s.logger.Error("Delete failed",
				zap.String("identifier", identifier),
				zap.Error(err))
			writeJSON(w, http.StatusInternalServerError,
				map[string]string{"detail": "failed to update insight file"})
			return
		}
		removed += n
	}

	if removed == 0 {
		writeJSON(w, http.StatusNotFound,
			map[string]string{"message": "No insight found with the given identifier"})
		return
	}

	s.logger.Info("Insight deleted",
		zap.String("identifier", identifier),
		zap.Int("removed", removed))
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Insight with identifier " + identifier + " deleted successfully",
	})
}

func ingestedAt(in *insight.Insight) time.Time {
	t, err := time.Parse(time.RFC3339, in.IngestedAt)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t
}

func nonNil(items []*insight.Insight) []*insight.Insight {
	if items == nil {
		return []*insight.Insight{}
	}
	return items
}

// writeJSON writes v as JSON with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
