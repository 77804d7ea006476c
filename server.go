package main

import (
	"encoding/json"
	"net/http"

	"language-translator-go/cache"
	"language-translator-go/logcolors"
	"language-translator-go/stats"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

// startStatsServer exposes read-only progress endpoints while a run is in
// flight. It is purely observational; nothing in the pipeline consults it.
func startStatsServer(addr string, st *stats.Stats, tc *cache.TranslationCache) {
	router := mux.NewRouter()

	router.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		snapshot := st.Snapshot()
		snapshot["cache_entries"] = tc.Len()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snapshot)
	})

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":          "ok",
			"uptime":          st.Uptime().String(),
			"files_processed": st.Value(stats.FilesProcessed),
		})
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	})

	go func() {
		log.Infof("%s Stats server listening on %s", logcolors.LogServer, addr)
		if err := http.ListenAndServe(addr, c.Handler(router)); err != nil {
			log.Errorf("%s Stats server stopped: %v", logcolors.LogServer, err)
		}
	}()
}
