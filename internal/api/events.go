package api

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/simviewer/simviewer/internal/events"
	"github.com/simviewer/simviewer/internal/logging"
	"github.com/simviewer/simviewer/internal/metrics"
	"github.com/simviewer/simviewer/internal/watcher"
)

// handleEvents handles GET /api/events?root=<dir>, streaming sim-requests
// file changes under root as Server-Sent Events. Each stream owns its
// watcher; it stops when the client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithContext(r.Context(), s.logger)

	root, rerr := s.resolveDir(r.URL.Query().Get("root"))
	if rerr != nil {
		s.sendRequestError(w, r, rerr)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.sendError(w, r, http.StatusInternalServerError, "Internal server error: streaming not supported")
		return
	}

	fw := watcher.New(root, s.cfg.WatchInterval, logger)
	if err := fw.Start(r.Context()); err != nil {
		s.sendError(w, r, http.StatusInternalServerError, "Internal server error: "+err.Error())
		return
	}
	defer fw.Stop()

	eventCh := fw.Subscribe()
	defer fw.Unsubscribe(eventCh)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	metrics.StreamOpened()
	defer metrics.StreamClosed()
	logger.Info("event stream opened", zap.String("root", root), zap.Int("files", fw.Files()))

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			logger.Info("event stream closed", zap.String("root", root))
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			data, err := events.MarshalEvent(event)
			if err != nil {
				logger.Warn("failed to marshal event", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\n", event.Type)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
