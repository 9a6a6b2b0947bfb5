package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/simviewer/simviewer/internal/logging"
	"github.com/simviewer/simviewer/pkg/protocol"
)

// handleScan handles GET /api/scan?root=<dir>.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithContext(r.Context(), s.logger)
	param := r.URL.Query().Get("root")
	logger.Info("scan request", zap.String("root", param))

	root, rerr := s.resolveDir(param)
	if rerr != nil {
		s.sendRequestError(w, r, rerr)
		return
	}
	logger.Info("resolved root folder", zap.String("root", root))

	files, err := s.scanner.Scan(r.Context(), root)
	if err != nil {
		s.sendError(w, r, http.StatusInternalServerError, "Internal server error: "+err.Error())
		return
	}
	logger.Info("found sim-requests files", zap.Int("count", len(files)))

	s.sendJSON(w, r, http.StatusOK, protocol.ScanResponse{
		Success:    true,
		RootFolder: root,
		Files:      files,
		Count:      len(files),
	}, true)
}
