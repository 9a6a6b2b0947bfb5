package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/simviewer/simviewer/internal/logging"
	"github.com/simviewer/simviewer/internal/metrics"
	"github.com/simviewer/simviewer/internal/simfiles"
)

var errInvalidUTF8 = errors.New("content is not valid UTF-8")

// handleFile handles GET /api/file?path=<file>. The file content is
// expected to be JSON already and is sent back verbatim.
//
// Access is decided by file name only: any path whose base name is
// sim-requests-*.txt is readable, wherever it lives.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithContext(r.Context(), s.logger)
	param := r.URL.Query().Get("path")
	logger.Info("file request", zap.String("path", param))

	if strings.TrimSpace(param) == "" {
		metrics.RecordFileRead(0, "bad_request")
		s.sendError(w, r, http.StatusBadRequest, "File path parameter is required")
		return
	}

	path, rerr := s.resolve(param)
	if rerr != nil {
		metrics.RecordFileRead(0, "error")
		s.sendRequestError(w, r, rerr)
		return
	}

	if !simfiles.Allowed(path) {
		metrics.RecordFileRead(0, "forbidden")
		s.sendError(w, r, http.StatusForbidden, "Access denied: Only sim-requests-*.txt files are allowed")
		return
	}

	info, err := os.Stat(path)
	switch {
	case notExist(err):
		metrics.RecordFileRead(0, "not_found")
		s.sendError(w, r, http.StatusNotFound, "File not found: "+path)
		return
	case err != nil:
		metrics.RecordFileRead(0, "error")
		s.sendError(w, r, http.StatusInternalServerError, "Error reading file: "+err.Error())
		return
	case !info.Mode().IsRegular():
		metrics.RecordFileRead(0, "bad_request")
		s.sendError(w, r, http.StatusBadRequest, "Path is not a file: "+path)
		return
	}

	content, err := readText(path)
	if err != nil {
		metrics.RecordFileRead(0, "error")
		s.sendError(w, r, http.StatusInternalServerError, "Error reading file: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	n, err := w.Write(content)
	if err != nil {
		logger.Warn("failed to send file", zap.String("path", path), zap.Error(err))
	}
	metrics.RecordFileRead(int64(n), "success")
	logger.Info("served file", zap.String("path", path), zap.Int("bytes", n))
}

// readText reads a whole UTF-8 text file.
func readText(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(content) {
		return nil, errInvalidUTF8
	}
	return content, nil
}
