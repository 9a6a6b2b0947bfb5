package api

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/simviewer/simviewer/internal/logging"
	"github.com/simviewer/simviewer/internal/pathutil"
	"github.com/simviewer/simviewer/pkg/protocol"
)

// requestError is a failure that maps directly onto an error response.
type requestError struct {
	code    int
	message string
}

func (e *requestError) Error() string {
	return e.message
}

func newRequestError(code int, message string) *requestError {
	return &requestError{code: code, message: message}
}

// notExist treats ENOTDIR like ENOENT: a path under a regular file does
// not exist either.
func notExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

// resolve expands and absolutizes a user-supplied path against the work
// directory.
func (s *Server) resolve(path string) (string, *requestError) {
	abs, err := pathutil.Resolve(path, s.cfg.WorkDir)
	if err != nil {
		return "", newRequestError(http.StatusInternalServerError, "Internal server error: "+err.Error())
	}
	return abs, nil
}

// resolveDir resolves a root query parameter to an existing directory.
// A blank value selects the work directory.
func (s *Server) resolveDir(root string) (string, *requestError) {
	if strings.TrimSpace(root) == "" {
		root = s.cfg.WorkDir
	}
	abs, rerr := s.resolve(root)
	if rerr != nil {
		return "", rerr
	}

	info, err := os.Stat(abs)
	switch {
	case notExist(err):
		return "", newRequestError(http.StatusNotFound, "Directory not found: "+abs)
	case err != nil:
		return "", newRequestError(http.StatusInternalServerError, "Internal server error: "+err.Error())
	case !info.IsDir():
		return "", newRequestError(http.StatusBadRequest, "Path is not a directory: "+abs)
	}
	return abs, nil
}

// acceptsGzip returns true if the client accepts gzip encoding.
func acceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}

// sendJSON writes v as indented JSON. With compress set, the body is
// gzipped for clients that accept it.
func (s *Server) sendJSON(w http.ResponseWriter, r *http.Request, code int, v any, compress bool) {
	w.Header().Set("Content-Type", "application/json")

	var out io.Writer = w
	if compress && acceptsGzip(r) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gw := gzip.NewWriter(w)
		defer gw.Close()
		out = gw
	}

	w.WriteHeader(code)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logging.WithContext(r.Context(), s.logger).Warn("failed to write response", zap.Error(err))
	}
}

func (s *Server) sendError(w http.ResponseWriter, r *http.Request, code int, message string) {
	logger := logging.WithContext(r.Context(), s.logger)
	if code >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Int("status", code), zap.String("error", message))
	} else {
		logger.Warn("request rejected", zap.Int("status", code), zap.String("error", message))
	}

	s.sendJSON(w, r, code, protocol.ErrorResponse{
		Success:    false,
		Error:      message,
		StatusCode: code,
	}, false)
}

func (s *Server) sendRequestError(w http.ResponseWriter, r *http.Request, err *requestError) {
	s.sendError(w, r, err.code, err.message)
}

func healthResponse(version string) protocol.HealthResponse {
	if version == "" {
		version = "dev"
	}
	return protocol.HealthResponse{Status: "ok", Version: version}
}
