package httpserver

import (
	"net/http"

	"github.com/and161185/gophauth/internal/errs"
	"github.com/and161185/gophauth/internal/service"
	"github.com/go-json-experiment/json"
	"go.uber.org/zap"
)

type message struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.MarshalFull(w, v)
}

// writeError turns err into a {"message": ...} reply. Flow errors keep their
// status and message; anything else is logged and answered with a bare 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if e, ok := errs.As(err); ok && e.Kind != errs.KindInternal {
		_ = writeJSON(w, e.Kind.Status(), message{e.Message})
		return
	}
	s.log.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", RequestIDFromCtx(r.Context())),
		zap.Error(err),
	)
	_ = writeJSON(w, http.StatusInternalServerError, message{service.MsgInternal})
}

// handlerFunc adapts a handler that returns an error.
func (s *Server) handlerFunc(fn func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			s.writeError(w, r, err)
		}
	}
}
