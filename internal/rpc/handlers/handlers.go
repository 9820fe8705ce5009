package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Method string
type Path string

var (
	HTTP_GET    Method = "GET"
	HTTP_POST   Method = "POST"
	HTTP_PUT    Method = "PUT"
	HTTP_DELETE Method = "DELETE"
)

// ErrBadRequest marks handler errors caused by the request itself. They map to 400.
var ErrBadRequest = errors.New("bad request")

type ErrorResponse struct {
	Error string `json:"error"`
}

type MethodHandlers map[Path]map[Method]func(r *http.Request) (any, error)

// SetupHandlers registers every path/method pair on the router. Paths use chi patterns.
func SetupHandlers(router chi.Router, handlers MethodHandlers) {
	for path, methodHandlers := range handlers {
		for method, handler := range methodHandlers {
			router.Method(string(method), string(path), serve(handler))
		}
	}
}

func serve(handler func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := handler(r)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrBadRequest) {
				status = http.StatusBadRequest
			} else {
				zap.L().Error("failed to handle request", zap.String("path", r.URL.Path), zap.Error(err))
			}
			writeJSON(w, status, ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	if body == nil {
		w.WriteHeader(status)
		return
	}
	b, err := json.Marshal(body)
	if err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		b, _ = json.Marshal(ErrorResponse{Error: "failed to encode response"})
	} else {
		w.WriteHeader(status)
	}
	_, _ = w.Write(b)
}
