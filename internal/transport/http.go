package transport

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tliron/commonlog"

	"glslls/internal/rpc"
	"glslls/internal/server"
)

var log = commonlog.GetLogger("glslls.transport")

// NewRouter builds the HTTP surface: editors POST protocol frames to the
// root and receive the framed replies in the response body. A request body
// may pipeline several frames; reply-less notifications produce an empty
// 200.
func NewRouter(session *server.Session) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Post("/", handleMessages(session))
	return router
}

// NewServer wraps the router in an http.Server listening on addr.
func NewServer(addr string, session *server.Session) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(session),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func handleMessages(session *server.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := io.ReadAll(r.Body)
		if err != nil {
			log.Errorf("failed to read request body: %s", err.Error())
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		buffer := rpc.NewMessageBuffer()
		buffer.HandleBytes(content)

		var response []byte
		for buffer.Completed() {
			if frame := session.Handle(r.Context(), buffer); frame != nil {
				response = append(response, frame...)
			}
			buffer.Reset()
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(response); err != nil {
			log.Errorf("failed to write response: %s", err.Error())
		}
	}
}
