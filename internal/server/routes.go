package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

func (s *Server) RegisterRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthHandler)

	mux.HandleFunc("/websocket", s.websocketHandler)

	// Wrap the mux with CORS middleware
	return s.corsMiddleware(mux)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allowedOrigin returns the Access-Control-Allow-Origin value for a request
// origin, or "" when it is not allowed.
func (s *Server) allowedOrigin(origin string) string {
	for _, allowed := range s.config.AllowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, err := s.session.Status(ctx)
	if err != nil {
		http.Error(w, "Session unavailable", http.StatusServiceUnavailable)
		return
	}

	resp, err := json.Marshal(status)
	if err != nil {
		http.Error(w, "Failed to marshal health check response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(resp); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		log.Printf("Failed to open websocket: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	connectionID := uuid.New().String()
	client := newWSClient(connectionID, socket, s.config.SendBuffer)
	go client.writeLoop(ctx)

	if err := s.session.Connect(ctx, client); err != nil {
		log.Printf("Connection %s refused: %v", connectionID, err)
		client.Close()
		return
	}
	defer func() {
		client.Close()
		s.rateLimiter.RemoveConnection(connectionID)
		// The request context is already done here.
		if err := s.session.Disconnect(context.Background(), connectionID); err != nil {
			log.Printf("Failed to report disconnect of %s: %v", connectionID, err)
		}
	}()

	// Closing the client ends the read below.
	go func() {
		<-client.done
		cancel()
	}()

	for {
		msgType, data, err := socket.Read(ctx)
		if err != nil {
			log.Printf("Connection %s read error: %v", connectionID, err)
			return
		}

		if msgType != websocket.MessageText {
			log.Printf("Non-text input from %s", connectionID)
			continue
		}

		if !s.rateLimiter.Allow(connectionID) {
			client.Send(ServerMessage{
				Type:    MsgError,
				Payload: ErrorMessage{Message: "Too many messages", Code: "RATE_LIMITED"},
			})
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Invalid JSON from %s: %v", connectionID, err)
			client.Send(ServerMessage{
				Type:    MsgError,
				Payload: ErrorMessage{Message: "Invalid JSON", Code: "INVALID_JSON"},
			})
			continue
		}

		if err := ValidateMessageType(msg.Type); err != nil {
			log.Printf("Unknown message type '%s' from %s", msg.Type, connectionID)
			client.Send(ServerMessage{
				Type:    MsgError,
				Payload: ErrorMessage{Message: err.Error(), Code: "INVALID_MESSAGE_TYPE"},
			})
			continue
		}

		if err := s.session.Dispatch(ctx, connectionID, msg); err != nil {
			log.Printf("Connection %s dropped message: %v", connectionID, err)
			return
		}
	}
}
