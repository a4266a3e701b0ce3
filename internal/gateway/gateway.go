// Package gateway exposes the intake conversation over WebSocket. Each
// client message becomes a user_input event applied through the actor; the
// reply is streamed back word by word followed by a final frame carrying
// the full text and current stage.
package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/lawdesk/matterflow/internal/actor"
	"github.com/lawdesk/matterflow/internal/authz"
	"github.com/lawdesk/matterflow/internal/matter"
	"github.com/lawdesk/matterflow/internal/present"
)

// defaultOrigins mirrors the HTTP layer's CORS default.
var defaultOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}

// originAllowed matches an Origin header against the configured patterns.
// A pattern is either an exact origin, "*", or a prefix ending in "*"
// ("http://localhost:*"). Requests without an Origin header are allowed;
// those come from non-browser clients the same bearer token already gates.
func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, pattern := range allowed {
		if pattern == "*" || pattern == origin {
			return true
		}
		if strings.HasSuffix(pattern, "*") && strings.HasPrefix(origin, strings.TrimSuffix(pattern, "*")) {
			return true
		}
	}
	return false
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type           string `json:"type"` // "message"
	Content        string `json:"content"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// chatFrame is the outgoing WebSocket message format. Type is "chunk" for
// a streamed word, "done" for the terminal frame, or "error".
type chatFrame struct {
	Type    string       `json:"type"`
	Content string       `json:"content,omitempty"`
	Stage   matter.Stage `json:"stage,omitempty"`
	Summary string       `json:"summary,omitempty"`
}

// Gateway bridges WebSocket chat sessions to the actor.
type Gateway struct {
	actor    *actor.Actor
	auth     authz.Authenticator
	upgrader websocket.Upgrader
}

// New creates a Gateway. Upgrades are only accepted from the given
// origins; empty falls back to the localhost defaults the HTTP CORS layer
// uses.
func New(a *actor.Actor, auth authz.Authenticator, allowedOrigins []string) *Gateway {
	origins := allowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	return &Gateway{
		actor: a,
		auth:  auth,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(r.Header.Get("Origin"), origins)
			},
		},
	}
}

// RegisterRoutes mounts the chat endpoint.
func (g *Gateway) RegisterRoutes(r chi.Router) {
	r.Get("/api/orgs/{orgID}/matters/{matterID}/chat", g.handleChat)
}

func (g *Gateway) handleChat(w http.ResponseWriter, r *http.Request) {
	id, err := g.auth.Authenticate(r.Context(), r)
	if err != nil {
		status := http.StatusUnauthorized
		if err == authz.ErrForbidden {
			status = http.StatusForbidden
		}
		http.Error(w, err.Error(), status)
		return
	}

	orgID := chi.URLParam(r, "orgID")
	matterID := chi.URLParam(r, "matterID")

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("gateway: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("gateway: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			g.sendError(conn, "invalid message format")
			continue
		}
		if req.Type != "" && req.Type != "message" {
			g.sendError(conn, "unknown message type: "+req.Type)
			continue
		}
		if req.Content == "" {
			g.sendError(conn, "content is required")
			continue
		}

		ev := matter.Event{
			Type:           matter.EventUserInput,
			OrganizationID: orgID,
			MatterID:       matterID,
			IdempotencyKey: req.IdempotencyKey,
			UserInput:      &matter.UserInputPayload{Message: req.Content},
		}

		resp, err := g.actor.Advance(r.Context(), id, orgID, matterID, ev)
		if err != nil {
			g.sendError(conn, "processing failed: "+err.Error())
			continue
		}

		g.streamReply(conn, resp)
	}
}

// streamReply writes the presentation word by word, then the final frame.
func (g *Gateway) streamReply(conn *websocket.Conn, resp *actor.Response) {
	for _, chunk := range present.Chunks(resp.Message) {
		if err := conn.WriteJSON(chatFrame{Type: "chunk", Content: chunk}); err != nil {
			log.Printf("gateway: websocket write: %v", err)
			return
		}
	}

	final := chatFrame{
		Type:    "done",
		Content: resp.Message,
		Stage:   resp.Stage,
	}
	if resp.CaseBrief != nil && (resp.Stage == matter.StageFilingPrep || resp.Stage == matter.StageCompleted) {
		final.Summary = present.Summary(resp.CaseBrief)
	}
	if err := conn.WriteJSON(final); err != nil {
		log.Printf("gateway: websocket write: %v", err)
	}
}

func (g *Gateway) sendError(conn *websocket.Conn, message string) {
	if err := conn.WriteJSON(chatFrame{Type: "error", Content: message}); err != nil {
		log.Printf("gateway: websocket write error: %v", err)
	}
}
