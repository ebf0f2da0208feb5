package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"golang.org/x/net/websocket"

	"github.com/visitgate/visitgate/internal/auth"
	"github.com/visitgate/visitgate/internal/visitgate/types"
)

// wsSender adapts a websocket connection to the Sender interface.  Frames
// are JSON-encoded events.
type wsSender struct {
	conn *websocket.Conn
}

func (s wsSender) Send(ev types.Event) error { return websocket.JSON.Send(s.conn, ev) }
func (s wsSender) Close() error              { return s.conn.Close() }

// NewHandler returns the websocket endpoint.  The client authenticates at
// connect time with a staff token (query parameter "token" or a bearer
// Authorization header); the session's recipient identity and group
// memberships come from the token claims and last for the life of the
// connection.
func NewHandler(registry *Registry, tokens *auth.TokenManager, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := tokens.Parse(connectToken(r))
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		websocket.Handler(func(ws *websocket.Conn) {
			serveConn(registry, ws, claims, logger)
		}).ServeHTTP(w, r)
	})
}

func serveConn(registry *Registry, ws *websocket.Conn, claims auth.Claims, logger *log.Logger) {
	var groups []string
	if claims.Role != "" {
		groups = append(groups, RoleGroup(claims.Role))
	}
	if claims.DepartmentID != "" {
		groups = append(groups, DepartmentGroup(claims.DepartmentID))
	}

	conn := registry.Register(claims.Subject, groups, wsSender{conn: ws})
	defer registry.Unregister(conn)

	if logger != nil {
		logger.Printf("hub: %s connected (groups=%v)", claims.Subject, groups)
	}

	// The server pushes, the client mostly listens.  Inbound frames are
	// read and discarded so pings keep the connection alive; the read
	// returning an error is the disconnect signal.
	for {
		var frame json.RawMessage
		if err := websocket.JSON.Receive(ws, &frame); err != nil {
			break
		}
	}

	if logger != nil {
		logger.Printf("hub: %s disconnected", claims.Subject)
	}
}

func connectToken(r *http.Request) string {
	if t := strings.TrimSpace(r.URL.Query().Get("token")); t != "" {
		return t
	}
	h := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}
