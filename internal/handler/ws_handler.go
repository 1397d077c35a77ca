package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/smartquiz/quizrun-backend/internal/middleware"
	"github.com/smartquiz/quizrun-backend/internal/model"
	"github.com/smartquiz/quizrun-backend/internal/service"
	ws "github.com/smartquiz/quizrun-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler offers a WebSocket alternative to the HTTP autosave and
// violation endpoints, for clients that keep a persistent connection.
type WSHandler struct {
	quizService      *service.QuizService
	violationService *service.ViolationService
	log              zerolog.Logger
	upgrader         websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	quizService *service.QuizService,
	violationService *service.ViolationService,
	log zerolog.Logger,
	allowedOrigins []string,
) *WSHandler {
	return &WSHandler{
		quizService:      quizService,
		violationService: violationService,
		log:              log.With().Str("component", "ws_handler").Logger(),
		upgrader:         buildUpgrader(allowedOrigins),
	}
}

// QuizStream godoc
// WS /ws/v1/quiz/stream
// Upgrades to WebSocket for real-time autosave and violation reporting.
func (h *WSHandler) QuizStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	participantID := claims.UserID

	wsLog := h.log.With().Int("participant_id", participantID).Logger()
	wsLog.Info().Msg("Participant connected")

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionSaveAnswers:
			h.handleSaveAnswers(conn, wsLog, participantID, &msg)
		case ws.ActionViolation:
			h.handleViolation(conn, wsLog, participantID, &msg)
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

// handleSaveAnswers stores a full answer snapshot, same semantics as
// POST /api/v1/quiz/answers.
func (h *WSHandler) handleSaveAnswers(conn *websocket.Conn, wsLog zerolog.Logger, participantID int, msg *ws.RequestPayload) {
	if msg.Answers == nil {
		ws.WriteError(conn, "answers are required")
		return
	}

	if err := h.quizService.SaveAnswers(context.Background(), participantID, msg.Answers); err != nil {
		wsLog.Error().Err(err).Msg("Autosave error")
		ws.WriteError(conn, "save failed")
		return
	}

	ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved, Status: "saved"})
}

// handleViolation records a violation and returns the server verdict.
func (h *WSHandler) handleViolation(conn *websocket.Conn, wsLog zerolog.Logger, participantID int, msg *ws.RequestPayload) {
	req := &model.ViolationRequest{Type: msg.Type, Device: msg.Device}
	switch model.ViolationType(req.Type) {
	case model.ViolationTabSwitch, model.ViolationWindowBlur, model.ViolationFullscreenExit:
	default:
		ws.WriteError(conn, "invalid violation type")
		return
	}

	outcome, err := h.violationService.Record(context.Background(), participantID, req)
	if err != nil {
		wsLog.Error().Err(err).Msg("Violation record error")
		ws.WriteError(conn, "report failed")
		return
	}

	ws.WriteTyped(conn, ws.ViolationResponse{
		Event:      ws.EventViolation,
		Count:      outcome.Count,
		Max:        outcome.Max,
		AutoSubmit: outcome.AutoSubmit,
	})
}
