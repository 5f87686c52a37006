package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/podfacts/backend/internal/api/response"
	"github.com/podfacts/backend/internal/metrics"
	"github.com/podfacts/backend/pkg/logger"
)

// wsRequest is one client message. Params mirror the HTTP query
// parameters of the same operation.
type wsRequest struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params"`
}

type wsParams struct {
	ID        string `json:"id"`
	Include   string `json:"include"`
	PodcastID string `json:"podcast_id"`
	EpisodeID string `json:"episode_id"`
	Search    string `json:"search"`
	Keyword   string `json:"keyword"`
	Limit     *int64 `json:"limit"`
	Skip      *int64 `json:"skip"`
}

type wsResponse struct {
	ID      string            `json:"id"`
	Type    string            `json:"type"`
	Status  int               `json:"status"`
	Payload response.Envelope `json:"payload"`
}

type WebSocketHandler struct {
	handler *Handler
}

func NewWebSocketHandler(handler *Handler) *WebSocketHandler {
	return &WebSocketHandler{
		handler: handler,
	}
}

// HandleConnection answers requests on one connection in order until the
// client goes away. A malformed message gets an error reply and the
// connection stays open.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	metrics.WebSocketConnections.Inc()
	logger.Info("WebSocket connection established")

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		c.Close()
		metrics.WebSocketConnections.Dec()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var req wsRequest
		if err := c.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Error("Failed to read WebSocket message", zap.Error(err))
			}
			return
		}

		resp := h.dispatch(ctx, req)
		if err := c.WriteJSON(resp); err != nil {
			logger.Error("Failed to write WebSocket response", zap.Error(err))
			return
		}
	}
}

func (h *WebSocketHandler) dispatch(ctx context.Context, req wsRequest) wsResponse {
	resp := wsResponse{ID: req.ID, Type: req.Type, Status: 200}

	var p wsParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &p); err != nil {
			resp.Status = 400
			resp.Payload = response.Fail("Invalid params")
			return resp
		}
	}
	list := listParams{
		PodcastID: p.PodcastID,
		EpisodeID: p.EpisodeID,
		Search:    p.Search,
		Keyword:   p.Keyword,
		Limit:     formatOptional(p.Limit),
		Skip:      formatOptional(p.Skip),
	}

	var (
		env      response.Envelope
		err      error
		notFound string
	)
	switch req.Type {
	case "list_episodes":
		env, err = h.handler.listEpisodes(ctx, list)
	case "get_episode":
		env, err = h.handler.getEpisode(ctx, p.ID, p.Include == "facts")
		notFound = episodeNotFound
	case "list_facts":
		env, err = h.handler.listFacts(ctx, list)
	case "get_fact":
		env, err = h.handler.getFact(ctx, p.ID)
		notFound = factNotFound
	case "keyword_stats":
		env, err = h.handler.keywordStats(ctx)
	default:
		resp.Status = 400
		resp.Payload = response.Fail(fmt.Sprintf("unknown message type %q", req.Type))
		return resp
	}

	if err != nil {
		resp.Status, resp.Payload = failure(err, notFound)
		return resp
	}
	resp.Payload = env
	return resp
}
