// websocket/types.go
package websocket

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/ETL/pipeline"
	"github.com/LilVoxy/linkedin_analytics/ETL/utils"
	"github.com/LilVoxy/linkedin_analytics/metrics"
	"github.com/LilVoxy/linkedin_analytics/session"
)

// Структура сообщения для обмена через WebSocket
type Message struct {
	Type      string            `json:"type"`
	Criteria  *CriteriaPayload  `json:"criteria,omitempty"`
	Dashboard *models.Dashboard `json:"dashboard,omitempty"`
	Kind      string            `json:"kind,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// CriteriaPayload параметры фильтра в том виде, в каком их присылает клиент
type CriteriaPayload struct {
	Start    string   `json:"start,omitempty"`
	End      string   `json:"end,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
	Bucket   string   `json:"bucket,omitempty"`
}

// Клиент WebSocket
type Client struct {
	ID        int64
	SessionID string
	Socket    *websocket.Conn
	// Очередь отправки; nil в очереди означает пересчет дашборда в writePump
	Send chan []byte

	manager  *Manager
	mu       sync.Mutex
	criteria models.FilterCriteria
}

// Уведомление клиентов сессии об изменении таблиц
type sessionEvent struct {
	sessionID string
	kind      models.TableKind
}

// Менеджер WebSocket-соединений
type Manager struct {
	Clients    map[int64]*Client
	Register   chan *Client
	Unregister chan *Client

	notify chan sessionEvent
	done   chan struct{}

	pipeline *pipeline.Pipeline
	store    *session.Store
	metrics  *metrics.Metrics
	logger   *utils.ETLLogger

	nextID   int64
	idMutex  sync.Mutex
	upgrader websocket.Upgrader
}

func newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // Разрешаем подключения с любого источника, как и CORS в API
		},
	}
}
