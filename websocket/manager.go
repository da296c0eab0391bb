// websocket/manager.go
package websocket

import (
	"encoding/json"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/ETL/pipeline"
	"github.com/LilVoxy/linkedin_analytics/ETL/utils"
	"github.com/LilVoxy/linkedin_analytics/metrics"
	"github.com/LilVoxy/linkedin_analytics/session"
)

// Создание нового менеджера WebSocket-соединений. m может быть nil.
func NewManager(p *pipeline.Pipeline, store *session.Store, m *metrics.Metrics, logger *utils.ETLLogger) *Manager {
	return &Manager{
		Clients:    make(map[int64]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		notify:     make(chan sessionEvent, 16),
		done:       make(chan struct{}),
		pipeline:   p,
		store:      store,
		metrics:    m,
		logger:     logger,
		upgrader:   newUpgrader(),
	}
}

// Run запускает работу менеджера. Возвращается после Stop.
func (manager *Manager) Run() {
	for {
		select {
		case client := <-manager.Register:
			manager.Clients[client.ID] = client
			manager.setConnections()
			manager.logger.Debug("👤 Клиент %d зарегистрирован в сессии %s", client.ID, client.SessionID)

		case client := <-manager.Unregister:
			if _, ok := manager.Clients[client.ID]; ok {
				delete(manager.Clients, client.ID)
				close(client.Send)
				manager.setConnections()
				manager.logger.Info("👤 Клиент %d отключился", client.ID)
			}

		case event := <-manager.notify:
			manager.dispatch(event)

		case <-manager.done:
			for id, client := range manager.Clients {
				client.Socket.Close()
				delete(manager.Clients, id)
			}
			manager.setConnections()
			return
		}
	}
}

// Stop останавливает менеджер и закрывает все соединения
func (manager *Manager) Stop() {
	select {
	case <-manager.done:
	default:
		close(manager.done)
	}
}

// NotifySession сообщает клиентам сессии, что таблица была заменена.
// Каждый клиент получает пересчитанный дашборд со своими последними критериями.
func (manager *Manager) NotifySession(sessionID string, kind models.TableKind) {
	select {
	case manager.notify <- sessionEvent{sessionID: sessionID, kind: kind}:
	case <-manager.done:
	}
}

// dispatch рассылает уведомление клиентам одной сессии
func (manager *Manager) dispatch(event sessionEvent) {
	data, err := json.Marshal(Message{Type: MessageTablesUpdated, Kind: event.kind.String()})
	if err != nil {
		manager.logger.Error("Ошибка кодирования уведомления: %v", err)
		return
	}
	for _, client := range manager.Clients {
		if client.SessionID != event.sessionID {
			continue
		}
		client.enqueueRaw(data)
		client.requestRefresh()
	}
}

func (manager *Manager) register(client *Client) bool {
	select {
	case manager.Register <- client:
		return true
	case <-manager.done:
		return false
	}
}

func (manager *Manager) unregister(client *Client) {
	select {
	case manager.Unregister <- client:
	case <-manager.done:
	}
}

func (manager *Manager) nextClientID() int64 {
	manager.idMutex.Lock()
	defer manager.idMutex.Unlock()
	manager.nextID++
	return manager.nextID
}

func (manager *Manager) setConnections() {
	if manager.metrics != nil {
		manager.metrics.WebSocketConnections.Set(float64(len(manager.Clients)))
	}
}
