// websocket/connection_handler.go
package websocket

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/LilVoxy/linkedin_analytics/session"
)

// HandleConnections обрабатывает подключение к живому дашборду сессии /ws/{id}
func (manager *Manager) HandleConnections(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if _, err := manager.store.Get(sessionID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			http.Error(w, "Сессия не найдена", http.StatusNotFound)
			return
		}
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	// Повышаем соединение до WebSocket
	conn, err := manager.upgrader.Upgrade(w, r, nil)
	if err != nil {
		manager.logger.Error("❌ Ошибка при установке WebSocket соединения: %v", err)
		return
	}

	client := &Client{
		ID:        manager.nextClientID(),
		SessionID: sessionID,
		Socket:    conn,
		Send:      make(chan []byte, sendBufferSize),
		manager:   manager,
	}

	// Регистрируем клиента в менеджере
	if !manager.register(client) {
		conn.Close()
		return
	}
	manager.logger.Info("✅ Клиент %d подключился с адреса %s", client.ID, r.RemoteAddr)

	// Новый клиент сразу получает дашборд без фильтров
	client.requestRefresh()

	// Запускаем горутины для чтения и отправки сообщений
	go client.readPump()
	go client.writePump()
}
