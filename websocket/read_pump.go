// websocket/read_pump.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/ETL/pipeline"
)

// readPump обрабатывает чтение сообщений от клиента
func (c *Client) readPump() {
	defer func() {
		// Обработка паники при разборе сообщения
		if r := recover(); r != nil {
			c.manager.logger.Error("Паника при чтении сообщений клиента %d: %v", c.ID, r)
		}

		c.manager.logger.Info("❌ Клиент %d отключился", c.ID)

		// Отправляем сигнал отключения
		c.manager.unregister(c)

		c.Socket.Close()
	}()

	// Устанавливаем параметры подключения
	c.Socket.SetReadLimit(maxMessageSize)
	c.Socket.SetReadDeadline(time.Now().Add(pongWait))
	c.Socket.SetPongHandler(func(string) error {
		c.Socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.manager.logger.Warn("Ошибка чтения WebSocket клиента %d: %v", c.ID, err)
			}
			break
		}
		c.Socket.SetReadDeadline(time.Now().Add(pongWait))

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			c.manager.logger.Warn("Ошибка декодирования сообщения клиента %d: %v", c.ID, err)
			c.enqueue(Message{Type: MessageError, Error: "некорректное сообщение"})
			continue
		}

		switch msg.Type {
		case MessagePing:
			c.enqueue(Message{Type: MessagePong})

		case MessageFilter:
			c.handleFilter(msg.Criteria)

		default:
			c.manager.logger.Debug("Неизвестный тип сообщения от клиента %d: %q", c.ID, msg.Type)
			c.enqueue(Message{Type: MessageError, Error: "неизвестный тип сообщения: " + msg.Type})
		}
	}
}

// handleFilter применяет новые критерии и отправляет пересчитанный дашборд
func (c *Client) handleFilter(payload *CriteriaPayload) {
	if payload == nil {
		payload = &CriteriaPayload{}
	}
	criteria, err := models.ParseCriteria(payload.Start, payload.End, payload.Hashtags, payload.Bucket)
	if err != nil {
		c.enqueue(Message{Type: MessageError, Error: err.Error()})
		return
	}

	c.mu.Lock()
	c.criteria = criteria
	c.mu.Unlock()

	dashboard, err := c.computeDashboard(criteria)
	if err != nil {
		c.enqueue(Message{Type: MessageError, Error: err.Error()})
		return
	}
	c.enqueue(Message{Type: MessageDashboard, Dashboard: dashboard})
}

// computeDashboard пересчитывает дашборд по текущим таблицам сессии
func (c *Client) computeDashboard(criteria models.FilterCriteria) (*models.Dashboard, error) {
	sess, err := c.manager.store.Get(c.SessionID)
	if err != nil {
		return nil, err
	}
	return c.manager.pipeline.ComputeSession(pipeline.TriggerWebSocket, sess, criteria)
}

func (c *Client) currentCriteria() models.FilterCriteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.criteria
}

// enqueue ставит сообщение в очередь отправки; при переполнении сообщение отбрасывается
func (c *Client) enqueue(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.manager.logger.Error("Ошибка кодирования сообщения для клиента %d: %v", c.ID, err)
		return
	}
	c.enqueueRaw(data)
}

func (c *Client) enqueueRaw(data []byte) {
	select {
	case c.Send <- data:
	default:
		c.manager.logger.Warn("Очередь клиента %d переполнена, сообщение отброшено", c.ID)
	}
}

// requestRefresh ставит в очередь запрос свежего дашборда. Дашборд уйдет клиенту
// после всех сообщений, поставленных раньше.
func (c *Client) requestRefresh() {
	c.enqueueRaw(nil)
}
