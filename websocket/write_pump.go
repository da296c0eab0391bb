// websocket/write_pump.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

// writePump отвечает за отправку сообщений клиенту
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			c.manager.logger.Error("Паника при отправке сообщений клиенту %d: %v", c.ID, r)
		}
		ticker.Stop()
		c.Socket.Close()
		c.manager.logger.Debug("Завершение writePump для клиента %d", c.ID)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				// Канал закрыт менеджером
				c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
				c.Socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(message); err != nil {
				return
			}

			// Отправляем оставшиеся сообщения в порядке очереди
			n := len(c.Send)
			for i := 0; i < n; i++ {
				message, ok := <-c.Send
				if !ok {
					return
				}
				if err := c.write(message); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.manager.done:
			return
		}
	}
}

// write отправляет сообщение очереди; nil означает запрос свежего дашборда
func (c *Client) write(message []byte) error {
	if message == nil {
		return c.writeDashboard()
	}
	c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Socket.WriteMessage(websocket.TextMessage, message)
}

// writeDashboard пересчитывает дашборд с последними критериями клиента и отправляет его
func (c *Client) writeDashboard() error {
	msg := Message{Type: MessageDashboard}
	dashboard, err := c.computeDashboard(c.currentCriteria())
	if err != nil {
		msg = Message{Type: MessageError, Error: err.Error()}
	} else {
		msg.Dashboard = dashboard
	}

	data, err := json.Marshal(msg)
	if err != nil {
		c.manager.logger.Error("Ошибка кодирования дашборда для клиента %d: %v", c.ID, err)
		return nil
	}
	c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Socket.WriteMessage(websocket.TextMessage, data)
}
