package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second    // 写入等待时间
	pongWait       = 60 * time.Second    // Pong等待时间
	pingPeriod     = (pongWait * 9) / 10 // Ping发送周期
	maxMessageSize = 512                 // 客户端只发订阅类小消息
	sendBuffer     = 64
)

// Client 单个WebSocket连接
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string

	// 以下字段由 hub.mu 保护
	topics map[string]bool
	closed bool
}

// NewClient 创建新的客户端
func NewClient(hub *Hub, conn *websocket.Conn, id string) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		id:   id,
	}
}

// StartClient 启动客户端的读写协程
func (c *Client) StartClient() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Errorf("WebSocket错误: %v", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("INVALID_MESSAGE", "消息格式错误", fmt.Sprintf("解析失败: %v", err))
			continue
		}
		c.handleMessage(&msg)
	}
}

// writePump 同一帧内用换行拼接排队的消息
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			for i, n := 0, len(c.send); i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeSubscribe, MessageTypeUnsubscribe:
		if !validDataType(msg.DataType) {
			c.sendError("INVALID_DATATYPE", "订阅失败", fmt.Sprintf("不支持的数据类型: %q", msg.DataType))
			return
		}

		action := "subscribed"
		if msg.Type == MessageTypeSubscribe {
			c.hub.subscribe(c, msg.DataType)
		} else {
			c.hub.unsubscribe(c, msg.DataType)
			action = "unsubscribed"
		}
		c.sendMessage(newMessage(DataTypeSystem, c.id,
			map[string]string{"action": action, "dataType": msg.DataType}))

	case MessageTypePing:
		pong := newMessage(DataTypeSystem, c.id, map[string]string{"message": "pong"})
		pong.Type = MessageTypePong
		c.sendMessage(pong)

	default:
		c.sendError("UNKNOWN_MESSAGE_TYPE", "未知消息类型", fmt.Sprintf("不支持的消息类型: %s", msg.Type))
	}
}

// sendMessage 非阻塞发送，缓冲区已满时断开客户端
func (c *Client) sendMessage(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logrus.Errorf("序列化消息失败: %v", err)
		return
	}

	c.hub.mu.RLock()
	full := false
	if !c.closed {
		select {
		case c.send <- data:
		default:
			full = true
		}
	}
	c.hub.mu.RUnlock()

	if full {
		logrus.WithField("clientId", c.id).Warn("客户端发送缓冲区已满，断开连接")
		c.hub.remove(c)
	}
}

func (c *Client) sendError(code, message, details string) {
	errorMsg := newMessage(DataTypeSystem, c.id, ErrorMessage{
		Error:   message,
		Code:    code,
		Details: details,
	})
	errorMsg.Type = MessageTypeError
	c.sendMessage(errorMsg)
}
