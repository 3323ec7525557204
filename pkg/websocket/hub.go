package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"betting_assistant/pkg/history"
	"betting_assistant/pkg/stats"

	"github.com/sirupsen/logrus"
)

// Message 表示WebSocket消息格式
type Message struct {
	Type      string      `json:"type"`      // message, subscribe, unsubscribe, ping, pong, error
	DataType  string      `json:"dataType"`  // history, stats, system
	Data      interface{} `json:"data"`      // 实际数据
	Timestamp int64       `json:"timestamp"` // 时间戳
	ClientID  string      `json:"clientId"`  // 客户端ID（仅用于调试）
}

// ErrorMessage 错误消息格式
type ErrorMessage struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

const (
	// 消息类型
	MessageTypeMessage     = "message"
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
	MessageTypeError       = "error"

	// 数据类型
	DataTypeHistory = "history" // 历史记录变更
	DataTypeStats   = "stats"   // 统计汇总
	DataTypeSystem  = "system"
)

// Hub 管理连接和 history/stats 两个频道的订阅
type Hub struct {
	register   chan *Client
	unregister chan *Client

	// clients 和每个客户端的 topics/closed 都由 mu 保护
	mu      sync.RWMutex
	clients map[*Client]struct{}

	// 订阅时推送当前数据，可为空
	store *history.Store

	startedAt time.Time
}

// NewHub 创建新的Hub
func NewHub(store *history.Store) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]struct{}),
		store:      store,
		startedAt:  time.Now(),
	}
}

// Run 处理连接注册和注销
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			logrus.WithField("clientId", client.id).Info("客户端已连接")

			client.sendMessage(newMessage(DataTypeSystem, client.id,
				map[string]string{"status": "connected", "clientId": client.id}))

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// remove 移除客户端并关闭发送通道，可重复调用
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.topics = nil
	if !client.closed {
		client.closed = true
		close(client.send)
	}
	logrus.WithField("clientId", client.id).Info("客户端已断开")
}

// GetStats 连接数和各频道订阅数
func (h *Hub) GetStats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subscriptions := map[string]int{DataTypeHistory: 0, DataTypeStats: 0}
	for client := range h.clients {
		for topic := range client.topics {
			subscriptions[topic]++
		}
	}

	return map[string]interface{}{
		"connectedClients": len(h.clients),
		"subscriptions":    subscriptions,
		"startTime":        h.startedAt.Format("2006-01-02 15:04:05"),
	}
}

// Publish 向订阅 dataType 的客户端推送数据，缓冲区已满的客户端会被断开
func (h *Hub) Publish(dataType string, data interface{}) {
	payload, err := json.Marshal(newMessage(dataType, "", data))
	if err != nil {
		logrus.Errorf("序列化广播消息失败: %v", err)
		return
	}

	var delivered int
	var stalled []*Client

	h.mu.RLock()
	for client := range h.clients {
		if client.closed || !client.topics[dataType] {
			continue
		}
		select {
		case client.send <- payload:
			delivered++
		default:
			stalled = append(stalled, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stalled {
		h.remove(client)
	}

	logrus.Debugf("推送 %s: 成功 %d 个，断开 %d 个", dataType, delivered, len(stalled))
}

func (h *Hub) subscribe(client *Client, dataType string) {
	h.mu.Lock()
	if client.topics == nil {
		client.topics = make(map[string]bool)
	}
	client.topics[dataType] = true
	h.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"clientId": client.id,
		"dataType": dataType,
	}).Info("客户端订阅数据类型")

	go h.sendSnapshot(client, dataType)
}

func (h *Hub) unsubscribe(client *Client, dataType string) {
	h.mu.Lock()
	delete(client.topics, dataType)
	h.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"clientId": client.id,
		"dataType": dataType,
	}).Info("客户端取消订阅数据类型")
}

// sendSnapshot 给新订阅的客户端推送当前数据
func (h *Hub) sendSnapshot(client *Client, dataType string) {
	data, err := h.snapshot(dataType)
	if err != nil {
		logrus.Errorf("获取 %s 初始数据失败: %v", dataType, err)
		return
	}
	if data == nil {
		return
	}
	client.sendMessage(newMessage(dataType, client.id, data))
}

// HistorySnapshot history 订阅的初始数据
type HistorySnapshot struct {
	Records interface{} `json:"records"`
}

// snapshot 读取当前历史生成初始数据
func (h *Hub) snapshot(dataType string) (interface{}, error) {
	if h.store == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	records := h.store.Load(ctx)

	switch dataType {
	case DataTypeHistory:
		return HistorySnapshot{Records: stats.SortByDateDescending(records)}, nil
	case DataTypeStats:
		return stats.Summarize(records), nil
	default:
		return nil, fmt.Errorf("未知的数据类型: %s", dataType)
	}
}

func newMessage(dataType, clientID string, data interface{}) *Message {
	return &Message{
		Type:      MessageTypeMessage,
		DataType:  dataType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
		ClientID:  clientID,
	}
}

func validDataType(dataType string) bool {
	switch dataType {
	case DataTypeHistory, DataTypeStats:
		return true
	default:
		return false
	}
}
