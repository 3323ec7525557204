package websocket

import (
	"fmt"
	"net/http"
	"time"

	"betting_assistant/models"
	"betting_assistant/pkg/history"
	"betting_assistant/pkg/stats"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrades = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 在生产环境中应该检查Origin
		return true
	},
}

// WebSocketManager WebSocket管理器
type WebSocketManager struct {
	hub *Hub
}

// NewWebSocketManager 创建WebSocket管理器
func NewWebSocketManager(store *history.Store) *WebSocketManager {
	return &WebSocketManager{
		hub: NewHub(store),
	}
}

// Start 启动WebSocket管理器
func (wsm *WebSocketManager) Start() {
	go wsm.hub.Run()
}

// HandleWebSocket 处理WebSocket连接
func (wsm *WebSocketManager) HandleWebSocket(c *gin.Context) {
	// 升级HTTP连接为WebSocket
	conn, err := upgrades.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.Errorf("WebSocket升级失败: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "WebSocket升级失败",
			"details": err.Error(),
		})
		return
	}

	// 生成客户端ID
	clientID := fmt.Sprintf("client_%d_%s", time.Now().UnixNano(), c.ClientIP())

	// 创建客户端
	client := NewClient(wsm.hub, conn, clientID)

	// 注册客户端
	wsm.hub.register <- client

	// 启动客户端
	client.StartClient()

	logrus.WithFields(logrus.Fields{
		"clientId":   clientID,
		"remoteAddr": c.Request.RemoteAddr,
		"userAgent":  c.Request.UserAgent(),
	}).Info("WebSocket连接已建立")
}

// GetStats 获取WebSocket统计信息
func (wsm *WebSocketManager) GetStats(c *gin.Context) {
	hubStats := wsm.hub.GetStats()
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   hubStats,
	})
}

// GetHub 获取Hub实例
func (wsm *WebSocketManager) GetHub() *Hub {
	return wsm.hub
}

// HistoryEvent history 频道推送的变更
type HistoryEvent struct {
	Action string                `json:"action"` // saved, outcome
	Record models.AnalysisRecord `json:"record"`
}

// 变更动作
const (
	HistoryActionSaved   = "saved"
	HistoryActionOutcome = "outcome"
)

// AnalysisSaved 推送新保存的分析和最新统计
func (wsm *WebSocketManager) AnalysisSaved(record models.AnalysisRecord, summary stats.Summary) {
	wsm.hub.Publish(DataTypeHistory, HistoryEvent{Action: HistoryActionSaved, Record: record})
	wsm.hub.Publish(DataTypeStats, summary)
}

// OutcomeUpdated 推送结果变更和最新统计
func (wsm *WebSocketManager) OutcomeUpdated(record models.AnalysisRecord, summary stats.Summary) {
	wsm.hub.Publish(DataTypeHistory, HistoryEvent{Action: HistoryActionOutcome, Record: record})
	wsm.hub.Publish(DataTypeStats, summary)
}
