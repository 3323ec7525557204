package websocket

import (
	"sync"

	"betting_assistant/pkg/history"
)

// GlobalWebSocketManager 全局WebSocket管理器实例
var GlobalWebSocketManager *WebSocketManager
var once sync.Once

// InitializeGlobalWebSocketManager 初始化全局WebSocket管理器
func InitializeGlobalWebSocketManager(store *history.Store) *WebSocketManager {
	once.Do(func() {
		GlobalWebSocketManager = NewWebSocketManager(store)
		GlobalWebSocketManager.Start()
	})
	return GlobalWebSocketManager
}
