package controllers

import (
	"net/http"

	"betting_assistant/pkg/mlb"

	"github.com/gin-gonic/gin"
)

// EventsController MLB赛程、统计和即将开始的赛事
type EventsController struct {
	client *mlb.Client
}

// NewEventsController 创建赛事控制器
func NewEventsController(client *mlb.Client) *EventsController {
	return &EventsController{client: client}
}

// GetSchedule 获取指定日期的MLB赛程
func (e *EventsController) GetSchedule(ctx *gin.Context) {
	games, err := e.client.Schedule(ctx.Request.Context(), ctx.Query("date"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"games": games}})
}

// GetStats 获取球队或球员的赛季统计
func (e *EventsController) GetStats(ctx *gin.Context) {
	groups, err := e.client.Stats(ctx.Request.Context(), mlb.StatsQuery{
		TeamID:   ctx.Query("teamId"),
		PlayerID: ctx.Query("playerId"),
		Season:   ctx.Query("season"),
		Group:    ctx.Query("group"),
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"stats": groups}})
}

// GetUpcoming 获取即将开始的赛事
func (e *EventsController) GetUpcoming(ctx *gin.Context) {
	events, err := e.client.Upcoming(ctx.Request.Context(), ctx.Query("date"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": events})
}
