package controllers

import (
	"net/http"
	"strconv"

	"betting_assistant/models"
	"betting_assistant/pkg/errs"
	"betting_assistant/pkg/history"
	"betting_assistant/pkg/stats"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HistoryController 分析历史、统计和首页数据
type HistoryController struct {
	store     *history.Store
	notifiers []HistoryNotifier
}

// NewHistoryController 创建历史控制器
func NewHistoryController(store *history.Store, notifiers ...HistoryNotifier) *HistoryController {
	return &HistoryController{store: store, notifiers: notifiers}
}

// OutcomeRequest 更新结果请求
type OutcomeRequest struct {
	Outcome models.Outcome `json:"outcome" binding:"required"`
	ROI     models.ROI     `json:"roi"`
}

// GetHistory 获取历史记录，支持 filter 和 sortBy
func (h *HistoryController) GetHistory(ctx *gin.Context) {
	filter := ctx.DefaultQuery("filter", models.OutcomeFilterAll)
	sortBy := ctx.DefaultQuery("sortBy", stats.SortByDate)
	if sortBy != stats.SortByDate && sortBy != stats.SortByConfidence {
		respondError(ctx, errs.NewValidation("sortBy must be date or confidence", "sortBy"))
		return
	}

	records := h.store.Load(ctx.Request.Context())
	arranged := stats.Arrange(records, filter, sortBy)

	ctx.JSON(http.StatusOK, gin.H{
		"data":  arranged,
		"total": len(arranged),
	})
}

// GetRecord 获取单条分析
func (h *HistoryController) GetRecord(ctx *gin.Context) {
	record, ok := h.store.Find(ctx.Request.Context(), ctx.Param("id"))
	if !ok {
		respondError(ctx, errs.NewNotFound("analysis"))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": record})
}

// CreateRecord 保存一条分析
func (h *HistoryController) CreateRecord(ctx *gin.Context) {
	var candidate models.AnalysisRecord
	if err := ctx.ShouldBindJSON(&candidate); err != nil {
		logrus.Warnf("保存分析参数错误: %v", err)
		respondError(ctx, errs.NewValidation("请求参数格式错误"))
		return
	}

	record, err := h.save(ctx, candidate)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"data": record})
}

// save 追加记录并通知订阅方
func (h *HistoryController) save(ctx *gin.Context, candidate models.AnalysisRecord) (models.AnalysisRecord, error) {
	record, err := h.store.Append(ctx.Request.Context(), candidate)
	if err != nil {
		return models.AnalysisRecord{}, err
	}

	summary := stats.Summarize(h.store.Load(ctx.Request.Context()))
	for i := range h.notifiers {
		h.notifiers[i].AnalysisSaved(record, summary)
	}
	return record, nil
}

// UpdateOutcome 更新分析的结算状态和回报
func (h *HistoryController) UpdateOutcome(ctx *gin.Context) {
	var req OutcomeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, errs.NewValidation("outcome is required", "outcome"))
		return
	}
	if !req.Outcome.Valid() {
		respondError(ctx, errs.NewValidation("outcome must be one of pending, win, loss, push", "outcome"))
		return
	}

	id := ctx.Param("id")
	reqCtx := ctx.Request.Context()
	if _, ok := h.store.Find(reqCtx, id); !ok {
		respondError(ctx, errs.NewNotFound("analysis"))
		return
	}

	if !h.store.UpdateOutcome(reqCtx, id, req.Outcome, req.ROI) {
		respondError(ctx, errs.NewStorageUnavailable("failed to update outcome", nil))
		return
	}

	record, _ := h.store.Find(reqCtx, id)
	summary := stats.Summarize(h.store.Load(reqCtx))
	for i := range h.notifiers {
		h.notifiers[i].OutcomeUpdated(record, summary)
	}

	ctx.JSON(http.StatusOK, gin.H{"data": record})
}

// GetStats 获取统计汇总
func (h *HistoryController) GetStats(ctx *gin.Context) {
	summary := stats.Summarize(h.store.Load(ctx.Request.Context()))
	ctx.JSON(http.StatusOK, gin.H{"data": summary})
}

// GetRecent 获取最近的分析
func (h *HistoryController) GetRecent(ctx *gin.Context) {
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(stats.DefaultRecentLimit)))
	if err != nil || limit <= 0 {
		respondError(ctx, errs.NewValidation("limit must be a positive integer", "limit"))
		return
	}

	recent := stats.Recent(h.store.Load(ctx.Request.Context()), limit)
	ctx.JSON(http.StatusOK, gin.H{"data": recent})
}

// GetDashboard 首页统计卡片和最近分析
func (h *HistoryController) GetDashboard(ctx *gin.Context) {
	records := h.store.Load(ctx.Request.Context())
	summary := stats.Summarize(records)

	ctx.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"stats":   stats.Dashboard(summary),
			"summary": summary,
			"recent":  stats.Recent(records, stats.DefaultRecentLimit),
		},
	})
}
