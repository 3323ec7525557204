package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Outcome 分析结果的结算状态
type Outcome string

// 结算状态常量
const (
	OutcomePending Outcome = "pending" // 待定（新建分析的默认状态）
	OutcomeWin     Outcome = "win"     // 赢
	OutcomeLoss    Outcome = "loss"    // 输
	OutcomePush    Outcome = "push"    // 走水（退还本金）
)

// OutcomeFilterAll 历史筛选时表示不过滤
const OutcomeFilterAll = "all"

// DefaultBetType 默认投注类型
const DefaultBetType = "moneyline"

// Outcomes 所有合法的结算状态
var Outcomes = []Outcome{OutcomePending, OutcomeWin, OutcomeLoss, OutcomePush}

// Valid 是否为合法的结算状态
func (o Outcome) Valid() bool {
	for i := range Outcomes {
		if o == Outcomes[i] {
			return true
		}
	}
	return false
}

// Completed 是否已结算（win、loss、push），未知状态视为未结算
func (o Outcome) Completed() bool {
	return o == OutcomeWin || o == OutcomeLoss || o == OutcomePush
}

// EventInfo 赛事描述，原样保存
type EventInfo struct {
	Sport  string `json:"sport"`
	League string `json:"league"`
	Teams  string `json:"teams"`
	Date   string `json:"date,omitempty"`
}

// UnmarshalJSON 兼容旧数据中以字符串保存的赛事描述
func (e *EventInfo) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = EventInfo{Teams: s}
		return nil
	}

	type plain EventInfo
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = EventInfo(p)
	return nil
}

// AnalysisRecord 一次投注分析及其后续结果
type AnalysisRecord struct {
	ID             string            `json:"id"`
	Date           string            `json:"date"` // YYYY-MM-DD
	Event          EventInfo         `json:"event"`
	BetType        string            `json:"betType,omitempty"`
	Recommendation string            `json:"recommendation,omitempty"`
	Confidence     Confidence        `json:"confidence"`
	Outcome        Outcome           `json:"outcome"`
	ROI            ROI               `json:"roi,omitempty"`
	Insights       *AnalysisInsights `json:"insights,omitempty"`
}

// AlternativeBet 备选投注
type AlternativeBet struct {
	Bet        string     `json:"bet"`
	Confidence Confidence `json:"confidence"`
}

// AnalysisInsights 模型返回的结构化分析
type AnalysisInsights struct {
	Summary            string           `json:"summary,omitempty"`
	KeyFactors         []string         `json:"keyFactors,omitempty"`
	Recommendation     string           `json:"recommendation,omitempty"`
	Confidence         Confidence       `json:"confidence,omitempty"`
	AlternativeBets    []AlternativeBet `json:"alternativeBets,omitempty"`
	RisksToConsider    []string         `json:"risksToConsider,omitempty"`
	AdditionalInsights string           `json:"additionalInsights,omitempty"`
	RawAnalysis        string           `json:"rawAnalysis,omitempty"` // 模型输出无法解析为JSON时的原文
}

// AnalysisRequest 分析请求
type AnalysisRequest struct {
	Sport          string `json:"sport"`
	League         string `json:"league"`
	Teams          string `json:"teams"`
	EventDate      string `json:"eventDate"`
	BetType        string `json:"betType"`
	CustomQuestion string `json:"customQuestion"`
}

// MissingFields 返回缺失的必填字段
func (r *AnalysisRequest) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(r.Sport) == "" {
		missing = append(missing, "sport")
	}
	if strings.TrimSpace(r.League) == "" {
		missing = append(missing, "league")
	}
	if strings.TrimSpace(r.Teams) == "" {
		missing = append(missing, "teams")
	}
	return missing
}

// AnalysisResult 分析服务的响应
type AnalysisResult struct {
	Event    EventInfo         `json:"event"`
	BetType  string            `json:"betType,omitempty"`
	Insights *AnalysisInsights `json:"insights"`
}

// ToRecord 转换为待保存的历史记录
func (r *AnalysisResult) ToRecord() AnalysisRecord {
	record := AnalysisRecord{
		Event:    r.Event,
		BetType:  r.BetType,
		Insights: r.Insights,
	}
	if r.Insights != nil {
		record.Recommendation = r.Insights.Recommendation
		record.Confidence = r.Insights.Confidence
	}
	return record
}

// Confidence 置信度，兼容数字和数字字符串
type Confidence float64

// UnmarshalJSON 无法识别的值按0处理
func (c *Confidence) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*c = Confidence(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*c = Confidence(f)
			return nil
		}
	}

	*c = 0
	return nil
}

// Clamp 限制在 [0,1]
func (c Confidence) Clamp() Confidence {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// ROI 投资回报，格式宽松（如 "+110"、"-105"、"Even"）
type ROI string

// UnmarshalJSON 兼容数字写法
func (r *ROI) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = ROI(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*r = ROI(n.String())
		return nil
	}

	*r = ""
	return nil
}
