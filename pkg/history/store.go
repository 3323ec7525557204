package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"betting_assistant/models"
	"betting_assistant/pkg/errs"
	"betting_assistant/pkg/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// 默认槽位
const (
	DefaultHistoryKey    = "betting_history"
	DefaultCredentialKey = "openai_api_key"

	DateLayout = "2006-01-02"
	idPrefix   = "analysis_"
)

var errCorruptHistory = errors.New("history content is corrupt")

// Store 分析历史和API密钥的持久化。
// 每次操作都整体读写一个槽位；同一进程内的读改写由互斥锁串行化。
type Store struct {
	kv            storage.KV
	historyKey    string
	credentialKey string
	now           func() time.Time
	newID         func() string

	mu sync.Mutex
}

// Option Store 配置项
type Option func(*Store)

// WithHistoryKey 设置历史记录槽位
func WithHistoryKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.historyKey = key
		}
	}
}

// WithCredentialKey 设置API密钥槽位
func WithCredentialKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.credentialKey = key
		}
	}
}

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator 替换ID生成器
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// NewStore 创建历史存储，kv 为 nil 时读返回空、写返回 StorageUnavailable
func NewStore(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:            kv,
		historyKey:    DefaultHistoryKey,
		credentialKey: DefaultCredentialKey,
		now:           time.Now,
		newID:         NewAnalysisID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewAnalysisID 基于 UUIDv7（毫秒时间戳 + 单调序列）生成记录ID
func NewAnalysisID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// 随机源不可用时退回纳秒时间戳
		return fmt.Sprintf("%s%d", idPrefix, time.Now().UnixNano())
	}
	return idPrefix + id.String()
}

// Load 读取全部历史记录，任何错误都返回空列表
func (s *Store) Load(ctx context.Context) []models.AnalysisRecord {
	records, err := s.read(ctx)
	if err != nil {
		logrus.WithField("key", s.historyKey).Warnf("读取分析历史失败，按空历史处理: %v", err)
		return []models.AnalysisRecord{}
	}
	return records
}

// Find 按ID查找记录
func (s *Store) Find(ctx context.Context, id string) (models.AnalysisRecord, bool) {
	records := s.Load(ctx)
	for i := range records {
		if records[i].ID == id {
			return records[i], true
		}
	}
	return models.AnalysisRecord{}, false
}

// Append 新建一条分析记录并插入到最前面
func (s *Store) Append(ctx context.Context, candidate models.AnalysisRecord) (models.AnalysisRecord, error) {
	if s.kv == nil {
		return models.AnalysisRecord{}, errs.NewStorageUnavailable("history storage is not attached", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readRaw(ctx)
	if err != nil {
		if !errors.Is(err, errCorruptHistory) {
			return models.AnalysisRecord{}, errs.NewStorageUnavailable("failed to read analysis history", err)
		}
		logrus.WithField("key", s.historyKey).Warnf("分析历史已损坏，将重新开始记录: %v", err)
		items = []json.RawMessage{}
	}

	record := candidate
	record.ID = s.newID()
	record.Date = s.now().UTC().Format(DateLayout)
	record.Outcome = models.OutcomePending
	if record.Insights != nil {
		if record.Recommendation == "" {
			record.Recommendation = record.Insights.Recommendation
		}
		if record.Confidence == 0 {
			record.Confidence = record.Insights.Confidence
		}
	}

	for i := range items {
		if id, ok := elementID(items[i]); ok && id == record.ID {
			logrus.WithField("id", record.ID).Error("生成的分析ID与已有记录冲突")
			return models.AnalysisRecord{}, errs.NewDuplicateID(record.ID)
		}
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return models.AnalysisRecord{}, fmt.Errorf("序列化分析记录失败: %w", err)
	}

	// 已有元素原样保留，新记录放在最前面
	updated := make([]json.RawMessage, 0, len(items)+1)
	updated = append(updated, encoded)
	updated = append(updated, items...)

	if err := s.write(ctx, updated); err != nil {
		return models.AnalysisRecord{}, errs.NewStorageUnavailable("failed to save analysis", err)
	}

	logrus.WithFields(logrus.Fields{
		"id":    record.ID,
		"teams": record.Event.Teams,
		"total": len(updated),
	}).Info("分析已保存")

	return record, nil
}

// UpdateOutcome 更新记录的结算状态和回报，只有写入成功才返回 true
func (s *Store) UpdateOutcome(ctx context.Context, id string, outcome models.Outcome, roi models.ROI) bool {
	if s.kv == nil {
		logrus.Warn("历史存储未挂载，无法更新结果")
		return false
	}
	if !outcome.Valid() {
		logrus.WithFields(logrus.Fields{"id": id, "outcome": outcome}).Warn("非法的结算状态")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readRaw(ctx)
	if err != nil {
		logrus.WithField("id", id).Warnf("读取分析历史失败: %v", err)
		return false
	}

	outcomeJSON, _ := json.Marshal(outcome)
	roiJSON, _ := json.Marshal(string(roi))

	matched := 0
	for i := range items {
		if elemID, ok := elementID(items[i]); !ok || elemID != id {
			continue
		}
		// 只替换 outcome 和 roi，其余字段（包括未知字段）保持原样
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(items[i], &fields); err != nil {
			continue
		}
		fields["outcome"] = outcomeJSON
		fields["roi"] = roiJSON
		patched, err := json.Marshal(fields)
		if err != nil {
			continue
		}
		items[i] = patched
		matched++
	}
	if matched == 0 {
		logrus.WithField("id", id).Warn("未找到要更新的分析")
		return false
	}

	if err := s.write(ctx, items); err != nil {
		logrus.WithField("id", id).Errorf("更新分析结果失败: %v", err)
		return false
	}

	logrus.WithFields(logrus.Fields{
		"id":      id,
		"outcome": outcome,
		"roi":     roi,
	}).Info("分析结果已更新")

	return true
}

// read 读取并解码历史；单条损坏的记录会被跳过
func (s *Store) read(ctx context.Context) ([]models.AnalysisRecord, error) {
	items, err := s.readRaw(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]models.AnalysisRecord, 0, len(items))
	for i := range items {
		if string(bytes.TrimSpace(items[i])) == "null" {
			continue
		}
		var record models.AnalysisRecord
		if err := json.Unmarshal(items[i], &record); err != nil {
			logrus.WithField("index", i).Warnf("跳过无法解析的历史记录: %v", err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// readRaw 读取历史数组，元素保持原始字节，供读改写使用
func (s *Store) readRaw(ctx context.Context) ([]json.RawMessage, error) {
	if s.kv == nil {
		return nil, errors.New("history storage is not attached")
	}

	raw, err := s.kv.Get(ctx, s.historyKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []json.RawMessage{}, nil
		}
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return []json.RawMessage{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptHistory, err)
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}

// elementID 取出元素的字符串 id，非对象或 id 不是字符串时返回 false
func elementID(item json.RawMessage) (string, bool) {
	var head struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(item, &head); err != nil || len(head.ID) == 0 {
		return "", false
	}
	var id string
	if err := json.Unmarshal(head.ID, &id); err != nil {
		return "", false
	}
	return id, true
}

func (s *Store) write(ctx context.Context, items []json.RawMessage) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("序列化历史数据失败: %w", err)
	}
	return s.kv.Set(ctx, s.historyKey, string(data))
}
