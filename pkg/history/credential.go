package history

import (
	"context"
	"errors"
	"strings"

	"betting_assistant/pkg/errs"
	"betting_assistant/pkg/storage"

	"github.com/sirupsen/logrus"
)

// DefaultCredentialPrefix OpenAI 密钥前缀
const DefaultCredentialPrefix = "sk-"

// GetCredential 读取保存的API密钥
func (s *Store) GetCredential(ctx context.Context) (string, bool) {
	if s.kv == nil {
		return "", false
	}

	value, err := s.kv.Get(ctx, s.credentialKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logrus.Warnf("读取API密钥失败: %v", err)
		}
		return "", false
	}

	value = strings.TrimSpace(value)
	return value, value != ""
}

// SetCredential 保存API密钥，prefix 为空时不校验前缀
func (s *Store) SetCredential(ctx context.Context, value, prefix string) error {
	value = strings.TrimSpace(value)
	if value == "" || (prefix != "" && !strings.HasPrefix(value, prefix)) {
		return errs.NewValidation("Please enter a valid OpenAI API key (should start with "+prefix+")", "apiKey")
	}
	if s.kv == nil {
		return errs.NewStorageUnavailable("credential storage is not attached", nil)
	}

	if err := s.kv.Set(ctx, s.credentialKey, value); err != nil {
		return errs.NewStorageUnavailable("failed to save API key", err)
	}

	logrus.WithField("key", MaskCredential(value)).Info("API密钥已保存")
	return nil
}

// ClearCredential 删除API密钥
func (s *Store) ClearCredential(ctx context.Context) error {
	if s.kv == nil {
		return errs.NewStorageUnavailable("credential storage is not attached", nil)
	}
	if err := s.kv.Delete(ctx, s.credentialKey); err != nil {
		return errs.NewStorageUnavailable("failed to clear API key", err)
	}

	logrus.Info("API密钥已清除")
	return nil
}

// MaskCredential 只保留前缀和后4位
func MaskCredential(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}

	head := value[:3]
	tail := value[len(value)-4:]
	return head + strings.Repeat("*", len(value)-7) + tail
}
