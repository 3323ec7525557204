package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"betting_assistant/pkg/config"
	"betting_assistant/pkg/storage"

	"github.com/sirupsen/logrus"
)

// KVSlot 对应 MySQL 中的 kv_slots 表，每行保存一个完整槽位
type KVSlot struct {
	Key       string    `gorm:"column:slot_key;primaryKey;size:191"`
	Value     string    `gorm:"column:slot_value;type:longtext"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName 表名
func (KVSlot) TableName() string {
	return "kv_slots"
}

// Store 基于 gorm 的槽位存储，实现 storage.KV
type Store struct {
	db *gorm.DB
}

var DB *gorm.DB

// DSN 拼接 MySQL 连接串
func DSN(cfg *config.Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.MySQLUser,
		cfg.MySQLPassword,
		cfg.MySQLHost,
		cfg.MySQLPort,
		cfg.MySQLDB,
	)
}

// InitMySQL 连接 MySQL 并迁移 kv_slots 表
func InitMySQL(cfg *config.Config) (*Store, error) {
	logLevel := logger.Warn
	if cfg.LogLevel == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(DSN(cfg)), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("mysql连接失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库实例失败: %w", err)
	}

	// 连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&KVSlot{}); err != nil {
		return nil, fmt.Errorf("迁移kv_slots失败: %w", err)
	}

	DB = db
	logrus.Info("MySQL连接成功")
	return NewStore(db), nil
}

// NewStore 使用已有连接创建槽位存储
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get 读取槽位
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var slot KVSlot
	err := s.db.WithContext(ctx).Where("slot_key = ?", key).Take(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", storage.ErrNotFound
		}
		return "", err
	}
	return slot.Value, nil
}

// Set 整体覆盖槽位
func (s *Store) Set(ctx context.Context, key, value string) error {
	slot := KVSlot{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"slot_value", "updated_at"}),
	}).Create(&slot).Error
}

// Delete 删除槽位，不存在时不报错
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("slot_key = ?", key).Delete(&KVSlot{}).Error
}

// Close 关闭连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// 编译期检查
var _ storage.KV = (*Store)(nil)
