package database

import (
	"testing"

	"betting_assistant/pkg/config"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		MySQLUser:     "bet",
		MySQLPassword: "secret",
		MySQLHost:     "db.local",
		MySQLPort:     "3307",
		MySQLDB:       "history",
	}

	assert.Equal(t, "bet:secret@tcp(db.local:3307)/history?charset=utf8mb4&parseTime=True&loc=Local", DSN(cfg))
}

func TestKVSlotTableName(t *testing.T) {
	assert.Equal(t, "kv_slots", KVSlot{}.TableName())
}
