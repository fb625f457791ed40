package sync

import (
	"encoding/json"
	"strconv"
	"time"

	"cashcraft/internal/domain/ledger"
)

// Stored снимок пользователя в хранилище сервера
type Stored struct {
	UserID int
	// Data сериализованный ledger.Snapshot
	Data       json.RawMessage
	Version    int64
	LastSyncAt time.Time
}

// Token непрозрачный syncToken: номер версии снимка
func (s *Stored) Token() string {
	if s == nil || s.Version == 0 {
		return ""
	}
	return strconv.FormatInt(s.Version, 10)
}

// UploadResult ответ на загрузку изменений
type UploadResult struct {
	LastSyncAt ledger.Timestamp   `json:"lastSyncAt"`
	SyncToken  string             `json:"syncToken"`
	Accepted   int                `json:"accepted"`
	Rejected   []ledger.Rejection `json:"rejected,omitempty"`
}

// DownloadResult полный снимок пользователя
type DownloadResult struct {
	Data       json.RawMessage  `json:"data"`
	LastSyncAt ledger.Timestamp `json:"lastSyncAt"`
	SyncToken  string           `json:"syncToken,omitempty"`
}
