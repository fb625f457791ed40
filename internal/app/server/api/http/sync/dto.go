package sync

import (
	"encoding/json"
	"time"

	"cashcraft/internal/domain/ledger"
)

// uploadInput тело читается как есть: форму снимка проверяет ledger.DecodeEnvelope
type uploadInput struct {
	RawBody []byte `contentType:"application/json"`
}

type uploadOutput struct {
	Body UploadResponse
}

type UploadResponse struct {
	LastSyncAt *time.Time         `json:"lastSyncAt" doc:"Server watermark after merge"`
	SyncToken  string             `json:"syncToken" doc:"Opaque snapshot version"`
	Accepted   int                `json:"accepted" doc:"Records merged"`
	Rejected   []ledger.Rejection `json:"rejected,omitempty" doc:"Records skipped by validation"`
}

type downloadOutput struct {
	Body DownloadResponse
}

type DownloadResponse struct {
	Data       json.RawMessage `json:"data" doc:"Full snapshot"`
	LastSyncAt *time.Time      `json:"lastSyncAt" doc:"Null when nothing was uploaded"`
	SyncToken  string          `json:"syncToken,omitempty"`
}

func watermark(ts ledger.Timestamp) *time.Time {
	if ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}
