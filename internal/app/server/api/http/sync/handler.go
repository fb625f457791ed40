package sync

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"cashcraft/internal/app/server/api/http/middleware/auth"
	"cashcraft/internal/domain/ledger"
	"cashcraft/internal/domain/sync"
)

type Handler struct {
	service      sync.Servicer
	log          *slog.Logger
	middleware   huma.Middlewares
	maxBodyBytes int64
}

func NewHandler(service sync.Servicer, log *slog.Logger, mws huma.Middlewares, maxBodyBytes int64) *Handler {
	return &Handler{
		service:      service,
		log:          log,
		middleware:   mws,
		maxBodyBytes: maxBodyBytes,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.uploadOp(), h.upload)
	huma.Register(api, h.downloadOp(), h.download)
	huma.Register(api, h.wipeOp(), h.wipe)
}

func (h *Handler) upload(ctx context.Context, input *uploadInput) (*uploadOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	res, err := h.service.Upload(ctx, userID, input.RawBody)
	if errors.Is(err, ledger.ErrMalformedShape) {
		return nil, huma.Error400BadRequest(err.Error())
	}
	if err != nil {
		h.log.Error("upload", slog.Int("user_id", userID), slog.Any("error", err))
		return nil, huma.Error500InternalServerError("upload failed")
	}

	return &uploadOutput{Body: UploadResponse{
		LastSyncAt: watermark(res.LastSyncAt),
		SyncToken:  res.SyncToken,
		Accepted:   res.Accepted,
		Rejected:   res.Rejected,
	}}, nil
}

func (h *Handler) download(ctx context.Context, _ *struct{}) (*downloadOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	res, err := h.service.Download(ctx, userID)
	if err != nil {
		h.log.Error("download", slog.Int("user_id", userID), slog.Any("error", err))
		return nil, huma.Error500InternalServerError("download failed")
	}

	return &downloadOutput{Body: DownloadResponse{
		Data:       res.Data,
		LastSyncAt: watermark(res.LastSyncAt),
		SyncToken:  res.SyncToken,
	}}, nil
}

func (h *Handler) wipe(ctx context.Context, _ *struct{}) (*struct{}, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if err := h.service.Wipe(ctx, userID); err != nil {
		h.log.Error("wipe", slog.Int("user_id", userID), slog.Any("error", err))
		return nil, huma.Error500InternalServerError("wipe failed")
	}
	return nil, nil
}
