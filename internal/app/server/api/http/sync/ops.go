package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

var bearer = []map[string][]string{{"bearer": {}}}

func (h *Handler) uploadOp() huma.Operation {
	return huma.Operation{
		OperationID:  "sync-upload",
		Method:       http.MethodPost,
		Path:         "/api/v1/sync/upload",
		Summary:      "Загрузка локальных изменений",
		Tags:         []string{"sync"},
		MaxBodyBytes: h.maxBodyBytes,
		Errors:       []int{http.StatusBadRequest, http.StatusUnauthorized},
		Security:     bearer,
		Middlewares:  h.middleware,
	}
}

func (h *Handler) downloadOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-download",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/download",
		Summary:     "Полный снимок пользователя",
		Tags:        []string{"sync"},
		Errors:      []int{http.StatusUnauthorized},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) wipeOp() huma.Operation {
	return huma.Operation{
		OperationID:   "sync-wipe",
		Method:        http.MethodDelete,
		Path:          "/api/v1/sync/data",
		Summary:       "Удаление всех данных пользователя",
		Tags:          []string{"sync"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusUnauthorized},
		Security:      bearer,
		Middlewares:   h.middleware,
	}
}
