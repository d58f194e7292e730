package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"mnemosyne-server/internal/domain"
	"mnemosyne-server/internal/middleware"
	"mnemosyne-server/internal/service"
	"mnemosyne-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

const maxUploadBytes = 32 << 20

type ItemHandler struct {
	sessions *service.SessionService
}

func NewItemHandler(sessions *service.SessionService) *ItemHandler {
	return &ItemHandler{
		sessions: sessions,
	}
}

func (h *ItemHandler) storage(w http.ResponseWriter, r *http.Request) *service.StorageService {
	login := middleware.GetUserID(r)
	if login == "" {
		response.Unauthorized(w, "unauthorized")
		return nil
	}

	session, err := h.sessions.Get(login)
	if err != nil {
		response.Unauthorized(w, "session expired, please login again")
		return nil
	}

	return session.Storage
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	storage := h.storage(w, r)
	if storage == nil {
		return
	}

	response.Success(w, storage.GetItems())
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	storage := h.storage(w, r)
	if storage == nil {
		return
	}

	var req domain.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	item, err := storage.Create(&req)
	if err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.Created(w, item)
}

// CreateImage captures an image item in one call: multipart upload of
// the asset, then the referencing item.
func (h *ItemHandler) CreateImage(w http.ResponseWriter, r *http.Request) {
	storage := h.storage(w, r)
	if storage == nil {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.BadRequest(w, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "missing file field")
		return
	}
	defer file.Close()

	req := &domain.CreateItemRequest{
		Type:    domain.ItemTypeImage,
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
	}
	if tags := r.FormValue("tags"); tags != "" {
		req.Tags = strings.Split(tags, ",")
	}

	item, err := storage.CreateImage(req, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.Created(w, item)
}
