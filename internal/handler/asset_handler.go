package handler

import (
	"net/http"

	"mnemosyne-server/internal/middleware"
	"mnemosyne-server/internal/service"
	"mnemosyne-server/pkg/response"

	"github.com/gorilla/mux"
)

type AssetHandler struct {
	sessions *service.SessionService
}

func NewAssetHandler(sessions *service.SessionService) *AssetHandler {
	return &AssetHandler{
		sessions: sessions,
	}
}

func (h *AssetHandler) storage(w http.ResponseWriter, r *http.Request) *service.StorageService {
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

// Upload stores a binary asset and returns its remote path. The path
// goes into the image field of the item saved afterwards.
func (h *AssetHandler) Upload(w http.ResponseWriter, r *http.Request) {
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

	path, err := storage.UploadAsset(header.Filename, file)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.Created(w, map[string]string{
		"path":        path,
		"contentType": header.Header.Get("Content-Type"),
	})
}

// Get returns the base64 content of a stored asset, or 404 so the
// caller can render a fallback.
func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	storage := h.storage(w, r)
	if storage == nil {
		return
	}

	path := "assets/" + mux.Vars(r)["path"]

	content, ok := storage.GetAsset(path)
	if !ok {
		response.NotFound(w, "asset not found")
		return
	}

	response.Success(w, map[string]string{
		"path":    path,
		"content": content,
	})
}
