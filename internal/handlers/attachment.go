package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/petermazzocco/go-messenger/internal/messenger"
	"github.com/petermazzocco/go-messenger/internal/metrics"
	"github.com/petermazzocco/go-messenger/models"
	"go.uber.org/zap"
)

const maxMemory = 32 << 20

// UploadAttachmentHandler accepts either a multipart form with a "file" part
// and an optional "type" field, or a JSON attachment with a base64 file.
// Without a type the uploaded file's extension is used.
func UploadAttachmentHandler(w http.ResponseWriter, r *http.Request, attachments messenger.AttachmentRepository, log *zap.Logger) {
	var candidate models.Attachment
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if !readMultipart(w, r, &candidate, log) {
			return
		}
	} else if !decode(w, r, &candidate) {
		return
	}

	attachment, err := attachments.Create(r.Context(), &candidate)
	if err != nil {
		writeError(w, log, err)
		return
	}
	metrics.EntityCreated("attachment")

	// The uploader already has the payload.
	resp := *attachment
	resp.File = nil
	writeJSON(w, http.StatusCreated, resp)
}

func readMultipart(w http.ResponseWriter, r *http.Request, candidate *models.Attachment, log *zap.Logger) bool {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error("failed to read uploaded file", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Failed to read file")
		return false
	}
	candidate.File = data
	candidate.Type = r.FormValue("type")
	if candidate.Type == "" {
		candidate.Type = strings.TrimPrefix(filepath.Ext(header.Filename), ".")
	}
	return true
}

func GetAttachmentHandler(w http.ResponseWriter, r *http.Request, attachments messenger.AttachmentRepository, log *zap.Logger) {
	id, ok := urlID(w, r, "attachmentID")
	if !ok {
		return
	}

	attachment, err := attachments.Get(r.Context(), id)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, attachment)
}

func DeleteAttachmentHandler(w http.ResponseWriter, r *http.Request, attachments messenger.AttachmentRepository, log *zap.Logger) {
	id, ok := urlID(w, r, "attachmentID")
	if !ok {
		return
	}

	if err := attachments.Delete(r.Context(), id); err != nil {
		writeError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
