// routes/session_handlers.go
package routes

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
)

// SessionResponse структура ответа API при создании сессии
type SessionResponse struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	BoostedEntries int       `json:"boostedEntries"`
}

// UploadsResponse структура ответа API для журнала загрузок
type UploadsResponse struct {
	Uploads []models.UploadLog `json:"uploads"`
}

// CreateSessionHandler создает новую сессию и подставляет сохраненную конфигурацию продвижения
func CreateSessionHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := deps.Store.Create()

		if err := deps.Pipeline.SeedBoosted(r.Context(), sess); err != nil {
			// Сессия остается рабочей и без сохраненных отметок
			deps.Logger.Warn("❌ Не удалось загрузить сохраненную конфигурацию продвижения: %v", err)
		}

		writeJSON(w, http.StatusCreated, SessionResponse{
			ID:             sess.ID,
			CreatedAt:      sess.CreatedAt,
			BoostedEntries: len(sess.Tables().Boosted),
		})
		deps.Logger.Info("✅ Создана сессия %s", sess.ID)
	}
}

// DeleteSessionHandler удаляет сессию вместе с загруженными таблицами
func DeleteSessionHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if err := deps.Store.Delete(id); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
		deps.Logger.Info("✅ Сессия %s удалена", id)
	}
}

// UploadsHandler возвращает журнал загрузок сессии (пустой, если хранилище отключено)
func UploadsHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromRequest(deps, w, r)
		if !ok {
			return
		}

		uploads, err := deps.Pipeline.SessionUploads(r.Context(), sess)
		if err != nil {
			deps.Logger.Error("❌ Ошибка при запросе журнала загрузок: %v", err)
			writeError(w, http.StatusInternalServerError, "Ошибка при запросе журнала загрузок")
			return
		}
		if uploads == nil {
			uploads = []models.UploadLog{}
		}
		writeJSON(w, http.StatusOK, UploadsResponse{Uploads: uploads})
	}
}

// UploadFileHandler отдает исходный файл из журнала загрузок сессии
func UploadFileHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromRequest(deps, w, r)
		if !ok {
			return
		}

		uploadID, err := strconv.ParseInt(mux.Vars(r)["uploadID"], 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Некорректный идентификатор загрузки")
			return
		}

		file, err := deps.Pipeline.UploadFile(r.Context(), sess, uploadID)
		if err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				deps.Logger.Error("❌ Ошибка при чтении файла загрузки %d: %v", uploadID, err)
			}
			writeError(w, status, err.Error())
			return
		}

		setCSVHeaders(w, strings.ReplaceAll(filepath.Base(file.FileName), `"`, ""))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(file.Data); err != nil {
			deps.Logger.Error("❌ Ошибка при отправке файла загрузки %d: %v", uploadID, err)
		}
	}
}
