// routes/file_handlers.go
package routes

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
)

const defaultMaxMemory = 32 << 20

// FileResult результат загрузки одного файла
type FileResult struct {
	FileName string             `json:"fileName"`
	Result   *models.LoadResult `json:"result,omitempty"`
	Error    string             `json:"error,omitempty"`
	Missing  []string           `json:"missing,omitempty"`
}

// UploadResponse структура ответа API на загрузку файлов
type UploadResponse struct {
	Files []FileResult `json:"files"`
}

// UploadFilesHandler принимает multipart-поле files. Каждый файл разбирается независимо:
// ошибка формата одного файла не мешает загрузке остальных.
func UploadFilesHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromRequest(deps, w, r)
		if !ok {
			return
		}

		maxMemory := int64(defaultMaxMemory)
		if deps.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, deps.MaxUploadBytes)
			maxMemory = deps.MaxUploadBytes
		}
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			writeError(w, http.StatusBadRequest, "Некорректный multipart-запрос: "+err.Error())
			return
		}
		defer r.MultipartForm.RemoveAll()
		headers := r.MultipartForm.File["files"]
		if len(headers) == 0 {
			writeError(w, http.StatusBadRequest, "Отсутствует обязательное поле files")
			return
		}

		response := UploadResponse{Files: make([]FileResult, 0, len(headers))}
		for _, header := range headers {
			entry := FileResult{FileName: header.Filename}

			data, err := readPart(header)
			if err != nil {
				entry.Error = err.Error()
				response.Files = append(response.Files, entry)
				continue
			}

			result, err := deps.Pipeline.Ingest(r.Context(), sess, header.Filename, data)
			if err != nil {
				var formatErr *models.FormatError
				if errors.As(err, &formatErr) {
					entry.Missing = formatErr.Missing
				}
				entry.Error = err.Error()
				deps.Logger.Warn("❌ Файл %q не загружен: %v", header.Filename, err)
				response.Files = append(response.Files, entry)
				continue
			}

			entry.Result = result
			response.Files = append(response.Files, entry)
			if deps.WS != nil {
				deps.WS.NotifySession(sess.ID, result.Kind)
			}
			deps.Logger.Info("✅ Файл %q загружен как %s: строк=%d", header.Filename, result.Kind, result.Rows)
		}

		writeJSON(w, http.StatusOK, response)
	}
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
