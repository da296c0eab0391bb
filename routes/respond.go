// routes/respond.go
package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/LilVoxy/linkedin_analytics/ETL/load"
	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/session"
)

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// statusFor сопоставляет ошибку с HTTP-статусом
func statusFor(err error) int {
	var formatErr *models.FormatError
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, load.ErrUploadNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidCriteria), errors.As(err, &formatErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// sessionFromRequest находит сессию по параметру маршрута {id}
func sessionFromRequest(deps Dependencies, w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := deps.Store.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return nil, false
	}
	return sess, true
}

// criteriaFromQuery разбирает параметры фильтра: start, end, hashtag (повторяемый), bucket
func criteriaFromQuery(r *http.Request) (models.FilterCriteria, error) {
	query := r.URL.Query()
	return models.ParseCriteria(query.Get("start"), query.Get("end"), query["hashtag"], query.Get("bucket"))
}
