// routes/dashboard_handlers.go
package routes

import (
	"encoding/json"
	"net/http"

	"github.com/LilVoxy/linkedin_analytics/ETL/load"
	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/ETL/pipeline"
)

// BoostedResponse структура ответа API для конфигурации продвижения
type BoostedResponse struct {
	Entries []models.BoostedConfigEntry `json:"entries"`
}

// DashboardHandler пересчитывает дашборд сессии по параметрам фильтра
func DashboardHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromRequest(deps, w, r)
		if !ok {
			return
		}

		criteria, err := criteriaFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		dashboard, err := deps.Pipeline.ComputeSession(pipeline.TriggerHTTP, sess, criteria)
		if err != nil {
			deps.Logger.Error("❌ Ошибка при расчете дашборда: %v", err)
			writeError(w, statusFor(err), err.Error())
			return
		}

		if err := writeJSON(w, http.StatusOK, dashboard); err != nil {
			deps.Logger.Error("❌ Ошибка при кодировании JSON: %v", err)
			return
		}
		deps.Logger.Debug("✅ Отправлен дашборд сессии %s: публикаций=%d", sess.ID, len(dashboard.Posts))
	}
}

// PostsCSVHandler выгружает отфильтрованные публикации с колонками флагов
func PostsCSVHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromRequest(deps, w, r)
		if !ok {
			return
		}

		criteria, err := criteriaFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		dashboard, err := deps.Pipeline.ComputeSession(pipeline.TriggerExport, sess, criteria)
		if err != nil {
			deps.Logger.Error("❌ Ошибка при расчете выгрузки: %v", err)
			writeError(w, statusFor(err), err.Error())
			return
		}

		setCSVHeaders(w, "linkedin_posts.csv")
		if err := load.WritePostsCSV(w, dashboard.Posts, dashboard.PostFlags, deps.Pipeline.TrackedMetrics()); err != nil {
			deps.Logger.Error("❌ Ошибка при записи CSV: %v", err)
			return
		}
		deps.Logger.Info("✅ Выгружено %d публикаций сессии %s", len(dashboard.Posts), sess.ID)
	}
}

// BoostedTemplateHandler возвращает редактируемую таблицу продвижения в JSON
func BoostedTemplateHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromRequest(deps, w, r)
		if !ok {
			return
		}
		entries := deps.Pipeline.BoostedTemplate(sess)
		if entries == nil {
			entries = []models.BoostedConfigEntry{}
		}
		writeJSON(w, http.StatusOK, BoostedResponse{Entries: entries})
	}
}

// BoostedConfigCSVHandler выгружает таблицу продвижения в формате boosted_config.csv
func BoostedConfigCSVHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromRequest(deps, w, r)
		if !ok {
			return
		}

		setCSVHeaders(w, "boosted_config.csv")
		if err := load.WriteBoostedConfigCSV(w, deps.Pipeline.BoostedTemplate(sess)); err != nil {
			deps.Logger.Error("❌ Ошибка при записи CSV: %v", err)
		}
	}
}

// SaveBoostedHandler заменяет конфигурацию продвижения сессии. Тело: [{"title":...,"boosted":...}]
func SaveBoostedHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromRequest(deps, w, r)
		if !ok {
			return
		}

		var entries []models.BoostedConfigEntry
		if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
			writeError(w, http.StatusBadRequest, "Неверный формат JSON: "+err.Error())
			return
		}

		if err := deps.Pipeline.SaveBoosted(r.Context(), sess, entries); err != nil {
			if statusFor(err) == http.StatusBadRequest {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			// Таблица сессии уже обновлена, не удалось только сохранение в хранилище
			deps.Logger.Error("❌ Ошибка при сохранении конфигурации продвижения: %v", err)
		}

		if deps.WS != nil {
			deps.WS.NotifySession(sess.ID, models.TableBoostedConfig)
		}
		saved := sess.Tables().Boosted
		if saved == nil {
			saved = []models.BoostedConfigEntry{}
		}
		writeJSON(w, http.StatusOK, BoostedResponse{Entries: saved})
		deps.Logger.Info("✅ Сохранено %d отметок продвижения для сессии %s", len(entries), sess.ID)
	}
}

func setCSVHeaders(w http.ResponseWriter, fileName string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
}
