package extractors

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
)

var (
	errEmptyValue = errors.New("пустое значение")
	hashtagRe     = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

	// Запятая допустима только как разделитель групп по три цифры: 1,234 или 12,345.6
	thousandsRe = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)
)

// parseDate разбирает дату, перебирая допустимые форматы по порядку
func parseDate(raw string, layouts []string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errEmptyValue
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.TruncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("дата не соответствует форматам %s", strings.Join(layouts, ", "))
}

// parseNumber разбирает число: убирает знак процента, неразрывные пробелы и разделители тысяч
func parseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0, errEmptyValue
	}
	if strings.Contains(s, ",") {
		if !thousandsRe.MatchString(s) {
			return 0, fmt.Errorf("не число")
		}
		s = strings.ReplaceAll(s, ",", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("не число")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("недопустимое число")
	}
	return f, nil
}

// isBlank сообщает, что ячейка пуста (пустые ячейки числовых колонок не являются ошибкой)
func isBlank(raw string) bool {
	return strings.TrimSpace(strings.ReplaceAll(raw, "\u00a0", "")) == ""
}

// parseBool разбирает логическое значение: true/false, 1/0, yes/no
func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	case "":
		return false, errEmptyValue
	default:
		return false, fmt.Errorf("ожидается true/false/1/0/yes/no")
	}
}

// extractHashtags собирает хэштеги из текста, убирая повторы без учета регистра
func extractHashtags(texts ...string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, text := range texts {
		for _, tag := range hashtagRe.FindAllString(text, -1) {
			key := models.NormalizeHashtag(tag)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// cell возвращает значение ячейки или пустую строку, если колонки нет в строке
func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

func isEmptyRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
