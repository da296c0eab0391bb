package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCriteria возвращается при некорректных параметрах фильтра
var ErrInvalidCriteria = errors.New("некорректные параметры фильтра")

// FormatError сообщает, что файл не удалось распознать или в нем нет обязательных колонок.
// Загрузка такого файла прерывается, остальные таблицы остаются доступны.
type FormatError struct {
	FileName string
	Kind     TableKind
	Missing  []string
	Reason   string
}

func (e *FormatError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("неверный формат файла %q (%s): отсутствуют колонки: %s",
			e.FileName, e.Kind, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("неверный формат файла %q: %s", e.FileName, e.Reason)
}

// ParseError описывает ячейку, которую не удалось разобрать.
// Строка или ячейка пропускается, загрузка продолжается.
type ParseError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Value   string `json:"value"`
	Skipped string `json:"skipped"` // "row" или "cell"
	Err     error  `json:"-"`
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("строка %d, колонка %q: не удалось разобрать %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Message возвращает текст предупреждения для пользователя
func (e *ParseError) Message() string {
	return e.Error()
}
