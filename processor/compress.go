package processor

import (
	"fmt"

	"github.com/golang/snappy"
)

// MaxPayloadSize ограничивает размер распакованного файла из архива загрузок
const MaxPayloadSize = 256 << 20

// CompressPayload сжимает исходный файл загрузки перед сохранением в журнал
func CompressPayload(data []byte) []byte {
	return snappy.Encode(nil, data)
}

// DecompressPayload восстанавливает исходный файл из архива
func DecompressPayload(data []byte) ([]byte, error) {
	n, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("поврежденный архив загрузки: %w", err)
	}
	if n > MaxPayloadSize {
		return nil, fmt.Errorf("размер архива загрузки %d превышает допустимый %d", n, MaxPayloadSize)
	}

	decompressed, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки архива загрузки: %w", err)
	}
	return decompressed, nil
}
