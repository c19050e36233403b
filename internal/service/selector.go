// Пакет service — бизнес-логика Daily Verse Service:
// детерминированный выбор стиха дня, resolver, generation pipeline,
// сборка payload и memo-кэш.
package service

import (
	"crypto/sha256"
	"encoding/binary"
)

// Select возвращает детерминированный индекс в [0, population)
// для пары (day_key, версия). SHA-256 от "day_key|версия",
// первые 64 бита дайджеста по модулю популяции.
//
// Чистая и тотальная функция: одинаковый вход даёт одинаковый индекс
// в любом процессе и после любого рестарта, поэтому стих дня
// воспроизводим без какого-либо сохраняемого состояния. Разные версии
// одного дня дают независимые индексы.
//
// population <= 0 не приводит к панике (модуль защитно ограничен 1),
// но вызывающий код обязан отклонить пустую популяцию до вызова.
func Select(dayKey, versionID string, population int) int {
	sum := sha256.Sum256([]byte(dayKey + "|" + versionID))

	// Первые 8 байт дайджеста = первые 16 hex-символов
	prefix := binary.BigEndian.Uint64(sum[:8])

	mod := population
	if mod < 1 {
		mod = 1
	}
	return int(prefix % uint64(mod))
}
