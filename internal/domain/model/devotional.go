// Пакет model — доменные модели Daily Verse Service.
// Все типы read-only для сервиса: хранилище стихов принадлежит
// внешнему инструменту разметки (dailyverse-import).
package model

// ContentRecord — одна запись контента из хранилища версии.
// Соответствует строке таблицы verses: книга/глава/стих/текст.
type ContentRecord struct {
	// ContainerID — идентификатор книги (books.id)
	ContainerID int
	// OrdinalMajor — номер главы
	OrdinalMajor int
	// OrdinalMinor — номер стиха внутри главы
	OrdinalMinor int
	// Body — текст стиха
	Body string
}

// DailySelection — канонический «стих дня» для пары (дата, версия).
// Создаётся заново при каждом разрешении, никогда не сохраняется:
// повторное вычисление идемпотентно для той же тройки
// (day_key, версия, размер популяции).
type DailySelection struct {
	// DayKey — календарная дата UTC в формате YYYY-MM-DD
	DayKey string
	// Reference — человекочитаемая ссылка «Имя глава:стих»
	Reference string
	// Body — текст стиха
	Body string
	// ContainerID — идентификатор книги
	ContainerID int
	// OrdinalMajor — номер главы
	OrdinalMajor int
	// OrdinalMinor — номер стиха
	OrdinalMinor int
}

// Starters — четыре коротких поля направляемого размышления,
// сопровождающие тему дня.
type Starters struct {
	Context     string `json:"context"`
	Reflection  string `json:"reflection"`
	Application string `json:"application"`
	Prayer      string `json:"prayer"`
}

// GenerationResult — результат обогащения стиха дня.
// Производится либо парсингом ответа внешнего генератора, либо
// статической fallback-таблицей. Инвариант: Theme всегда непустая,
// все четыре поля Starters всегда присутствуют.
type GenerationResult struct {
	Theme    string
	Starters Starters
}

// Payload — внешне видимый ответ GET /devotional.
type Payload struct {
	OK        bool     `json:"ok"`
	Day       string   `json:"day"`
	Language  string   `json:"lang"`
	VersionID string   `json:"version"`
	Theme     string   `json:"theme"`
	Reference string   `json:"reference"`
	Scripture string   `json:"scripture"`
	Starters  Starters `json:"starters"`
}
