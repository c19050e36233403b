// store.go — хранилища кэша клиентского контроллера.
// Одно хранилище на поколение; записи полностью заменяются, частичных
// обновлений нет. Вытеснение выполняется только целиком — удалением
// хранилища устаревшего поколения на activate.
package offline

import (
	"net/http"
	"sync"
)

// RequestKey — ключ записи кэша: метод и нормализованный URL запроса.
type RequestKey struct {
	Method string
	URL    string
}

// Response — минимальное представление ответа, достаточное для кэша:
// статус, заголовки, тело.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Clone возвращает независимую копию ответа для помещения в кэш:
// вызывающий код может свободно изменять оригинал.
func (r *Response) Clone() *Response {
	cp := &Response{
		Status: r.Status,
		Header: r.Header.Clone(),
		Body:   make([]byte, len(r.Body)),
	}
	copy(cp.Body, r.Body)
	return cp
}

// Store — хранилище кэша одного поколения.
type Store interface {
	// Match возвращает кэшированный ответ по ключу.
	Match(key RequestKey) (*Response, bool)
	// Put полностью заменяет запись по ключу.
	Put(key RequestKey, resp *Response)
}

// CacheHost — пространство имён хранилищ по поколениям.
// Контроллер перечисляет и удаляет хранилища целиком при activate.
type CacheHost interface {
	// Open открывает (создавая при необходимости) хранилище поколения.
	Open(generation string) (Store, error)
	// Delete удаляет хранилище поколения со всем содержимым.
	Delete(generation string) error
	// Names возвращает имена всех существующих хранилищ.
	Names() ([]string, error)
}

// memStore — in-memory реализация Store.
// Не LRU: записи precache обязаны жить до смены поколения,
// автоматическое вытеснение нарушило бы offline-гарантию.
type memStore struct {
	mu      sync.RWMutex
	entries map[RequestKey]*Response
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[RequestKey]*Response)}
}

// Match возвращает копию кэшированного ответа.
func (s *memStore) Match(key RequestKey) (*Response, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return resp.Clone(), true
}

// Put сохраняет копию ответа (полная замена записи).
func (s *memStore) Put(key RequestKey, resp *Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = resp.Clone()
}

// MemHost — in-memory реализация CacheHost.
type MemHost struct {
	mu     sync.Mutex
	stores map[string]*memStore
}

// NewMemHost создаёт пустое пространство имён хранилищ.
func NewMemHost() *MemHost {
	return &MemHost{stores: make(map[string]*memStore)}
}

// Open открывает хранилище поколения, создавая его при необходимости.
func (h *MemHost) Open(generation string) (Store, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	store, ok := h.stores[generation]
	if !ok {
		store = newMemStore()
		h.stores[generation] = store
	}
	return store, nil
}

// Delete удаляет хранилище поколения.
func (h *MemHost) Delete(generation string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.stores, generation)
	return nil
}

// Names возвращает имена всех хранилищ.
func (h *MemHost) Names() ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.stores))
	for name := range h.stores {
		names = append(names, name)
	}
	return names, nil
}
