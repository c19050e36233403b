// Пакет offline — клиентский контроллер кэширования.
// Явная машина состояний над поколениями кэша, независимая от
// какого-либо event-loop API хоста: классификация запросов и политика
// network-first / cache-first тестируются без браузероподобной среды.
// Зеркалируется скриптом web/sw.js в браузере.
package offline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики контроллера.
var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dv_offline_fetch_total",
		Help: "Перехваченные запросы контроллера кэша (по классу и исходу).",
	}, []string{"class", "outcome"})

	generationsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dv_offline_generations_evicted_total",
		Help: "Количество хранилищ устаревших поколений, удалённых на activate.",
	})
)

// State — состояние жизненного цикла контроллера.
type State int

const (
	// StateInstalling — хранилище поколения наполняется precache-списком.
	StateInstalling State = iota
	// StateActive — контроллер обслуживает перехват запросов.
	StateActive
	// StateSuperseded — поколение вытеснено более новым.
	StateSuperseded
)

// Request — минимальное представление перехватываемого запроса.
type Request struct {
	Method string
	URL    string
	// Accept — заголовок content negotiation; классификация запроса
	// выполняется по нему, не по префиксу пути.
	Accept string
}

// FetchFunc — сетевой вызов. Любое отклонение (не только таймаут)
// трактуется политикой как отказ сети.
type FetchFunc func(ctx context.Context, req *Request) (*Response, error)

// Precache — фиксированный список путей, наполняемый при install:
// корневой документ, основной скрипт, манифест.
var Precache = []string{"/", "/app.js", "/manifest.webmanifest"}

// Controller — машина состояний клиентского кэша.
// generation — непрозрачный тег поколения, назначаемый при сборке;
// смена тега при деплое вытесняет все прежние кэши.
type Controller struct {
	generation string
	origin     string
	host       CacheHost
	fetch      FetchFunc
	logger     *slog.Logger

	mu    sync.Mutex
	state State
	store Store
	ready bool // install завершён, активация разрешена
}

// NewController создаёт контроллер в состоянии installing.
// origin — собственный origin (схема://хост[:порт]); запросы к другим
// origin не перехватываются.
func NewController(generation, origin string, host CacheHost, fetch FetchFunc, logger *slog.Logger) *Controller {
	return &Controller{
		generation: generation,
		origin:     strings.TrimRight(origin, "/"),
		host:       host,
		fetch:      fetch,
		logger:     logger.With(slog.String("component", "offline_controller")),
		state:      StateInstalling,
	}
}

// Generation возвращает тег текущего поколения.
func (c *Controller) Generation() string {
	return c.generation
}

// StateNow возвращает текущее состояние машины.
func (c *Controller) StateNow() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Install открывает хранилище поколения и наполняет его precache-списком.
// Готовность сигнализируется сразу по завершении наполнения, не дожидаясь
// освобождения контроля прежними экземплярами (eager activation policy).
// До возврата Install ни один fetch не обслуживается против
// полунаполненного кэша: состояние остаётся installing.
func (c *Controller) Install(ctx context.Context) error {
	store, err := c.host.Open(c.generation)
	if err != nil {
		return fmt.Errorf("открытие хранилища поколения %q: %w", c.generation, err)
	}

	for _, path := range Precache {
		req := &Request{Method: http.MethodGet, URL: c.origin + path}
		resp, err := c.fetch(ctx, req)
		if err != nil {
			return fmt.Errorf("precache %s: %w", path, err)
		}
		store.Put(RequestKey{Method: http.MethodGet, URL: path}, resp)
	}

	c.mu.Lock()
	c.store = store
	c.ready = true
	c.mu.Unlock()

	c.logger.Info("Install завершён",
		slog.String("generation", c.generation),
		slog.Int("precached", len(Precache)),
	)
	return nil
}

// HandleMessage обрабатывает управляющее сообщение клиента.
// SKIP_WAITING форсирует выход из installing, не дожидаясь закрытия
// всех старых сессий («обновить сейчас»).
func (c *Controller) HandleMessage(msg string) {
	if msg != "SKIP_WAITING" {
		return
	}
	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
	c.logger.Info("Получен SKIP_WAITING, ожидание пропущено")
}

// Supersede переводит контроллер в терминальное состояние: его поколение
// вытеснено более новым, перехват запросов прекращается. Вызывается
// хостом при активации контроллера нового поколения.
func (c *Controller) Supersede() {
	c.mu.Lock()
	c.state = StateSuperseded
	c.store = nil
	c.mu.Unlock()
	c.logger.Info("Поколение вытеснено", slog.String("generation", c.generation))
}

// Activate удаляет хранилища всех чужих поколений и немедленно принимает
// контроль над всеми открытыми клиентскими сессиями.
// Инвариант после завершения: существует не более одного хранилища —
// текущего поколения.
func (c *Controller) Activate(ctx context.Context) error {
	c.mu.Lock()
	if !c.ready {
		c.mu.Unlock()
		return errors.New("activate до завершения install")
	}
	store := c.store
	c.mu.Unlock()

	// SKIP_WAITING пропускает ожидание, но не создание хранилища:
	// активация без открытого хранилища поколения недопустима
	if store == nil {
		opened, err := c.host.Open(c.generation)
		if err != nil {
			return fmt.Errorf("открытие хранилища поколения %q: %w", c.generation, err)
		}
		c.mu.Lock()
		c.store = opened
		c.mu.Unlock()
	}

	names, err := c.host.Names()
	if err != nil {
		return fmt.Errorf("перечисление хранилищ: %w", err)
	}

	for _, name := range names {
		if name == c.generation {
			continue
		}
		if err := c.host.Delete(name); err != nil {
			return fmt.Errorf("удаление хранилища поколения %q: %w", name, err)
		}
		generationsEvicted.Inc()
		c.logger.Info("Хранилище устаревшего поколения удалено",
			slog.String("evicted", name),
			slog.String("current", c.generation),
		)
	}

	// Контроль над открытыми сессиями принимается немедленно,
	// без ожидания навигации
	c.mu.Lock()
	c.state = StateActive
	c.mu.Unlock()

	return nil
}

// HandleFetch применяет политику кэширования к одному запросу.
// Возвращает (nil, nil), когда контроллер не вмешивается (cross-origin
// или до активации) — применяется поведение хоста по умолчанию.
// Для перехваченных запросов всегда возвращается некоторый Response:
// необработанных отказов не бывает.
//
// Перехваты независимы: конкурентные запросы не координируются между собой.
func (c *Controller) HandleFetch(ctx context.Context, req *Request) (*Response, error) {
	c.mu.Lock()
	active := c.state == StateActive
	store := c.store
	c.mu.Unlock()

	if !active {
		return nil, nil
	}

	path, sameOrigin := c.normalize(req.URL)
	if !sameOrigin {
		// Чужой origin: политика кэширования третьих сторон не наша
		return nil, nil
	}

	key := RequestKey{Method: req.Method, URL: path}

	if isDocumentRequest(req.Accept) {
		return c.networkFirst(ctx, store, req, key), nil
	}
	return c.cacheFirst(ctx, store, req, key), nil
}

// networkFirst — политика документных запросов: сеть, затем кэш,
// затем кэшированный корневой документ, затем литеральный offline-ответ.
func (c *Controller) networkFirst(ctx context.Context, store Store, req *Request, key RequestKey) *Response {
	resp, err := c.fetch(ctx, req)
	if err == nil {
		// Кэшируются только успешные ответы: транзитная страница 5xx
		// не должна позже заслонять precache-документы в offline-цепочке
		if resp.Status/100 == 2 {
			store.Put(key, resp)
		}
		fetchTotal.WithLabelValues("document", "network").Inc()
		return resp
	}

	if cached, ok := store.Match(key); ok {
		fetchTotal.WithLabelValues("document", "cache").Inc()
		return cached
	}
	if root, ok := store.Match(RequestKey{Method: http.MethodGet, URL: "/"}); ok {
		fetchTotal.WithLabelValues("document", "cached_root").Inc()
		return root
	}

	fetchTotal.WithLabelValues("document", "offline").Inc()
	return offlineResponse()
}

// cacheFirst — политика прочих same-origin запросов: кэш, затем сеть,
// затем пустой ответ со шлюзовым статусом.
func (c *Controller) cacheFirst(ctx context.Context, store Store, req *Request, key RequestKey) *Response {
	if cached, ok := store.Match(key); ok {
		fetchTotal.WithLabelValues("asset", "cache").Inc()
		return cached
	}

	resp, err := c.fetch(ctx, req)
	if err == nil {
		store.Put(key, resp)
		fetchTotal.WithLabelValues("asset", "network").Inc()
		return resp
	}

	fetchTotal.WithLabelValues("asset", "unavailable").Inc()
	return &Response{
		Status: http.StatusGatewayTimeout,
		Header: http.Header{},
		Body:   nil,
	}
}

// normalize приводит URL запроса к ключевому пути.
// Возвращает (путь, true) для same-origin запросов (включая относительные)
// и ("", false) для чужих origin.
func (c *Controller) normalize(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	if u.Host != "" {
		origin := u.Scheme + "://" + u.Host
		if origin != c.origin {
			return "", false
		}
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path, true
}

// isDocumentRequest — классификация по content negotiation:
// запрос документа объявляет приём гипертекста.
func isDocumentRequest(accept string) bool {
	return strings.Contains(accept, "text/html")
}

// offlineResponse — литеральный деградированный ответ для документных
// запросов при полном отсутствии сети и кэша.
func offlineResponse() *Response {
	header := http.Header{}
	header.Set("Content-Type", "text/html; charset=utf-8")
	return &Response{
		Status: http.StatusOK,
		Header: header,
		Body:   []byte("<!doctype html><title>Offline</title><p>You are offline. The daily verse will return when a connection is available.</p>"),
	}
}
