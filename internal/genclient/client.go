// Пакет genclient — HTTP-клиент OpenAI-совместимого текстового генератора.
// Любая ошибка транспорта, авторизации или декодирования непрозрачна для
// вызывающего кода: всё оборачивается в ErrUnavailable, различать причины
// pipeline не обязан.
package genclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable — генератор недоступен (сеть, авторизация, некорректный ответ).
var ErrUnavailable = errors.New("генератор недоступен")

// Client — клиент chat-completions API.
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
	model      string
	logger     *slog.Logger
}

// New создаёт клиент генератора.
// endpoint — базовый URL API (например, https://api.openai.com/v1).
// timeout — таймаут HTTP-запросов (DV_GEN_TIMEOUT).
func New(endpoint, apiKey, model string, timeout time.Duration, logger *slog.Logger) *Client {
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			// Пул idle-соединений для переиспользования между запросами
			MaxIdleConnsPerHost: 2,
		},
	}

	return &Client{
		httpClient: httpClient,
		url:        strings.TrimRight(endpoint, "/") + "/chat/completions",
		apiKey:     apiKey,
		model:      model,
		logger:     logger.With(slog.String("component", "gen_client")),
	}
}

// chatMessage — одно сообщение диалога chat-completions.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest — тело запроса chat-completions.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// chatResponse — минимальное подмножество ответа chat-completions.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete выполняет один синхронный вызов генератора.
// system — системные инструкции, user — пользовательский контент.
// Возвращает текст первого choice или ошибку, оборачивающую ErrUnavailable.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("кодирование запроса: %v: %w", err, ErrUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("создание запроса: %v: %w", err, ErrUnavailable)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("запрос к генератору: %v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		// Читаем небольшой фрагмент тела для диагностики в логах
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		c.logger.Warn("Генератор вернул ошибку",
			slog.Int("status", resp.StatusCode),
			slog.String("body", strings.TrimSpace(string(slurp))),
		)
		return "", fmt.Errorf("статус генератора %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("декодирование ответа: %v: %w", err, ErrUnavailable)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("пустой ответ генератора: %w", ErrUnavailable)
	}

	return cr.Choices[0].Message.Content, nil
}
