// Пакет web — встроенные ресурсы клиентского приложения.
// Документ, скрипт, манифест, service worker и иконки встраиваются в
// бинарник через //go:embed и раздаются статическим обработчиком.
package web

import (
	"embed"
	"io/fs"
)

// content — встроенная файловая система клиентского приложения.
//
//go:embed index.html app.js manifest.webmanifest sw.js icons
var content embed.FS

// FS возвращает fs.FS для доступа к встроенным файлам.
func FS() fs.FS {
	return content
}
