// Пакет static — встроенные статические ресурсы UI.
// Файлы встраиваются в бинарник через //go:embed и раздаются по /static/*.
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed css/app.css
var content embed.FS

// FileSystem возвращает http.FileSystem для обработки запросов к /static/*.
// Файлы доступны по путям вида /static/css/app.css.
func FileSystem() http.FileSystem {
	return http.FS(content)
}

// FS возвращает fs.FS для прямого доступа к встроенным файлам.
func FS() fs.FS {
	return content
}
