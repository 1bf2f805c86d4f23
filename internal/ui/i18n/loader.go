// loader.go — загрузка каталогов переводов из embed.FS.
package i18n

import (
	"fmt"
	"log/slog"
)

// LoadFromEmbedFS загружает каталоги всех поддерживаемых языков.
func LoadFromEmbedFS(bundle *Bundle, logger *slog.Logger) error {
	for _, l := range Languages {
		path := fmt.Sprintf("locales/%s.json", l.Code)
		data, err := LocaleFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("i18n: не удалось прочитать %s: %w", path, err)
		}
		if err := bundle.LoadMessages(l.Code, data); err != nil {
			return err
		}
	}

	logger.Info("i18n каталоги загружены", slog.Int("languages", len(Languages)))
	return nil
}
