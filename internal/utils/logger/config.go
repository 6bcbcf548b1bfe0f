// internal/utils/logger/config.go
package logger

type Config struct {
	LogFile     string
	Level       string // debug, info, warn, error
	MaxSize     int    // мегабайты
	MaxAge      int    // дни
	MaxBackups  int    // количество файлов
	Compress    bool   // сжимать ротированные файлы
	Development bool
	NoConsole   bool
	BufferSize  int // последние записи в памяти, 0: выключено
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		LogFile:     "curve-engine.log",
		Level:       "info",
		MaxSize:     100,  // 100 MB
		MaxAge:      7,    // 7 дней
		MaxBackups:  3,    // 3 файла
		Compress:    true, // сжимать старые логи
		Development: false,
	}
}
