package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	mu   sync.Mutex
	base *zap.Logger

	serviceName = "signal_relay"
)

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

// Replace подменяет базовый логгер. Зовётся из main; без вызова
// используется обычный продакшен-логгер zap.
func Replace(l *zap.Logger) {
	mu.Lock()
	base = l
	mu.Unlock()
}

func logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if base == nil {
		base = zap.Must(zap.NewProduction(zap.AddCallerSkip(1)))
	}
	return base.With(zap.String("service", serviceName))
}

func Info(format string, args ...interface{}) {
	logger().Info(fmt.Sprintf(format, args...))
}

func Warn(format string, args ...interface{}) {
	logger().Warn(fmt.Sprintf(format, args...))
}

func Error(format string, args ...interface{}) {
	logger().Error(fmt.Sprintf(format, args...))
}

func Fatal(format string, args ...interface{}) {
	logger().Fatal(fmt.Sprintf(format, args...))
}
