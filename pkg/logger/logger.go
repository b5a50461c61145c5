package logger

// LoggerInstance defines the interface for logging backends.
type LoggerInstance interface {
	Log(message string, keyvals ...any)
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

// Logger fans log calls out to all configured backends.
type Logger struct {
	backends []LoggerInstance
}

var singleton *Logger

// Init configures the global logger with one or more backends.
// It must be called once at startup before any logging happens;
// calls made before Init are dropped silently.
func Init(backends ...LoggerInstance) {
	singleton = &Logger{
		backends: backends,
	}
}

// Log writes a message at the default log level to all backends.
func Log(message string, keyvals ...any) {
	if singleton == nil {
		return
	}
	for _, backend := range singleton.backends {
		backend.Log(message, keyvals...)
	}
}

// Debug writes a message at DEBUG level to all backends.
func Debug(message string, keyvals ...any) {
	if singleton == nil {
		return
	}
	for _, backend := range singleton.backends {
		backend.Debug(message, keyvals...)
	}
}

// Info writes a message at INFO level to all backends.
func Info(message string, keyvals ...any) {
	if singleton == nil {
		return
	}
	for _, backend := range singleton.backends {
		backend.Info(message, keyvals...)
	}
}

// Warn writes a message at WARN level to all backends.
func Warn(message string, keyvals ...any) {
	if singleton == nil {
		return
	}
	for _, backend := range singleton.backends {
		backend.Warn(message, keyvals...)
	}
}

// Error writes a message at ERROR level to all backends.
func Error(message string, keyvals ...any) {
	if singleton == nil {
		return
	}
	for _, backend := range singleton.backends {
		backend.Error(message, keyvals...)
	}
}

// Fatal writes a message at FATAL level and terminates the program.
func Fatal(message string, keyvals ...any) {
	if singleton == nil {
		return
	}
	for _, backend := range singleton.backends {
		backend.Fatal(message, keyvals...)
	}
}
