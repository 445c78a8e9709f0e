package core

// Logger logs messages and reports errors to the configured error tracker.
// args may contain errors, maps of extras and the request's session.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
