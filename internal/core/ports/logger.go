// Package ports defines the core interfaces for the application.
package ports

// Logger defines the interface for logging.
//
//go:generate go run go.uber.org/mock/mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	Info(msg string)
	// Done reports a completed step, such as an installed package.
	Done(msg string)
	Warn(msg string)
	Error(err error)
}
