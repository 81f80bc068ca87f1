package carbon

import "github.com/rs/zerolog"

// logger is used for embedded data parsing diagnostics. Estimation never logs.
var logger = zerolog.Nop()

// SetLogger replaces the package logger. Call before the first grid lookup.
func SetLogger(l zerolog.Logger) {
	logger = l
}
