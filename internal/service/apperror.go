package service

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

// appError is the single error type every handler returns, generalizing
// the teacher's appHandler/appError pattern to spec §7's error kinds.
type appError struct {
	Err     error
	Message string
	Code    int
}

func (e *appError) Error() string { return e.Message }

func appErrorConfigInvalid(err error, msg string) *appError {
	return &appError{Err: err, Message: msg, Code: http.StatusInternalServerError}
}

func appErrorBadRequest(err error, msg string) *appError {
	return &appError{Err: err, Message: msg, Code: http.StatusBadRequest}
}

func appErrorUnsupportedDGGRS(err error, msg string) *appError {
	return &appError{Err: err, Message: msg, Code: http.StatusBadRequest}
}

func appErrorUnsupportedCollection(err error, msg string) *appError {
	return &appError{Err: err, Message: msg, Code: http.StatusBadRequest}
}

func appErrorCQLAttributesUnsatisfied(err error, msg string) *appError {
	return &appError{Err: err, Message: msg, Code: http.StatusBadRequest}
}

func appErrorNotAcceptable(err error, msg string) *appError {
	return &appError{Err: err, Message: msg, Code: http.StatusNotAcceptable}
}

func appErrorNotFound(err error, msg string) *appError {
	return &appError{Err: err, Message: msg, Code: http.StatusNotFound}
}

func appErrorUnauthorized(err error, msg string) *appError {
	return &appError{Err: err, Message: msg, Code: http.StatusUnauthorized}
}

func appErrorForbidden(err error, msg string) *appError {
	return &appError{Err: err, Message: msg, Code: http.StatusForbidden}
}

func appErrorInternal(err error, msg string) *appError {
	return &appError{Err: err, Message: msg, Code: http.StatusInternalServerError}
}

// appHandler adapts a handler returning *appError to http.Handler,
// centralizing status-code mapping and error logging in one place
// (the teacher's pattern, evidenced by handler_test.go's
// `appHandler(handleHealth)` usage).
type appHandler func(http.ResponseWriter, *http.Request) *appError

func (fn appHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if e := fn(w, r); e != nil {
		if e.Err != nil {
			log.Warnf("[%s] %s %s: %s: %v", requestID(r), r.Method, r.URL.Path, e.Message, e.Err)
		} else {
			log.Debugf("[%s] %s %s: %s", requestID(r), r.Method, r.URL.Path, e.Message)
		}
		http.Error(w, e.Message, e.Code)
	}
}
