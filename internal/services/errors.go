package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	ErrTransport  = errors.New("transport failure")
	ErrMalformed  = errors.New("malformed response")
	ErrUnexpected = errors.New("unexpected status")
	ErrTimeout    = errors.New("timeout")
)

// Wrap builds an error message that includes service context while tagging it
// with the provided marker so callers can classify the failure with errors.Is.
// The marker should be one of the exported sentinel errors above.
func Wrap(marker error, service, operation, message string, err error) error {
	detail := buildDetail(service, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Degradable reports whether err is an expected service failure: transport,
// timeout, unexpected status or malformed payload. Callers replace every
// failed lookup with sentinel values; errors outside this set point at a
// local fault such as an invalid endpoint and are logged as errors.
func Degradable(err error) bool {
	return errors.Is(err, ErrTransport) ||
		errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrUnexpected) ||
		errors.Is(err, ErrTimeout)
}

// TransportMarker picks ErrTimeout for deadline and client timeout failures
// and ErrTransport for everything else.
func TransportMarker(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrTransport
}

func buildDetail(service, operation, message string) string {
	parts := make([]string, 0, 3)
	if service = strings.TrimSpace(service); service != "" {
		parts = append(parts, service)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
