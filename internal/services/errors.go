package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCapture       = errors.New("capture failed")
	ErrSend          = errors.New("send failed")
	ErrCleanup       = errors.New("cleanup failed")
	ErrExternalTool  = errors.New("external tool error")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Details reports a short category label for err alongside its message. The
// category is what history rows and metric labels carry.
func Details(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	return Category(err), err.Error()
}

// Category maps an error to a stable label. Timeouts win over the stage marker
// so a camera that hangs is distinguishable from one that exits non-zero.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrCapture):
		return "capture"
	case errors.Is(err, ErrSend):
		return "send"
	case errors.Is(err, ErrCleanup):
		return "cleanup"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{stage, operation, message} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
