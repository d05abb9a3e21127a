package chat

import (
	"errors"
	"strings"

	"github.com/PabloGalante/farum-panel/internal/domain"
)

// NormalizeError maps any failure to the message shown in the tab and the
// backend request id, if one is known.
func NormalizeError(err error) (message string, requestID string) {
	var (
		textErr   domain.TextError
		malformed *domain.MalformedResponseError
		svcErr    *domain.ServiceError
	)

	switch {
	case err == nil:
		return domain.MsgDefaultFailure, ""

	case errors.As(err, &textErr):
		return strings.ToUpper(string(textErr)), ""

	case errors.As(err, &malformed):
		if reason, ok := malformed.Reason(); ok {
			return reason, ""
		}
		return domain.MsgDefaultFailure, ""

	case errors.As(err, &svcErr):
		if svcErr.Message == "" {
			return domain.MsgDefaultFailure, svcErr.RequestID
		}
		return svcErr.Message, svcErr.RequestID
	}

	if msg := err.Error(); msg != "" {
		return msg, ""
	}
	return domain.MsgDefaultFailure, ""
}
