package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(valueToTest int64) bool

// gt returns a ParamValidator that checks if the argument is greater than the value captured in the closure.
func gt(valToCompareAgainst int64) ParamValidator {
	return func(argValue int64) bool {
		return argValue > valToCompareAgainst
	}
}

// ParseOptionalGt parses the query parameter as an int32 greater than value,
// falling back to def when the parameter is absent.
func ParseOptionalGt(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, value int64, def int32) (int32, bool) {
	if r.URL.Query().Get(key) == "" {
		return def, true
	}
	return parseValidate(r, w, logger, key, gt(value))
}

func parseValidate(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, pValidator ParamValidator) (int32, bool) {
	value := r.URL.Query().Get(key)
	intValue, err := strconv.ParseInt(value, 10, 32)
	if err != nil || !pValidator(intValue) {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return 0, false
	}
	return int32(intValue), true
}
