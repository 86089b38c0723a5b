package upstream

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// JSONBody returns the body as a JSON column value. Non-JSON replies are
// preserved inside a wrapper object instead of being dropped.
func JSONBody(body []byte) datatypes.JSON {
	if len(body) == 0 {
		return datatypes.JSON([]byte(`{}`))
	}
	if json.Valid(body) {
		return datatypes.JSON(body)
	}
	wrapped, err := json.Marshal(map[string]string{"raw_text": string(body)})
	if err != nil {
		return datatypes.JSON([]byte(`{}`))
	}
	return datatypes.JSON(wrapped)
}

// ErrorBody records a transport-level failure as a JSON column value.
func ErrorBody(callErr error) datatypes.JSON {
	wrapped, err := json.Marshal(map[string]string{"error": callErr.Error()})
	if err != nil {
		return datatypes.JSON([]byte(`{}`))
	}
	return datatypes.JSON(wrapped)
}
