package actortest

import (
	"encoding/json"
	"fmt"
)

// Pretty renders v for test failure messages. JSON is preferred so struct
// fields print in a stable order; values JSON cannot encode fall back to %#v.
func Pretty(v any) string {
	if v == nil {
		return "<nil>"
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err == nil {
		return string(data)
	}
	return fmt.Sprintf("%#v", v)
}
