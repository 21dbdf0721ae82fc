package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// writeSSEEvent writes one "event: <name>\ndata: <json>\n\n" frame. String
// payloads (delta.content) are wrapped as {"content": ...} since a bare
// SSE data line cannot carry an un-quoted string safely across chunk
// boundaries.
func writeSSEEvent(w http.ResponseWriter, name string, payload any) error {
	var body []byte
	var err error
	if s, ok := payload.(string); ok {
		body, err = json.Marshal(map[string]string{"content": s})
	} else {
		body, err = json.Marshal(payload)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, body)
	return err
}
