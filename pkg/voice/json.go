package voice

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
	"github.com/kaptinlin/jsonrepair"
)

// The clone service has answered with either field across versions.
var urlQuery = mustParse(".audio_url // .url // .data.audio_url // empty")

func mustParse(expr string) *gojq.Query {
	q, err := gojq.Parse(expr)
	if err != nil {
		panic(err)
	}
	return q
}

// decodeBody unmarshals a response body, repairing malformed JSON.
func decodeBody(data []byte) (map[string]any, error) {
	var v map[string]any
	err := json.Unmarshal(data, &v)
	if err == nil {
		return v, nil
	}
	if _, ok := err.(*json.SyntaxError); !ok {
		return nil, err
	}
	fixed, rerr := jsonrepair.JSONRepair(string(data))
	if rerr != nil {
		return nil, fmt.Errorf("voice: decode response: %w", err)
	}
	if err := json.Unmarshal([]byte(fixed), &v); err != nil {
		return nil, fmt.Errorf("voice: decode response: %w", err)
	}
	return v, nil
}

// extractURL returns the audio URL carried by a response.
func extractURL(body map[string]any) string {
	iter := urlQuery.Run(body)
	v, ok := iter.Next()
	if !ok {
		return ""
	}
	if _, isErr := v.(error); isErr {
		return ""
	}
	s, _ := v.(string)
	return s
}

func message(body map[string]any, raw []byte) string {
	for _, k := range []string{"message", "msg", "error"} {
		if s, ok := body[k].(string); ok && s != "" {
			return s
		}
	}
	return snippet(raw)
}

func snippet(raw []byte) string {
	const max = 200
	if len(raw) > max {
		return string(raw[:max]) + "..."
	}
	return string(raw)
}
