package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON unmarshals the JSON object embedded in a model response into T.
// Models wrap their JSON in markdown fences or prose often enough that we
// always scan for the outermost '{' ... '}' before unmarshalling.
func ParseJSON[T any](response string) (T, error) {
	var zero T

	start := strings.IndexByte(response, '{')
	end := strings.LastIndexByte(response, '}')
	if start == -1 || end == -1 || end < start {
		return zero, fmt.Errorf("no JSON object found in response")
	}

	var result T
	if err := json.Unmarshal([]byte(response[start:end+1]), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, response[start:end+1])
	}

	return result, nil
}
