package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON unmarshals the first balanced JSON object found in an LLM
// response into T. It tolerates the usual quirks: surrounding prose,
// markdown fences, trailing commentary. The object is taken from the first
// '{' to the last '}'.
func ExtractJSON[T any](response string) (T, error) {
	var zero T

	start := strings.IndexByte(response, '{')
	end := strings.LastIndexByte(response, '}')
	if start == -1 || end == -1 || end < start {
		return zero, fmt.Errorf("no JSON object found in response")
	}

	var result T
	if err := json.Unmarshal([]byte(response[start:end+1]), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return result, nil
}
