package testsupport

import (
	"encoding/json"
	"os"
	"testing"
)

// Golden decodes the JSON document at path into v and fails the test when the
// file is missing or malformed.
func Golden(t testing.TB, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden %s: %v", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode golden %s: %v", path, err)
	}
}
