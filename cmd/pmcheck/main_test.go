package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/cozy/prosemirror-go/internal/config"
	"github.com/cozy/prosemirror-go/schema/basic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeJSON(t *testing.T, dir, name string, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	schema := writeJSON(t, dir, "schema.json", basic.Schema.Spec)
	doc := writeJSON(t, dir, "doc.json", map[string]interface{}{
		"type": "doc",
		"content": []interface{}{
			map[string]interface{}{
				"type":    "paragraph",
				"content": []interface{}{map[string]interface{}{"type": "text", "text": "hello"}},
			},
		},
	})
	steps := writeJSON(t, dir, "steps.json", []interface{}{
		map[string]interface{}{
			"stepType": "replace", "from": 6, "to": 6,
			"slice": map[string]interface{}{
				"content": []interface{}{map[string]interface{}{"type": "text", "text": " world"}},
			},
		},
		map[string]interface{}{
			"stepType": "addMark", "from": 1, "to": 6,
			"mark": map[string]interface{}{"type": "strong"},
		},
	})

	cfg := &config.Config{Schema: schema, Doc: doc, Steps: steps, LogLevel: "info", ResolveCache: 12}
	var out bytes.Buffer
	require.NoError(t, run(cfg, zap.NewNop(), &out))

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	para := result["content"].([]interface{})[0].(map[string]interface{})
	texts := para["content"].([]interface{})
	require.Len(t, texts, 2)
	first := texts[0].(map[string]interface{})
	assert.Equal(t, "hello", first["text"])
	assert.Equal(t, "strong", first["marks"].([]interface{})[0].(map[string]interface{})["type"])
	assert.Equal(t, " world", texts[1].(map[string]interface{})["text"])
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	schema := writeJSON(t, dir, "schema.json", basic.Schema.Spec)
	doc := writeJSON(t, dir, "doc.json", map[string]interface{}{
		"type":    "doc",
		"content": []interface{}{map[string]interface{}{"type": "paragraph"}},
	})

	fails := func(steps interface{}, docPath string) {
		t.Helper()
		cfg := &config.Config{Schema: schema, Doc: docPath, LogLevel: "info"}
		if steps != nil {
			cfg.Steps = writeJSON(t, dir, "steps.json", steps)
		}
		assert.Error(t, run(cfg, zap.NewNop(), &bytes.Buffer{}))
	}

	// step out of range
	fails([]interface{}{map[string]interface{}{
		"stepType": "replace", "from": 5, "to": 6,
	}}, doc)
	// unknown step type
	fails([]interface{}{map[string]interface{}{"stepType": "bogus"}}, doc)
	// paragraph directly in a paragraph
	fails(nil, writeJSON(t, dir, "bad.json", map[string]interface{}{
		"type": "doc",
		"content": []interface{}{map[string]interface{}{
			"type":    "paragraph",
			"content": []interface{}{map[string]interface{}{"type": "paragraph"}},
		}},
	}))
}
