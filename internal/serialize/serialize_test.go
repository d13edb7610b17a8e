package serialize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"autobahn/internal/config"
	"autobahn/internal/fsx"
)

func TestLenientUnmarshalStandardJSON(t *testing.T) {
	v := LenientUnmarshal(`{"a": 1, "b": ["x"]}`)
	m, ok := v.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, float64(1), m["a"])
}

func TestLenientUnmarshalSingleQuoted(t *testing.T) {
	v := LenientUnmarshal(`{'name': '张三', 'role': 'admin'}`)
	m, ok := v.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "张三", m["name"])
	assert.Equal(t, "admin", m["role"])
}

func TestLenientUnmarshalGarbageKeptAsString(t *testing.T) {
	v := LenientUnmarshal("definitely not json")
	assert.Equal(t, "definitely not json", v)
}

type stubPresign struct {
	fsx.LocalAdapter
}

func (stubPresign) PresignGet(_ context.Context, uri string, _ time.Duration) (string, error) {
	return "https://signed.example/" + uri, nil
}

func testSerializer() *Serializer {
	cfg := config.SerializerConfig{
		MediumFields:    []string{"images"},
		ParseJSONFields: []string{"images", "meta_data"},
	}
	fs := fsx.NewManager(config.S3Config{}).WithAdapters(fsx.LocalAdapter{}, stubPresign{})
	return New(cfg, fs)
}

func TestRowsDecodesJSONFields(t *testing.T) {
	s := testSerializer()

	rows := s.Rows(context.Background(), []map[string]any{
		{"id": 1, "meta_data": `{"lang": "zh"}`},
	})

	meta, ok := rows[0]["meta_data"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "zh", meta["lang"])
}

func TestRowsPresignsMediaFields(t *testing.T) {
	s := testSerializer()

	rows := s.Rows(context.Background(), []map[string]any{
		{"id": 1, "images": `["s3://bucket/a.png", "/local/b.png"]`},
	})

	images, ok := rows[0]["images"].([]any)
	assert.True(t, ok)
	assert.Equal(t, "https://signed.example/s3://bucket/a.png", images[0])
	// Non-s3 entries pass through untouched.
	assert.Equal(t, "/local/b.png", images[1])
}

func TestRowsLeavesUnknownFieldsAlone(t *testing.T) {
	s := testSerializer()

	rows := s.Rows(context.Background(), []map[string]any{
		{"id": 7, "title": "plain"},
	})

	assert.Equal(t, 7, rows[0]["id"])
	assert.Equal(t, "plain", rows[0]["title"])
}
