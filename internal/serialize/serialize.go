// Package serialize post-processes Doris result rows: embedded JSON
// columns are decoded and media columns are resolved to presigned
// download URLs.
package serialize

import (
	"context"
	"encoding/json"
	"regexp"

	"autobahn/internal/config"
	"autobahn/internal/fsx"
	"autobahn/internal/logging"
)

// Single-quoted keys and simple single-quoted values, as produced by
// upstream Python writers.
var (
	sqKeyRe   = regexp.MustCompile(`([{\[,]\s*)'([^']+?)'\s*:`)
	sqValueRe = regexp.MustCompile(`:\s*'([^'\\]*)'\s*([,}\]])`)
)

// LenientUnmarshal decodes a JSON string, tolerating single-quoted
// variants. Undecodable input comes back unchanged.
func LenientUnmarshal(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}

	fixed := sqKeyRe.ReplaceAllString(s, `$1"$2":`)
	fixed = sqValueRe.ReplaceAllString(fixed, `:"$1"$2`)
	if err := json.Unmarshal([]byte(fixed), &v); err == nil {
		return v
	}

	logging.L.Debugw("lenient json decode failed, keeping raw string", "snippet", snippet(s))
	return s
}

func snippet(s string) string {
	if len(s) > 100 {
		return s[:100]
	}
	return s
}

type Serializer struct {
	cfg config.SerializerConfig
	fs  *fsx.Manager
}

func New(cfg config.SerializerConfig, fs *fsx.Manager) *Serializer {
	return &Serializer{cfg: cfg, fs: fs}
}

// Rows decodes configured JSON fields in place and swaps media URIs for
// presigned URLs. Rows that fail to process keep their original values;
// a partially enriched result beats a dropped one.
func (s *Serializer) Rows(ctx context.Context, rows []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		processed := make(map[string]any, len(row))
		for k, v := range row {
			processed[k] = v
		}

		for _, field := range s.cfg.ParseJSONFields {
			raw, ok := processed[field].(string)
			if !ok {
				continue
			}
			processed[field] = LenientUnmarshal(raw)
		}

		for _, field := range s.cfg.MediumFields {
			if v, ok := processed[field]; ok {
				processed[field] = s.presignField(ctx, v)
			}
		}

		out = append(out, processed)
	}
	return out
}

// presignField resolves a media value (a URI or list of URIs) to
// presigned URLs. Values that are not s3 URIs, or that fail to sign,
// pass through unchanged.
func (s *Serializer) presignField(ctx context.Context, value any) any {
	switch v := value.(type) {
	case string:
		return s.presignOne(ctx, v)
	case []any:
		signed := make([]any, 0, len(v))
		for _, item := range v {
			if uri, ok := item.(string); ok {
				signed = append(signed, s.presignOne(ctx, uri))
			} else {
				signed = append(signed, item)
			}
		}
		return signed
	default:
		return value
	}
}

func (s *Serializer) presignOne(ctx context.Context, uri string) string {
	if s.fs == nil || !fsx.IsS3URI(uri) {
		return uri
	}
	url, err := s.fs.PresignGet(ctx, uri, fsx.DefaultPresignExpiry)
	if err != nil {
		logging.L.Debugw("presign failed", "uri", uri, "error", err)
		return uri
	}
	return url
}
