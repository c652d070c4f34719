package probe

import (
	"context"
	"encoding/json"
	"os"

	"muxprep/internal/logging"
	"muxprep/internal/media/ffprobe"
	"muxprep/internal/media/mediainfo"
)

// DumpPath returns where the combined metadata of source is written.
func DumpPath(source string) string {
	return source + "-combined.json"
}

type combinedDump struct {
	MediaInfo json.RawMessage `json:"mediainfo,omitempty"`
	FFprobe   json.RawMessage `json:"ffprobe,omitempty"`
}

// dump writes both raw payloads next to the source when enabled. Failures
// are logged and never affect processing.
func (p *Provider) dump(ctx context.Context, path string, mi *mediainfo.Result, ff ffprobe.Result) {
	if !p.dumpMetadata {
		return
	}
	var payload combinedDump
	if mi != nil {
		if raw := mi.RawJSON(); len(raw) > 0 {
			payload.MediaInfo = raw
		}
	}
	if raw := ff.RawJSON(); len(raw) > 0 {
		payload.FFprobe = raw
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err == nil {
		err = os.WriteFile(DumpPath(path), data, 0o644)
	}
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "metadata dump failed", "metadata_dump_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check write permissions next to the source file"),
			logging.String(logging.FieldImpact, "debug metadata not written"),
		)
		return
	}
	p.logger.Debug("metadata dumped", logging.String("dump_path", DumpPath(path)))
}
