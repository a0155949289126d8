package scrcpy

import (
	"context"
	"strings"

	"mirrorctl/adb"
)

// ListEncoders runs the server once with list_encoders=true and parses the
// encoder names from its output. The server process deletes the pushed
// binary when it exits, so the binary must be re-pushed before a real start.
func ListEncoders(ctx context.Context, adbClient *adb.Client, opts Options) ([]string, error) {
	out, err := adbClient.ShellOutput(ctx, opts.ListEncodersCommand())
	if err != nil {
		return nil, err
	}
	return ParseEncoderList(out), nil
}

// ParseEncoderList extracts encoder names from lines of the form
//
//	--video-codec=h264 --video-encoder=OMX.qcom.video.encoder.avc
func ParseEncoderList(out string) []string {
	const marker = "--video-encoder="
	var encoders []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		idx := strings.Index(line, marker)
		if idx < 0 {
			continue
		}
		fields := strings.Fields(line[idx+len(marker):])
		if len(fields) == 0 {
			continue
		}
		name := strings.Trim(fields[0], "'\"")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		encoders = append(encoders, name)
	}
	return encoders
}
