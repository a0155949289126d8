// Package webrtcsink renders the mirrored stream by forwarding encoded
// frames into a WebRTC video track; the actual pixel decode happens in the
// subscribed peer. The surface owns the track and the peer connection, so
// its rendering-context type is fixed the moment it is created.
package webrtcsink

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"

	"mirrorctl/decoder"
)

const Kind = "webrtc"

// Frames carry no duration of their own here; 16ms matches the 60fps the
// server is asked for and the jitter buffer absorbs the rest.
const defaultFrameDuration = 16 * time.Millisecond

type Factory struct {
	// OnKeyFrameRequest fires when a subscriber sends a PLI. Optional.
	OnKeyFrameRequest func()
}

func (f *Factory) Kind() string { return Kind }

func (f *Factory) NewSurface() (decoder.Surface, error) {
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264},
		"video-track-id",
		"mirror-"+uuid.NewString(),
	)
	if err != nil {
		return nil, fmt.Errorf("create video track: %w", err)
	}
	return &TrackSurface{
		id:                uuid.NewString(),
		track:             track,
		onKeyFrameRequest: f.OnKeyFrameRequest,
	}, nil
}

func (f *Factory) NewDecoder(surface decoder.Surface) (decoder.Decoder, error) {
	ts, ok := surface.(*TrackSurface)
	if !ok {
		return nil, fmt.Errorf("webrtcsink: surface %q has wrong context type", surface.Identity())
	}
	return &sinkDecoder{surface: ts}, nil
}

// TrackSurface is the rendering destination: one sample track plus the peer
// connections currently subscribed to it.
type TrackSurface struct {
	id                string
	track             *webrtc.TrackLocalStaticSample
	onKeyFrameRequest func()
}

func (s *TrackSurface) Identity() string { return s.id }

func (s *TrackSurface) Track() *webrtc.TrackLocalStaticSample { return s.track }

type sinkDecoder struct {
	surface *TrackSurface
}

// Configure pushes the codec configuration (SPS/PPS) through the track with
// zero duration so it never advances the RTP clock.
func (d *sinkDecoder) Configure(_ context.Context, geo decoder.Geometry) error {
	if len(geo.CodecData) == 0 {
		return nil
	}
	return d.surface.track.WriteSample(media.Sample{
		Data:     geo.CodecData,
		Duration: 0,
	})
}

func (d *sinkDecoder) Decode(_ context.Context, payload []byte) error {
	return d.surface.track.WriteSample(media.Sample{
		Data:     payload,
		Duration: defaultFrameDuration,
	})
}

func (d *sinkDecoder) Dispose() {
	// The track lives with the surface; subscribers drop it when their
	// peer connection notices the stream went away.
}

func (s *TrackSurface) keyFrameRequested() {
	if s.onKeyFrameRequest != nil {
		s.onKeyFrameRequest()
	}
}
