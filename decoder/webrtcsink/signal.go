package webrtcsink

import (
	"fmt"
	"log"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/rtcp"
	pionSDP "github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
)

// Answer accepts a browser SDP offer and returns a complete answer with ICE
// candidates gathered, so the caller needs no trickle signaling. Each call
// adds one subscriber to the surface's track.
func (s *TrackSurface) Answer(offerSDP string) (string, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType:  webrtc.MimeTypeH264,
			ClockRate: 90000,
		},
		PayloadType: 102,
	}, webrtc.RTPCodecTypeVideo); err != nil {
		return "", err
	}
	if err := m.RegisterHeaderExtension(
		webrtc.RTPHeaderExtensionCapability{URI: pionSDP.TransportCCURI},
		webrtc.RTPCodecTypeVideo,
	); err != nil {
		return "", err
	}
	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, registry); err != nil {
		return "", err
	}
	api := webrtc.NewAPI(webrtc.WithMediaEngine(m), webrtc.WithInterceptorRegistry(registry))

	pc, err := api.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create peer connection: %w", err)
	}

	sender, err := pc.AddTrack(s.track)
	if err != nil {
		pc.Close()
		return "", fmt.Errorf("add track: %w", err)
	}
	go s.readRTCP(sender)

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Printf("webrtcsink: peer connection %s", state)
		if state == webrtc.PeerConnectionStateFailed || state == webrtc.PeerConnectionStateClosed {
			pc.Close()
		}
	})

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offerSDP}
	if err := pc.SetRemoteDescription(offer); err != nil {
		pc.Close()
		return "", fmt.Errorf("set remote description: %w", err)
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return "", fmt.Errorf("create answer: %w", err)
	}

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		return "", fmt.Errorf("set local description: %w", err)
	}
	<-gatherComplete
	return pc.LocalDescription().SDP, nil
}

// readRTCP watches a subscriber's feedback for picture loss indications and
// forwards them as keyframe requests, throttled so a flaky link does not
// hammer the encoder.
func (s *TrackSurface) readRTCP(sender *webrtc.RTPSender) {
	buf := make([]byte, 1500)
	var lastPLI time.Time
	for {
		n, _, err := sender.Read(buf)
		if err != nil {
			return
		}
		packets, err := rtcp.Unmarshal(buf[:n])
		if err != nil {
			continue
		}
		for _, p := range packets {
			if _, ok := p.(*rtcp.PictureLossIndication); !ok {
				continue
			}
			if time.Since(lastPLI) < 2*time.Second {
				continue
			}
			lastPLI = time.Now()
			s.keyFrameRequested()
		}
	}
}
