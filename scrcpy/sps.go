package scrcpy

import (
	"bytes"
	"errors"
)

type SPSInfo struct {
	Width  uint32
	Height uint32
}

// ParseSPSH264 extracts the coded picture size from an H.264 sequence
// parameter set (NALU payload, without start code).
func ParseSPSH264(sps []byte) (SPSInfo, error) {
	if len(sps) < 4 {
		return SPSInfo{}, errors.New("sps too short")
	}
	if sps[0]&0x1F != 7 {
		return SPSInfo{}, errors.New("not an SPS NALU")
	}
	// Skip the NALU header byte, strip emulation prevention.
	br := newBitReader(removeEmulationPreventionBytes(sps[1:]))

	profileIDC := br.ReadBits(8)
	br.ReadBits(8) // constraint flags + reserved
	br.ReadBits(8) // level_idc
	br.ReadUE()    // seq_parameter_set_id

	chromaFormatIDC := uint32(1)
	switch profileIDC {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 138, 139, 134, 135:
		chromaFormatIDC = br.ReadUE()
		if chromaFormatIDC == 3 {
			br.ReadBits(1) // separate_colour_plane_flag
		}
		br.ReadUE()    // bit_depth_luma_minus8
		br.ReadUE()    // bit_depth_chroma_minus8
		br.ReadBits(1) // qpprime_y_zero_transform_bypass_flag
		if br.ReadBits(1) == 1 { // seq_scaling_matrix_present_flag
			limit := 8
			if chromaFormatIDC == 3 {
				limit = 12
			}
			for i := 0; i < limit; i++ {
				if br.ReadBits(1) == 0 {
					continue
				}
				if i < 6 {
					skipScalingList(br, 16)
				} else {
					skipScalingList(br, 64)
				}
			}
		}
	}

	br.ReadUE() // log2_max_frame_num_minus4
	picOrderCntType := br.ReadUE()
	if picOrderCntType == 0 {
		br.ReadUE() // log2_max_pic_order_cnt_lsb_minus4
	} else if picOrderCntType == 1 {
		br.ReadBits(1) // delta_pic_order_always_zero_flag
		br.ReadSE()
		br.ReadSE()
		for i, n := uint32(0), br.ReadUE(); i < n; i++ {
			br.ReadSE()
		}
	}
	br.ReadUE()    // max_num_ref_frames
	br.ReadBits(1) // gaps_in_frame_num_value_allowed_flag

	picWidthInMbs := br.ReadUE() + 1
	picHeightInMapUnits := br.ReadUE() + 1
	frameMbsOnly := br.ReadBits(1)
	if frameMbsOnly == 0 {
		br.ReadBits(1) // mb_adaptive_frame_field_flag
	}
	br.ReadBits(1) // direct_8x8_inference_flag

	width := picWidthInMbs * 16
	height := picHeightInMapUnits * 16 * (2 - frameMbsOnly)

	if br.ReadBits(1) == 1 { // frame_cropping_flag
		cropLeft := br.ReadUE()
		cropRight := br.ReadUE()
		cropTop := br.ReadUE()
		cropBottom := br.ReadUE()

		cropUnitX := uint32(1)
		cropUnitY := 2 - frameMbsOnly
		if chromaFormatIDC == 1 {
			cropUnitX = 2
			cropUnitY = 2 * (2 - frameMbsOnly)
		} else if chromaFormatIDC == 2 {
			cropUnitX = 2
		}
		width -= (cropLeft + cropRight) * cropUnitX
		height -= (cropTop + cropBottom) * cropUnitY
	}

	if width == 0 || height == 0 {
		return SPSInfo{}, errors.New("sps parse produced zero dimensions")
	}
	return SPSInfo{Width: width, Height: height}, nil
}

// FindSPS locates the first SPS NALU in an Annex-B config payload.
func FindSPS(payload []byte) []byte {
	for _, nalu := range splitNALUs(payload) {
		if len(nalu) > 0 && nalu[0]&0x1F == 7 {
			return nalu
		}
	}
	return nil
}

func splitNALUs(data []byte) [][]byte {
	var nalus [][]byte
	start := -1
	i := 0
	for i+2 < len(data) {
		if data[i] == 0 && data[i+1] == 0 && (data[i+2] == 1 || (i+3 < len(data) && data[i+2] == 0 && data[i+3] == 1)) {
			next := i + 3
			if data[i+2] == 0 {
				next = i + 4
			}
			if start >= 0 {
				nalus = append(nalus, data[start:i])
			}
			start = next
			i = next
			continue
		}
		i++
	}
	if start >= 0 && start < len(data) {
		nalus = append(nalus, data[start:])
	}
	return nalus
}

func skipScalingList(br *bitReader, size int) {
	lastScale, nextScale := int32(8), int32(8)
	for i := 0; i < size; i++ {
		if nextScale != 0 {
			nextScale = (lastScale + br.ReadSE() + 256) % 256
		}
		if nextScale != 0 {
			lastScale = nextScale
		}
	}
}

type bitReader struct {
	data   []byte
	offset int // bit offset
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

func (r *bitReader) ReadBits(n int) uint32 {
	var res uint32
	for i := 0; i < n; i++ {
		byteOffset := r.offset / 8
		bitOffset := 7 - (r.offset % 8)
		r.offset++
		if byteOffset >= len(r.data) {
			continue
		}
		bit := (r.data[byteOffset] >> bitOffset) & 1
		res = res<<1 | uint32(bit)
	}
	return res
}

// ReadUE reads an unsigned Exp-Golomb code.
func (r *bitReader) ReadUE() uint32 {
	leadingZeros := 0
	for {
		if r.ReadBits(1) == 1 {
			break
		}
		leadingZeros++
		if leadingZeros > 32 {
			return 0
		}
	}
	val := r.ReadBits(leadingZeros)
	return 1<<leadingZeros - 1 + val
}

// ReadSE reads a signed Exp-Golomb code.
func (r *bitReader) ReadSE() int32 {
	ue := r.ReadUE()
	if ue%2 == 0 {
		return -int32(ue / 2)
	}
	return int32(ue+1) / 2
}

// removeEmulationPreventionBytes strips the 0x03 escape inserted after
// every 00 00 in the RBSP.
func removeEmulationPreventionBytes(data []byte) []byte {
	if !bytes.Contains(data, []byte{0, 0, 3}) {
		return data
	}
	buf := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		if i+2 < len(data) && data[i] == 0 && data[i+1] == 0 && data[i+2] == 3 {
			buf = append(buf, 0, 0)
			i += 3
		} else {
			buf = append(buf, data[i])
			i++
		}
	}
	return buf
}
