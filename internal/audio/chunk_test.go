package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestRMS(t *testing.T) {
	samples := []float32{0.5, -0.5, 0.5, -0.5}
	rms := RMS(samples)
	if math.Abs(rms-0.5) > 1e-6 {
		t.Errorf("Expected RMS 0.5, got %f", rms)
	}

	if RMS(nil) != 0 {
		t.Error("Expected RMS of empty input to be 0")
	}
}

func TestDecodePCM16(t *testing.T) {
	// 0x4000 = 16384 = 0.5 in float; 0x8000 = -32768 = -1.0.
	data := []byte{0x00, 0x40, 0x00, 0x80}
	samples := DecodePCM16(data)

	if len(samples) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(samples))
	}
	if math.Abs(float64(samples[0])-0.5) > 1e-3 {
		t.Errorf("Expected first sample 0.5, got %f", samples[0])
	}
	if samples[1] != -1.0 {
		t.Errorf("Expected second sample -1.0, got %f", samples[1])
	}
}

func TestDecodePCM16_DropsTrailingByte(t *testing.T) {
	samples := DecodePCM16([]byte{0x00, 0x40, 0xff})
	if len(samples) != 1 {
		t.Errorf("Expected odd trailing byte dropped, got %d samples", len(samples))
	}
}

func TestEncodePCM16_ClipsOutOfRange(t *testing.T) {
	data := EncodePCM16([]float32{2.0, -2.0})

	hi := int16(binary.LittleEndian.Uint16(data[0:2]))
	lo := int16(binary.LittleEndian.Uint16(data[2:4]))
	if hi != 32767 {
		t.Errorf("Expected positive overflow clipped to 32767, got %d", hi)
	}
	if lo != -32767 {
		t.Errorf("Expected negative overflow clipped to -32767, got %d", lo)
	}
}

func TestEncodeWAV_Header(t *testing.T) {
	samples := make([]float32, 160)
	buf := EncodeWAV(samples, 16000)

	if len(buf) != 44+320 {
		t.Fatalf("Expected 44-byte header plus 320 bytes of PCM, got %d", len(buf))
	}
	if string(buf[0:4]) != "RIFF" || string(buf[8:12]) != "WAVE" {
		t.Error("Expected RIFF/WAVE signature")
	}
	if rate := binary.LittleEndian.Uint32(buf[24:28]); rate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", rate)
	}
	if size := binary.LittleEndian.Uint32(buf[40:44]); size != 320 {
		t.Errorf("Expected data chunk size 320, got %d", size)
	}
}
