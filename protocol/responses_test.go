package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecodeResponse(t *testing.T) {
	hello, err := EncodeResponse(StatusSuccess, []byte{0x08, 0x07, 0x06, 0x05})
	if err != nil {
		t.Fatalf("EncodeResponse() error: %v", err)
	}

	tests := []struct {
		name       string
		packet     []byte
		wantResult Status
		wantData   []byte
		wantErr    error
	}{
		{
			name:       "hello response",
			packet:     hello,
			wantResult: StatusSuccess,
			wantData:   []byte{0x08, 0x07, 0x06, 0x05},
		},
		{
			name:       "known vector",
			packet:     []byte{0x03, 0xF9, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x01, 0x01},
			wantResult: StatusSuccess,
			wantData:   []byte{0x01, 0x01},
		},
		{
			name:       "error result with no data",
			packet:     []byte{0x03, 0xFA, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00},
			wantResult: StatusInvalidParam,
			wantData:   []byte{},
		},
		{
			name:       "trailing window bytes ignored",
			packet:     append(bytes.Clone(hello), 0xAA, 0xBB, 0xCC),
			wantResult: StatusSuccess,
			wantData:   []byte{0x08, 0x07, 0x06, 0x05},
		},
		{
			name:    "short header",
			packet:  []byte{0x03, 0x00, 0x00},
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "wrong struct version",
			packet:  []byte{0x02, 0xFE, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
			wantErr: ErrInvalidHeaderVersion,
		},
		{
			name:    "reserved field set",
			packet:  []byte{0x03, 0xFC, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00},
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "truncated payload",
			packet:  hello[:len(hello)-1],
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "bad checksum",
			packet:  []byte{0x03, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x01, 0x01},
			wantErr: ErrChecksumMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := DecodeResponse(tt.packet)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if resp.Result != tt.wantResult {
				t.Errorf("result = %s, want %s", resp.Result, tt.wantResult)
			}
			if !bytes.Equal(resp.Data, tt.wantData) {
				t.Errorf("data = % X, want % X", resp.Data, tt.wantData)
			}
		})
	}
}

func TestDecodeResponseCorruptedPayload(t *testing.T) {
	packet, err := EncodeResponse(StatusSuccess, []byte("ec-firmware"))
	if err != nil {
		t.Fatalf("EncodeResponse() error: %v", err)
	}

	for i := ResponseHeaderSize; i < len(packet); i++ {
		corrupt := bytes.Clone(packet)
		corrupt[i]++

		if _, err := DecodeResponse(corrupt); !errors.Is(err, ErrChecksumMismatch) {
			t.Errorf("payload byte %d corrupted: error = %v, want ErrChecksumMismatch", i, err)
		}
	}
}

func TestDecodeResponseCorruptedHeader(t *testing.T) {
	packet, err := EncodeResponse(StatusSuccess, []byte("ec-firmware"))
	if err != nil {
		t.Fatalf("EncodeResponse() error: %v", err)
	}

	tests := []struct {
		index int
		want  error
	}{
		{0, ErrInvalidHeaderVersion},
		{1, ErrChecksumMismatch},
		{2, ErrChecksumMismatch},
		{3, ErrChecksumMismatch},
		{4, ErrMalformedResponse},
		{5, ErrMalformedResponse},
		{6, ErrMalformedResponse},
		{7, ErrMalformedResponse},
	}

	for _, tt := range tests {
		corrupt := bytes.Clone(packet)
		corrupt[tt.index]++

		_, err := DecodeResponse(corrupt)
		if !errors.Is(err, tt.want) {
			t.Errorf("header byte %d corrupted: error = %v, want %v", tt.index, err, tt.want)
		}
	}
}

func TestDecodeResponseHeader(t *testing.T) {
	hdr, err := DecodeResponseHeader([]byte{0x03, 0x5A, 0x01, 0x00, 0x10, 0x00, 0x00, 0x00})
	if err != nil {
		t.Fatalf("DecodeResponseHeader() error: %v", err)
	}

	want := ResponseHeader{StructVersion: 3, Checksum: 0x5A, Result: StatusInvalidCommand, DataLen: 0x10}
	if hdr != want {
		t.Errorf("header = %+v, want %+v", hdr, want)
	}
}

func TestEncodeResponse(t *testing.T) {
	packet, err := EncodeResponse(StatusBusy, []byte{0x01})
	if err != nil {
		t.Fatalf("EncodeResponse() error: %v", err)
	}

	want := []byte{0x03, 0xEB, 0x10, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01}
	if !bytes.Equal(packet, want) {
		t.Errorf("packet = % X, want % X", packet, want)
	}

	if _, err := EncodeResponse(StatusSuccess, make([]byte, MaxResponseData+1)); !errors.Is(err, ErrRequestTooLarge) {
		t.Errorf("oversized response: error = %v, want ErrRequestTooLarge", err)
	}
}

func BenchmarkDecodeResponse(b *testing.B) {
	packet, _ := EncodeResponse(StatusSuccess, make([]byte, MaxResponseData))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = DecodeResponse(packet)
	}
}
