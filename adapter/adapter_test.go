package adapter

import (
	"testing"
	"testing/fstest"

	"github.com/wippyai/componentize-go/errors"
)

var coreModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func TestFromFS(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		want    errors.Kind
		wantLen int
	}{
		{"present", fstest.MapFS{"a.wasm": {Data: coreModule}}, "", len(coreModule)},
		{"missing", fstest.MapFS{}, errors.KindIO, 0},
		{"not wasm", fstest.MapFS{"a.wasm": {Data: []byte("<html>")}}, errors.KindValidation, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := fromFS(tt.files, "a.wasm")
			if errors.KindOf(err) != tt.want {
				t.Fatalf("err = %v, want kind %q", err, tt.want)
			}
			if len(b) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(b), tt.wantLen)
			}
		})
	}
}

func TestEmbeddedReactor(t *testing.T) {
	b, err := WASIPreview1Reactor()
	if err != nil {
		t.Skipf("adapter not fetched: %v", err)
	}
	again, _ := WASIPreview1Reactor()
	if &b[0] != &again[0] {
		t.Error("embedded adapter should be loaded once and shared")
	}
}
