package thumbnail

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 17)...)

func pngDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
}

func TestParse(t *testing.T) {
	msg, err := Parse([]byte(`{"kind":"consoleThumbnail","vmId":"vm-1","thumbnail":"blob:abc","width":320,"height":200}`))
	require.NoError(t, err)

	assert.Equal(t, "vm-1", msg.VMID)
	assert.Equal(t, "blob:abc", msg.Thumbnail)
	assert.Equal(t, 320, msg.Width)
	assert.Equal(t, 200, msg.Height)
}

func TestParseOptionalDimensions(t *testing.T) {
	msg, err := Parse([]byte(`{"kind":"consoleThumbnail","vmId":"vm-1","thumbnail":"blob:abc"}`))
	require.NoError(t, err)
	assert.Zero(t, msg.Width)
	assert.Zero(t, msg.Height)
}

func TestParseRejectsOtherShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `hello`},
		{"empty", ``},
		{"null", `null`},
		{"array", `[1,2,3]`},
		{"string", `"consoleThumbnail"`},
		{"other kind", `{"kind":"resize","vmId":"vm-1","thumbnail":"x"}`},
		{"missing kind", `{"vmId":"vm-1","thumbnail":"x"}`},
		{"missing vmId", `{"kind":"consoleThumbnail","thumbnail":"x"}`},
		{"empty vmId", `{"kind":"consoleThumbnail","vmId":"","thumbnail":"x"}`},
		{"numeric vmId", `{"kind":"consoleThumbnail","vmId":7,"thumbnail":"x"}`},
		{"missing thumbnail", `{"kind":"consoleThumbnail","vmId":"vm-1"}`},
		{"object thumbnail", `{"kind":"consoleThumbnail","vmId":"vm-1","thumbnail":{}}`},
		{"string width", `{"kind":"consoleThumbnail","vmId":"vm-1","thumbnail":"x","width":"320"}`},
		{"negative height", `{"kind":"consoleThumbnail","vmId":"vm-1","thumbnail":"x","height":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestValidate(t *testing.T) {
	textURI := "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello world"))
	lyingURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello world"))

	tests := []struct {
		name    string
		data    string
		maxSize int
		wantErr error
	}{
		{"png data uri", pngDataURI(), DefaultMaxBytes, nil},
		{"blob url is opaque", "blob:https://host/1234", DefaultMaxBytes, nil},
		{"text data uri", textURI, DefaultMaxBytes, ErrNotImage},
		{"declared image but text", lyingURI, DefaultMaxBytes, ErrNotImage},
		{"bad base64", "data:image/png;base64,!!!", DefaultMaxBytes, ErrMalformed},
		{"no payload separator", "data:image/png;base64", DefaultMaxBytes, ErrMalformed},
		{"too large", strings.Repeat("a", 65), 64, ErrTooLarge},
		{"no bound", strings.Repeat("a", 1<<20), 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Message{VMID: "vm-1", Thumbnail: tt.data}, tt.maxSize)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
