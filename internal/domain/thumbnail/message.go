package thumbnail

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/Galev01/LimiQuantix-sub002/internal/shared/types"
	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
)

// Kind is the discriminator of a thumbnail message
const Kind = "consoleThumbnail"

// DefaultMaxBytes bounds the encoded thumbnail payload
const DefaultMaxBytes = 512 * 1024

var (
	// ErrMalformed is returned for payloads that are not thumbnail messages
	ErrMalformed = errors.New("malformed thumbnail message")
	// ErrTooLarge is returned when the thumbnail exceeds the size bound
	ErrTooLarge = errors.New("thumbnail too large")
	// ErrNotImage is returned when a data URI does not carry an image
	ErrNotImage = errors.New("thumbnail is not an image")
)

// Message is a validated thumbnail message
type Message struct {
	VMID      string
	Thumbnail string
	Width     int
	Height    int
}

// ToThumbnail converts the message into the registry representation
func (m Message) ToThumbnail() types.Thumbnail {
	return types.Thumbnail{
		ImageData: m.Thumbnail,
		Width:     m.Width,
		Height:    m.Height,
	}
}

// Parse narrows an untyped cross-frame payload to a thumbnail message.
// Anything that does not have the exact shape yields ErrMalformed.
func Parse(raw []byte) (Message, error) {
	var fields map[string]interface{}
	if err := sonic.Unmarshal(raw, &fields); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fields == nil {
		return Message{}, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	if kind, _ := fields["kind"].(string); kind != Kind {
		return Message{}, fmt.Errorf("%w: unexpected kind", ErrMalformed)
	}

	vmID, _ := fields["vmId"].(string)
	if vmID == "" {
		return Message{}, fmt.Errorf("%w: vmId is required", ErrMalformed)
	}

	data, _ := fields["thumbnail"].(string)
	if data == "" {
		return Message{}, fmt.Errorf("%w: thumbnail is required", ErrMalformed)
	}

	width, err := dimension(fields, "width")
	if err != nil {
		return Message{}, err
	}
	height, err := dimension(fields, "height")
	if err != nil {
		return Message{}, err
	}

	return Message{VMID: vmID, Thumbnail: data, Width: width, Height: height}, nil
}

// Validate checks the payload against the size bound and, for data URIs,
// sniffs the decoded bytes. Other payloads (blob or http URLs) are opaque.
func Validate(msg Message, maxBytes int) error {
	if maxBytes > 0 && len(msg.Thumbnail) > maxBytes {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, len(msg.Thumbnail))
	}

	if !strings.HasPrefix(msg.Thumbnail, "data:") {
		return nil
	}

	declared, payload, err := decodeDataURI(msg.Thumbnail)
	if err != nil {
		return err
	}
	if declared != "" && !strings.HasPrefix(strings.ToLower(declared), "image/") {
		return fmt.Errorf("%w: declared %s", ErrNotImage, declared)
	}

	detected := mimetype.Detect(payload)
	if !strings.HasPrefix(detected.String(), "image/") {
		return fmt.Errorf("%w: detected %s", ErrNotImage, detected.String())
	}
	return nil
}

func dimension(fields map[string]interface{}, key string) (int, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return 0, nil
	}
	n, ok := v.(float64)
	if !ok || n < 0 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s must be a non-negative number", ErrMalformed, key)
	}
	return int(n), nil
}

// decodeDataURI splits data:[<mediatype>][;base64],<data>
func decodeDataURI(uri string) (string, []byte, error) {
	header, data, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: data URI without payload", ErrMalformed)
	}

	params := strings.Split(header, ";")
	mediaType := strings.TrimSpace(params[0])
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return "", nil, fmt.Errorf("%w: invalid base64: %v", ErrMalformed, err)
		}
		return mediaType, decoded, nil
	}

	decoded, err := url.PathUnescape(data)
	if err != nil {
		return "", nil, fmt.Errorf("%w: invalid escape: %v", ErrMalformed, err)
	}
	return mediaType, []byte(decoded), nil
}
