package imaging

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// A payload is a self-describing image string in data-URL form:
// "data:<mime>;base64,<bytes>". It is the only image representation that
// crosses package boundaries, so sessions can be serialized as plain JSON.

var (
	// ErrEmptyPayload is returned when an operation receives no image data.
	ErrEmptyPayload = errors.New("imaging: empty image payload")
	// ErrUnknownMIME is returned when a payload does not declare a MIME type.
	ErrUnknownMIME = errors.New("imaging: payload mime type could not be determined")
)

const payloadPrefix = "data:"

// EncodePayload builds a data-URL payload from raw image bytes.
func EncodePayload(mime string, data []byte) string {
	return payloadPrefix + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodePayload splits a data-URL payload into its MIME type and raw bytes.
func DecodePayload(payload string) (string, []byte, error) {
	mime, raw, err := splitPayload(payload)
	if err != nil {
		return "", nil, err
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", nil, fmt.Errorf("imaging: decode payload body: %w", err)
	}
	return mime, data, nil
}

// PayloadMIME extracts the declared MIME type without decoding the body.
func PayloadMIME(payload string) (string, error) {
	mime, _, err := splitPayload(payload)
	return mime, err
}

func splitPayload(payload string) (mime, raw string, err error) {
	if strings.TrimSpace(payload) == "" {
		return "", "", ErrEmptyPayload
	}
	rest, ok := strings.CutPrefix(payload, payloadPrefix)
	if !ok {
		return "", "", ErrUnknownMIME
	}
	head, body, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", ErrUnknownMIME
	}
	mime = strings.TrimSuffix(head, ";base64")
	if mime == "" || mime == head {
		return "", "", ErrUnknownMIME
	}
	return mime, body, nil
}
