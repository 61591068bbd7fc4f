package media

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"os"
	"regexp"
	"strings"

	"image-browser/internal/logging"
)

// NoPromptFound is returned when an image carries no recognizable
// prompt. It is stored as-is so the frontend can render it directly.
const NoPromptFound = "No metadata found"

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// promptPattern matches the workflow node that carries the prompt: a
// node titled PromptTextForBrowser whose first widget value is the
// prompt text.
var promptPattern = regexp.MustCompile(
	`(?s)"title"\s*:\s*"PromptTextForBrowser",.*?"widgets_values"\s*:\s*\[\s*\[\s*"([^"]+)"\s*\]\s*\]`)

// PromptExtractor pulls generation prompts out of PNG text chunks.
type PromptExtractor struct{}

func NewPromptExtractor() *PromptExtractor {
	return &PromptExtractor{}
}

// Extract returns the prompt embedded in the image, or NoPromptFound.
// Extraction never fails: unreadable files, non-PNG formats, and
// malformed chunks all degrade to the fallback text.
func (e *PromptExtractor) Extract(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Warn("Prompt extraction: failed to read %s: %v", path, err)
		return NoPromptFound
	}

	text := collectTextChunks(data)
	if text == "" {
		return NoPromptFound
	}

	match := promptPattern.FindStringSubmatch(text)
	if match == nil {
		return NoPromptFound
	}
	return strings.TrimSpace(match[1])
}

// collectTextChunks walks the PNG chunk stream and concatenates the
// payloads of tEXt, iTXt and zlib-compressed zTXt chunks. Parsing
// stops at the first malformed chunk; whatever was collected before it
// is still used.
func collectTextChunks(data []byte) string {
	if !bytes.HasPrefix(data, pngSignature) {
		return ""
	}

	var sb strings.Builder
	offset := len(pngSignature)

	for offset+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		chunkType := string(data[offset+4 : offset+8])

		payloadStart := offset + 8
		payloadEnd := payloadStart + length
		if length < 0 || payloadEnd > len(data) {
			break
		}
		payload := data[payloadStart:payloadEnd]
		offset = payloadEnd + 4 // skip CRC

		switch chunkType {
		case "tEXt", "iTXt":
			sb.Write(payload)
		case "zTXt":
			if text, ok := inflateZTXT(payload); ok {
				sb.WriteString(text)
			}
		case "IEND":
			return strings.TrimSpace(sb.String())
		}
	}

	return strings.TrimSpace(sb.String())
}

// inflateZTXT decompresses a zTXt chunk payload: keyword, null byte,
// compression method byte, zlib stream.
func inflateZTXT(payload []byte) (string, bool) {
	null := bytes.IndexByte(payload, 0)
	if null < 0 || null+2 >= len(payload) {
		return "", false
	}

	r, err := zlib.NewReader(bytes.NewReader(payload[null+2:]))
	if err != nil {
		logging.Debug("Prompt extraction: bad zTXt stream: %v", err)
		return "", false
	}
	defer r.Close()

	text, err := io.ReadAll(r)
	if err != nil {
		logging.Debug("Prompt extraction: failed to inflate zTXt: %v", err)
		return "", false
	}
	return string(text), true
}
