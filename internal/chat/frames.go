package chat

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/set-night/streamchat/internal/domain"
)

const (
	framePrefix = "data: "
	doneFrame   = "[DONE]"
)

// completionChunk is the payload of one streamed frame.
type completionChunk struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (c *completionChunk) content() string {
	if len(c.Choices) == 0 || c.Choices[0].Delta.Content == nil {
		return ""
	}
	return *c.Choices[0].Delta.Content
}

// frameResult is what one chunk contributed to the stream.
type frameResult struct {
	text   string
	done   bool
	errors []error
}

// frameDecoder splits transport chunks into frame lines. A line that is cut by a chunk
// boundary is held back until the rest of it arrives.
type frameDecoder struct {
	pending []byte
}

func (d *frameDecoder) feed(chunk []byte) frameResult {
	data := append(d.pending, chunk...)
	d.pending = nil

	var res frameResult
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		d.decodeLine(string(data[:i]), &res)
		data = data[i+1:]
		if res.done {
			return res
		}
	}
	if len(data) > 0 {
		d.pending = append([]byte(nil), data...)
	}
	return res
}

// flush decodes a final line that had no trailing newline.
func (d *frameDecoder) flush() frameResult {
	var res frameResult
	if len(d.pending) > 0 {
		d.decodeLine(string(d.pending), &res)
		d.pending = nil
	}
	return res
}

func (d *frameDecoder) decodeLine(line string, res *frameResult) {
	line = strings.TrimRight(line, "\r")
	if !strings.HasPrefix(line, framePrefix) {
		return
	}
	payload := line[len(framePrefix):]
	if strings.TrimSpace(payload) == doneFrame {
		res.done = true
		return
	}

	var chunk completionChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		res.errors = append(res.errors, &domain.FrameParseError{Line: line, Err: err})
		return
	}
	res.text += chunk.content()
}
