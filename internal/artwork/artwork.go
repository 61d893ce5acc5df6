// Package artwork extracts embedded cover images from audio files. It
// reads only the leading ID3v2 tag of a track, so a short ranged fetch of
// the file head is enough to serve artwork without downloading the song.
package artwork

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// maxHeadBytes bounds how much of a remote file we pull in; cover
	// frames live near the start of the tag.
	maxHeadBytes = 1 << 20

	fetchTimeout = 5 * time.Second
)

var (
	ErrNoTag     = errors.New("artwork: no ID3v2 tag")
	ErrNoPicture = errors.New("artwork: no picture frame")
)

var httpClient = &http.Client{Timeout: fetchTimeout}

// FromURL fetches the head of a track and returns the embedded picture
// bytes and their MIME type.
func FromURL(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", maxHeadBytes-1))

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, "", fmt.Errorf("artwork: unexpected status %d fetching %s", resp.StatusCode, url)
	}

	head, err := io.ReadAll(io.LimitReader(resp.Body, maxHeadBytes))
	if err != nil {
		return nil, "", err
	}

	return Extract(head)
}

// DataURI encodes picture bytes as a data: URI suitable for an <img> src.
func DataURI(data []byte, mime string) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Extract walks an ID3v2.3 or v2.4 tag and returns the first APIC frame's
// picture data. The MIME type comes from the frame when present and is
// sniffed from the bytes otherwise.
func Extract(head []byte) ([]byte, string, error) {
	if len(head) < 10 || !bytes.HasPrefix(head, []byte("ID3")) {
		return nil, "", ErrNoTag
	}

	major := head[3]
	if major != 3 && major != 4 {
		return nil, "", ErrNoTag
	}
	flags := head[5]

	tagSize := synchsafe(head[6:10])
	body := head[10:]
	if tagSize < len(body) {
		body = body[:tagSize]
	}

	// extended header precedes the frames when the flag bit is set
	if flags&0x40 != 0 {
		if len(body) < 4 {
			return nil, "", ErrNoPicture
		}
		var extSize int
		if major == 4 {
			extSize = synchsafe(body[0:4])
		} else {
			extSize = int(body[0])<<24 | int(body[1])<<16 | int(body[2])<<8 | int(body[3])
			extSize += 4
		}
		if extSize < 0 || extSize > len(body) {
			return nil, "", ErrNoPicture
		}
		body = body[extSize:]
	}

	for len(body) >= 10 {
		id := string(body[0:4])
		if id[0] == 0 {
			break // padding
		}

		var frameSize int
		if major == 4 {
			frameSize = synchsafe(body[4:8])
		} else {
			frameSize = int(body[4])<<24 | int(body[5])<<16 | int(body[6])<<8 | int(body[7])
		}
		if frameSize <= 0 || frameSize > len(body)-10 {
			break
		}

		frame := body[10 : 10+frameSize]
		if id == "APIC" {
			return parseAPIC(frame)
		}
		body = body[10+frameSize:]
	}

	return nil, "", ErrNoPicture
}

// parseAPIC splits an APIC frame into its picture bytes and MIME type.
// Layout: text encoding byte, null-terminated MIME string, picture type
// byte, description terminated per the encoding, then the image data.
func parseAPIC(frame []byte) ([]byte, string, error) {
	if len(frame) < 4 {
		return nil, "", ErrNoPicture
	}

	encoding := frame[0]
	rest := frame[1:]

	mimeEnd := bytes.IndexByte(rest, 0)
	if mimeEnd < 0 {
		return nil, "", ErrNoPicture
	}
	mime := string(rest[:mimeEnd])
	rest = rest[mimeEnd+1:]

	if len(rest) < 1 {
		return nil, "", ErrNoPicture
	}
	rest = rest[1:] // picture type

	// UTF-16 encodings terminate the description with a double null
	if encoding == 1 || encoding == 2 {
		end := indexDoubleNull(rest)
		if end < 0 {
			return nil, "", ErrNoPicture
		}
		rest = rest[end+2:]
	} else {
		end := bytes.IndexByte(rest, 0)
		if end < 0 {
			return nil, "", ErrNoPicture
		}
		rest = rest[end+1:]
	}

	if len(rest) == 0 {
		return nil, "", ErrNoPicture
	}

	if mime == "" {
		mime = mimetype.Detect(rest).String()
	}
	return rest, mime, nil
}

func indexDoubleNull(b []byte) int {
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			return i
		}
	}
	return -1
}

func synchsafe(b []byte) int {
	return int(b[0]&0x7f)<<21 | int(b[1]&0x7f)<<14 | int(b[2]&0x7f)<<7 | int(b[3]&0x7f)
}
