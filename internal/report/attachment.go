package report

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/AndreyAkinshin/taptally/internal/tap"
)

// Diagnostic keys describing an embedded attachment.
const (
	keyFileName    = "file-name"
	keyFileSize    = "file-size"
	keyFileType    = "file-type"
	keyFileContent = "File-Content"
	keyFileContAlt = "File-content"

	defaultAttachmentName = "attachment"
)

// Attachment is a binary file embedded in a result's diagnostics.
type Attachment struct {
	FileName string
	Content  []byte
	Size     int // declared file-size, -1 when absent or invalid
	FileType string
}

// searchFrame is one level of the depth-first diagnostic search.
type searchFrame struct {
	diag      tap.Diagnostic
	parentKey string
	hasParent bool
	next      int
}

// FindAttachment searches the diagnostics of every result in set for the
// attachment identified by key. A mapping matches when it is nested under
// key itself, or when its file-name entry equals key. The first match in
// result order, depth-first within each result, wins.
func FindAttachment(set *tap.Set, key string) (*Attachment, bool) {
	if set == nil {
		return nil, false
	}
	for _, n := range set.Results {
		if len(n.Diagnostic) == 0 {
			continue
		}
		if a := searchDiagnostic(n.Diagnostic, key); a != nil {
			return a, true
		}
	}
	return nil, false
}

func searchDiagnostic(root tap.Diagnostic, key string) *Attachment {
	stack := []*searchFrame{{diag: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.next >= len(f.diag) {
			stack = stack[:len(stack)-1]
			continue
		}
		entry := f.diag[f.next]
		f.next++

		if entry.Value.IsNull() {
			continue
		}
		if nested, ok := entry.Value.AsMap(); ok {
			stack = append(stack, &searchFrame{diag: nested, parentKey: entry.Key, hasParent: true})
			continue
		}

		if !matches(f, entry, key) {
			continue
		}
		if a := attachmentFrom(f.diag); a != nil {
			return a
		}
	}
	return nil
}

func matches(f *searchFrame, entry tap.Entry, key string) bool {
	if f.hasParent && f.parentKey == key {
		return true
	}
	if !strings.EqualFold(entry.Key, keyFileName) {
		return false
	}
	s, ok := entry.Value.AsScalar()
	return ok && s == key
}

// attachmentFrom decodes the attachment stored in diag, or returns nil when
// diag has no usable File-Content.
func attachmentFrom(diag tap.Diagnostic) *Attachment {
	v, ok := diag.Get(keyFileContent)
	if !ok {
		v, ok = diag.Get(keyFileContAlt)
	}
	if !ok {
		return nil
	}
	encoded, ok := v.AsScalar()
	if !ok {
		return nil
	}
	content, ok := decodeBase64(encoded)
	if !ok {
		return nil
	}

	a := &Attachment{
		FileName: defaultAttachmentName,
		Content:  content,
		Size:     -1,
	}
	for _, e := range diag {
		s, ok := e.Value.AsScalar()
		if !ok {
			continue
		}
		switch {
		case strings.EqualFold(e.Key, keyFileSize):
			if size, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
				a.Size = int(size)
			}
		case strings.EqualFold(e.Key, keyFileType):
			a.FileType = s
		case strings.EqualFold(e.Key, keyFileName):
			a.FileName = s
		}
	}
	return a
}

// decodeBase64 accepts padded, unpadded and line-wrapped input.
func decodeBase64(s string) ([]byte, bool) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, true
		}
	}
	return nil, false
}
