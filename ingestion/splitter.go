package ingestion

import (
	"strings"
)

// DefaultSeparators orders split candidates from most to least structural:
// reStructuredText heading underlines, code-block directives, blank lines,
// newlines, spaces. Raw character cuts are the implicit last resort.
var DefaultSeparators = []string{
	"\n=======================================\n",
	"\n---------------------------------------\n",
	"\n~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~\n",
	"\n.. code-block:: python\n",
	"\n\n",
	"\n",
	" ",
}

// Splitter cuts document text into overlapping windows of at most Size
// bytes, preferring structural boundaries over arbitrary cuts. Overlap is
// the byte budget shared between consecutive windows.
type Splitter struct {
	Size       int
	Overlap    int
	Separators []string
}

func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Splitter{Size: size, Overlap: overlap, Separators: DefaultSeparators}
}

// Split produces the ordered chunk texts for one document. Whitespace-only
// windows are dropped, so an effectively empty document yields no chunks.
func (s *Splitter) Split(text string) []string {
	pieces := s.split(text, s.Separators)
	return s.merge(pieces)
}

// split recursively cuts text into pieces no longer than Size. Each
// separator stays attached to the piece that follows it, so concatenating
// the pieces reproduces the input exactly.
func (s *Splitter) split(text string, seps []string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= s.Size {
		return []string{text}
	}
	if len(seps) == 0 {
		return s.hardSplit(text)
	}

	sep := seps[0]
	rest := seps[1:]
	if !strings.Contains(text, sep) {
		return s.split(text, rest)
	}

	parts := strings.Split(text, sep)
	pieces := make([]string, 0, len(parts))
	for i, part := range parts {
		piece := part
		if i > 0 {
			piece = sep + part
		}
		if piece == "" {
			continue
		}
		if len(piece) > s.Size {
			pieces = append(pieces, s.split(piece, rest)...)
		} else {
			pieces = append(pieces, piece)
		}
	}
	return pieces
}

// hardSplit cuts separator-free text at raw boundaries. Segments are sized
// to the overlap budget so the merge step can still carry overlap between
// windows; cuts never land inside a multi-byte rune.
func (s *Splitter) hardSplit(text string) []string {
	seg := s.Overlap
	if seg <= 0 {
		seg = s.Size
	}

	pieces := make([]string, 0, len(text)/seg+1)
	start := 0
	for i := range text {
		if i-start >= seg {
			pieces = append(pieces, text[start:i])
			start = i
		}
	}
	if start < len(text) {
		pieces = append(pieces, text[start:])
	}
	return pieces
}

// merge reassembles pieces into windows of at most Size bytes, carrying
// whole trailing pieces within the Overlap budget into the next window.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var window []string
	winLen := 0

	emit := func() {
		chunk := strings.Join(window, "")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces {
		if winLen > 0 && winLen+len(piece) > s.Size {
			emit()

			// Seed the next window with trailing pieces inside the
			// overlap budget, shedding them again if the new piece
			// alone would blow the size bound.
			kept := make([]string, 0, len(window))
			keptLen := 0
			for i := len(window) - 1; i >= 0; i-- {
				if keptLen+len(window[i]) > s.Overlap {
					break
				}
				kept = append([]string{window[i]}, kept...)
				keptLen += len(window[i])
			}
			for keptLen > 0 && keptLen+len(piece) > s.Size {
				keptLen -= len(kept[0])
				kept = kept[1:]
			}
			window = kept
			winLen = keptLen
		}
		window = append(window, piece)
		winLen += len(piece)
	}

	if winLen > 0 {
		emit()
	}
	return chunks
}
