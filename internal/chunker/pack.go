package chunker

import (
	"strings"

	"github.com/kailas-cloud/lograg/internal/domain/chunk"
	"github.com/kailas-cloud/lograg/internal/domain/logdoc"
)

type span struct{ from, to int } // entries[from:to]

// pack greedily groups consecutive entries up to MaxSize characters. The next
// chunk restarts on the trailing whole entries that fit in Overlap characters.
// A lone entry over MaxSize becomes its own chunk.
func (c *Chunker) pack(entries []entry, format logdoc.Format) []chunk.Chunk {
	if len(entries) == 0 {
		return nil
	}

	var spans []span
	i := 0
	for i < len(entries) {
		j, size := i, 0
		for j < len(entries) {
			add := runeLen(entries[j].text)
			if j > i {
				add++ // "\n"
			}
			if j > i && size+add > c.cfg.MaxSize {
				break
			}
			size += add
			j++
		}
		spans = append(spans, span{from: i, to: j})
		if j >= len(entries) {
			break
		}

		next, ov := j, 0
		for k := j - 1; k > i; k-- {
			l := runeLen(entries[k].text) + 1
			if ov+l > c.cfg.Overlap {
				break
			}
			ov += l
			next = k
		}
		// overlap that leaves no room for a new entry is dropped
		if next < j && ov+runeLen(entries[j].text) > c.cfg.MaxSize {
			next = j
		}
		i = next
	}

	spans = c.growTail(entries, spans)

	out := make([]chunk.Chunk, 0, len(spans))
	for _, s := range spans {
		out = append(out, buildChunk(entries[s.from:s.to], format))
	}
	return out
}

// growTail extends a final chunk smaller than MinSize backwards over whole
// entries of its predecessor, staying within MaxSize.
func (c *Chunker) growTail(entries []entry, spans []span) []span {
	n := len(spans)
	if n < 2 {
		return spans
	}
	last, prev := &spans[n-1], spans[n-2]
	size := spanSize(entries, *last)
	for size < c.cfg.MinSize && last.from > prev.from+1 {
		add := runeLen(entries[last.from-1].text) + 1
		if size+add > c.cfg.MaxSize {
			break
		}
		size += add
		last.from--
	}
	return spans
}

func spanSize(entries []entry, s span) int {
	size := 0
	for k := s.from; k < s.to; k++ {
		size += runeLen(entries[k].text)
	}
	return size + (s.to - s.from - 1)
}

func buildChunk(es []entry, format logdoc.Format) chunk.Chunk {
	texts := make([]string, len(es))
	for k := range es {
		texts[k] = es[k].text
	}
	// entries are non-empty and ordered by line; metadata is the first entry's
	return chunk.Reconstruct(strings.Join(texts, "\n"), es[0].startLine, es[len(es)-1].endLine, format, es[0].meta)
}
