package testutil

import (
	"context"
	"strings"

	"github.com/tuanio/noisy-student-training-aped/asr"
	"github.com/tuanio/noisy-student-training-aped/tensor"
)

// VocabProcessor is a deterministic asr.TextProcessor over a fixed
// vocabulary. Unseen words are assigned the next free ID on first use, so
// encodings are stable within a test.
type VocabProcessor struct {
	ids   map[string]int32
	words map[int32]string
	next  int32
}

// NewVocabProcessor seeds the vocabulary in the given word order, starting
// IDs at 1 so 0 stays free for padding.
func NewVocabProcessor(words ...string) *VocabProcessor {
	p := &VocabProcessor{
		ids:   make(map[string]int32),
		words: make(map[int32]string),
		next:  1,
	}
	for _, w := range words {
		p.idFor(w)
	}
	return p
}

func (p *VocabProcessor) idFor(word string) int32 {
	if id, ok := p.ids[word]; ok {
		return id
	}
	id := p.next
	p.next++
	p.ids[word] = id
	p.words[id] = word
	return id
}

func (p *VocabProcessor) Tokenize(text string) []string { return strings.Fields(text) }

func (p *VocabProcessor) TextToIDs(tokens []string) []int32 {
	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = p.idFor(tok)
	}
	return ids
}

func (p *VocabProcessor) IDsToText(ids []int32) string {
	words := make([]string, 0, len(ids))
	for _, id := range ids {
		if w, ok := p.words[id]; ok {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

// SliceLoader is an asr.DataLoader over a fixed batch slice.
type SliceLoader struct {
	batches []asr.Batch
	pos     int
}

// NewSliceLoader creates a loader yielding the given batches in order.
func NewSliceLoader(batches ...asr.Batch) *SliceLoader {
	return &SliceLoader{batches: batches}
}

func (l *SliceLoader) Len() int { return len(l.batches) }

func (l *SliceLoader) Reset() error {
	l.pos = 0
	return nil
}

func (l *SliceLoader) Next(_ context.Context) (asr.Batch, bool, error) {
	if l.pos >= len(l.batches) {
		return asr.Batch{}, false, nil
	}
	b := l.batches[l.pos]
	l.pos++
	return b, true, nil
}

// Emission is one captured sink call.
type Emission struct {
	Name  string
	Value float64
}

// CaptureSink records every metric emission for assertion.
type CaptureSink struct {
	Emissions []Emission
}

func (s *CaptureSink) Emit(name string, value float64) {
	s.Emissions = append(s.Emissions, Emission{Name: name, Value: value})
}

// Named returns the captured values for one metric name, in order.
func (s *CaptureSink) Named(name string) []float64 {
	var out []float64
	for _, e := range s.Emissions {
		if e.Name == name {
			out = append(out, e.Value)
		}
	}
	return out
}

// MakeBatch builds a supervised batch of the given size with one feature
// frame per example and the provided integer targets.
func MakeBatch(targets [][]int32) asr.Batch {
	n := len(targets)
	lens := make([]int, n)
	for i, tgt := range targets {
		lens[i] = len(tgt)
	}
	featLens := make([]int, n)
	for i := range featLens {
		featLens[i] = 1
	}
	return asr.Batch{
		Features:    tensor.New(n, 1),
		FeatureLens: featLens,
		Targets:     targets,
		TargetLens:  lens,
	}
}
