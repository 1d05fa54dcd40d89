package tokenizer

import (
	"fmt"
	"sort"
	"strings"
)

// Reserved ids of a Vocabulary.
const (
	PadID int32 = 0
	UnkID int32 = 1
)

const (
	padWord = "<pad>"
	unkWord = "<unk>"
)

// Vocabulary is a whitespace tokenizer over a fixed word list.
//
// Id 0 is the padding token and id 1 the unknown token; words follow from
// id 2. Lookups are case-insensitive.
type Vocabulary struct {
	words []string
	ids   map[string]int32
}

// NewVocabulary builds a vocabulary from the given words. Duplicates are
// ignored; order of first appearance fixes the ids.
func NewVocabulary(words []string) *Vocabulary {
	v := &Vocabulary{
		words: []string{padWord, unkWord},
		ids:   map[string]int32{padWord: PadID, unkWord: UnkID},
	}
	for _, w := range words {
		v.add(strings.ToLower(w))
	}
	return v
}

// BuildVocabulary collects every word of the corpus that occurs at least
// minCount times. Ids are assigned by descending count, then alphabetically.
func BuildVocabulary(corpus []string, minCount int) *Vocabulary {
	counts := make(map[string]int)
	for _, doc := range corpus {
		for _, w := range strings.Fields(strings.ToLower(doc)) {
			counts[w]++
		}
	}

	words := make([]string, 0, len(counts))
	for w, c := range counts {
		if c >= minCount {
			words = append(words, w)
		}
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	return NewVocabulary(words)
}

func (v *Vocabulary) add(w string) {
	if _, ok := v.ids[w]; ok {
		return
	}
	v.ids[w] = int32(len(v.words)) //nolint:gosec // G115: vocabulary size < 2^31
	v.words = append(v.words, w)
}

// Encode splits text on whitespace and maps each word to its id; unknown
// words map to UnkID.
func (v *Vocabulary) Encode(text string) ([]int32, error) {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]int32, len(fields))
	for i, w := range fields {
		id, ok := v.ids[w]
		if !ok {
			id = UnkID
		}
		out[i] = id
	}
	return out, nil
}

// Decode joins the words of the given ids with single spaces. Padding ids
// are dropped.
func (v *Vocabulary) Decode(tokens []int32) (string, error) {
	words := make([]string, 0, len(tokens))
	for _, id := range tokens {
		if id < 0 || int(id) >= len(v.words) {
			return "", fmt.Errorf("vocabulary: token id %d out of range [0, %d)", id, len(v.words))
		}
		if id == PadID {
			continue
		}
		words = append(words, v.words[id])
	}
	return strings.Join(words, " "), nil
}

// VocabSize returns the number of ids, reserved ones included.
func (v *Vocabulary) VocabSize() int {
	return len(v.words)
}

// PadToken returns PadID.
func (v *Vocabulary) PadToken() int32 {
	return PadID
}
