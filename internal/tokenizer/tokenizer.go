package tokenizer

// Tokenizer is the core interface for text tokenization.
//
// Token ids are used directly as embedding-table indices, so every id a
// tokenizer can emit must lie in [0, VocabSize()).
type Tokenizer interface {
	// Encode converts text to token IDs.
	Encode(text string) ([]int32, error)

	// Decode converts token IDs back to text.
	Decode(tokens []int32) (string, error)

	// VocabSize returns the number of distinct token ids, i.e. the
	// num_embeddings of a table indexed by this tokenizer.
	VocabSize() int

	// PadToken returns the padding token ID.
	// Returns -1 if not applicable.
	PadToken() int32
}
