// Package tokenizer turns text into embedding-table indices.
//
// Supported tokenizers:
//   - TikToken: OpenAI BPE encodings via github.com/pkoukk/tiktoken-go
//   - Vocabulary: whitespace tokenizer over a fixed word list, with a
//     reserved padding id (0) and unknown id (1)
//
// The batching helpers lay token ids out the two ways the lookup layers
// consume them:
//   - PackBags: flat indices plus bag offsets for EmbeddingBag (1-D input)
//   - PadBatch: a [B, L] matrix padded with the pad id for Embedding with a
//     padding index
package tokenizer
