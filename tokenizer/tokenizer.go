// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tokenizer turns text into index batches for embedding layers.
//
// Supported tokenizers:
//   - TikToken: OpenAI BPE encodings (cl100k_base, p50k_base, r50k_base)
//   - Vocabulary: whitespace word vocabulary built from a corpus
//
// Batch helpers:
//   - PackBags: flat indices plus offsets for EmbeddingBag
//   - PadBatch: rectangular id matrix for Embedding
//
// Example usage:
//
//	import "github.com/born-ml/embedbag/tokenizer"
//
//	vocab := tokenizer.BuildVocabulary(corpus, 1)
//	batch, err := tokenizer.PackBags(vocab, docs)
//	if err != nil {
//	    log.Fatal(err)
//	}
package tokenizer

import (
	"github.com/born-ml/embedbag/internal/tokenizer"
)

// Tokenizer is the interface for all tokenizers.
type Tokenizer = tokenizer.Tokenizer

// TikToken wraps the tiktoken-go library.
type TikToken = tokenizer.TikToken

// NewTikToken creates a tokenizer for an encoding name such as "cl100k_base".
func NewTikToken(encodingName string) (*TikToken, error) {
	return tokenizer.NewTikToken(encodingName)
}

// NewTikTokenForModel creates a tokenizer for a model name such as "gpt-4".
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	return tokenizer.NewTikTokenForModel(modelName)
}

// Vocabulary is a word-level tokenizer with reserved pad and unknown ids.
type Vocabulary = tokenizer.Vocabulary

// Reserved vocabulary ids.
const (
	PadID = tokenizer.PadID
	UnkID = tokenizer.UnkID
)

// NewVocabulary creates a vocabulary from an explicit word list.
func NewVocabulary(words []string) *Vocabulary {
	return tokenizer.NewVocabulary(words)
}

// BuildVocabulary collects words occurring at least minCount times in corpus.
func BuildVocabulary(corpus []string, minCount int) *Vocabulary {
	return tokenizer.BuildVocabulary(corpus, minCount)
}

// BagBatch holds flattened bag indices and their start offsets.
type BagBatch = tokenizer.BagBatch

// PackBags encodes each document as one bag.
func PackBags(tok Tokenizer, docs []string) (BagBatch, error) {
	return tokenizer.PackBags(tok, docs)
}

// PaddedBatch holds a rows by cols matrix of ids.
type PaddedBatch = tokenizer.PaddedBatch

// PadBatch encodes documents and pads them to the longest one with padID.
func PadBatch(tok Tokenizer, docs []string, padID int32) (PaddedBatch, error) {
	return tokenizer.PadBatch(tok, docs, padID)
}
