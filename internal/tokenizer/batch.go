package tokenizer

import "fmt"

// BagBatch is a batch of documents laid out as EmbeddingBag 1-D input.
//
// Bag i spans Indices[Offsets[i]:Offsets[i+1]] (the last bag runs to the
// end). Documents without tokens become empty bags.
type BagBatch struct {
	Indices []int32
	Offsets []int32
}

// NumBags returns the number of bags.
func (b BagBatch) NumBags() int {
	return len(b.Offsets)
}

// PackBags encodes every document and concatenates the ids into one flat
// index list with one bag per document.
func PackBags(tok Tokenizer, docs []string) (BagBatch, error) {
	if len(docs) == 0 {
		return BagBatch{}, fmt.Errorf("pack bags: no documents")
	}

	batch := BagBatch{Offsets: make([]int32, 0, len(docs))}
	for i, doc := range docs {
		ids, err := tok.Encode(doc)
		if err != nil {
			return BagBatch{}, fmt.Errorf("pack bags: document %d: %w", i, err)
		}
		batch.Offsets = append(batch.Offsets, int32(len(batch.Indices))) //nolint:gosec // G115: batch size < 2^31
		batch.Indices = append(batch.Indices, ids...)
	}
	return batch, nil
}

// PaddedBatch is a batch of documents laid out as a row-major [Rows, Cols]
// index matrix for Embedding.
type PaddedBatch struct {
	IDs  []int32
	Rows int
	Cols int
}

// PadBatch encodes every document and right-pads each row with padID to
// the length of the longest document. padID must be a valid id (>= 0).
func PadBatch(tok Tokenizer, docs []string, padID int32) (PaddedBatch, error) {
	if len(docs) == 0 {
		return PaddedBatch{}, fmt.Errorf("pad batch: no documents")
	}
	if padID < 0 {
		return PaddedBatch{}, fmt.Errorf("pad batch: padding id %d is negative", padID)
	}

	encoded := make([][]int32, len(docs))
	cols := 1
	for i, doc := range docs {
		ids, err := tok.Encode(doc)
		if err != nil {
			return PaddedBatch{}, fmt.Errorf("pad batch: document %d: %w", i, err)
		}
		encoded[i] = ids
		cols = max(cols, len(ids))
	}

	batch := PaddedBatch{IDs: make([]int32, len(docs)*cols), Rows: len(docs), Cols: cols}
	for i, ids := range encoded {
		row := batch.IDs[i*cols : (i+1)*cols]
		n := copy(row, ids)
		for j := n; j < cols; j++ {
			row[j] = padID
		}
	}
	return batch, nil
}
