package embedding

import "strings"

// CLIP special token IDs.
const (
	startOfText = 49406
	endOfText   = 49407
	vocabSize   = 49408
)

// Tokenizer produces token IDs for the CLIP text tower (input_ids, attention_mask).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask []int64)
}

// SimpleTokenizer is a word-split tokenizer with hash-based token IDs. It is
// not the BPE vocabulary CLIP was trained with, but keeps equal texts mapped
// to equal IDs, which is all the catalog corpus needs.
type SimpleTokenizer struct{}

// Tokenize splits text into words and produces padded token IDs up to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask []int64) {
	if maxTokens <= 0 {
		maxTokens = 77
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)

	inputIDs[0] = startOfText
	attentionMask[0] = 1

	pos := 1
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = int64(hashString(word) % (vocabSize - 2))
		attentionMask[pos] = 1
		pos++
	}
	if pos < maxTokens {
		inputIDs[pos] = endOfText
		attentionMask[pos] = 1
	}
	return inputIDs, attentionMask
}
