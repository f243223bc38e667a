package server

import (
	"log"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// DeltaThreshold defines the threshold for using delta vs full response.
// If the delta size is more than this percentage of full size, return full instead.
const DeltaThreshold = 0.7

// SemanticTokensDeltaResult wraps either a delta or full response.
type SemanticTokensDeltaResult struct {
	IsDelta bool                          // true if delta, false if full
	Delta   *protocol.SemanticTokensDelta // set if IsDelta == true
	Full    *protocol.SemanticTokens      // set if IsDelta == false
}

// ComputeSemanticTokensDelta computes the delta between old and new tokens.
// If the delta is too large or oldTokens is empty, it returns a full response instead.
func ComputeSemanticTokensDelta(oldTokens, newTokens []SemanticToken, newResultID string) *SemanticTokensDeltaResult {
	newEncoded := EncodeSemanticTokens(newTokens)

	if len(oldTokens) == 0 {
		log.Println("No old tokens, returning full semantic tokens")

		return fullResult(newEncoded, newResultID)
	}

	if len(newTokens) == 0 {
		log.Println("No new tokens, returning delete-all delta")

		return deltaResult([]protocol.SemanticTokensEdit{{
			Start:       0,
			DeleteCount: uint32(len(oldTokens) * 5),
			Data:        []uint32{},
		}}, newResultID)
	}

	edits := computeEdits(EncodeSemanticTokens(oldTokens), newEncoded)

	deltaSize := calculateDeltaSize(edits)
	fullSize := len(newEncoded)

	if float64(deltaSize) > float64(fullSize)*DeltaThreshold {
		log.Printf("Delta too large (%d vs %d), returning full semantic tokens", deltaSize, fullSize)

		return fullResult(newEncoded, newResultID)
	}

	log.Printf("Returning delta with %d edits (delta size: %d, full size: %d)", len(edits), deltaSize, fullSize)

	return deltaResult(edits, newResultID)
}

func fullResult(data []uint32, resultID string) *SemanticTokensDeltaResult {
	return &SemanticTokensDeltaResult{
		Full: &protocol.SemanticTokens{ResultID: &resultID, Data: data},
	}
}

func deltaResult(edits []protocol.SemanticTokensEdit, resultID string) *SemanticTokensDeltaResult {
	return &SemanticTokensDeltaResult{
		IsDelta: true,
		Delta:   &protocol.SemanticTokensDelta{ResultId: &resultID, Edits: edits},
	}
}

// computeEdits replaces the region between the common prefix and the common
// suffix of the two encodings with a single edit.
func computeEdits(oldEncoded, newEncoded []uint32) []protocol.SemanticTokensEdit {
	edits := []protocol.SemanticTokensEdit{}

	prefix := 0
	for prefix < min(len(oldEncoded), len(newEncoded)) && oldEncoded[prefix] == newEncoded[prefix] {
		prefix++
	}

	suffix := 0
	for suffix < len(oldEncoded)-prefix &&
		suffix < len(newEncoded)-prefix &&
		oldEncoded[len(oldEncoded)-1-suffix] == newEncoded[len(newEncoded)-1-suffix] {
		suffix++
	}

	if prefix+suffix >= max(len(oldEncoded), len(newEncoded)) {
		log.Println("No changes detected in semantic tokens")
		return edits
	}

	return append(edits, protocol.SemanticTokensEdit{
		Start:       uint32(prefix),
		DeleteCount: uint32(len(oldEncoded) - suffix - prefix),
		Data:        newEncoded[prefix : len(newEncoded)-suffix],
	})
}

// calculateDeltaSize estimates the size of the delta response in uint32 values.
func calculateDeltaSize(edits []protocol.SemanticTokensEdit) int {
	size := 0
	for _, edit := range edits {
		// start and deleteCount plus the data
		size += 2 + len(edit.Data)
	}

	return size
}
