package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func foldingRanges(t *testing.T) []protocol.FoldingRange {
	t.Helper()

	ranges, err := FoldingRange(&glsp.Context{}, &protocol.FoldingRangeParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)

	return ranges
}

func foldKind(kind protocol.FoldingRangeKind) *string {
	s := string(kind)
	return &s
}

func TestFoldingRange(t *testing.T) {
	newTestServer(t)

	source := "Foo() {\n\tx := 1\n}\n; #region tools\nBar() => 1\n; #endregion\n/*\n note\n*/\n"
	openTestDocument(t, &glsp.Context{}, testURI, source)

	ranges := foldingRanges(t)

	assert.Contains(t, ranges, protocol.FoldingRange{StartLine: 0, EndLine: 1})
	assert.Contains(t, ranges, protocol.FoldingRange{StartLine: 3, EndLine: 5, Kind: foldKind(protocol.FoldingRangeKindRegion)})
	assert.Contains(t, ranges, protocol.FoldingRange{StartLine: 6, EndLine: 8, Kind: foldKind(protocol.FoldingRangeKindComment)})
}

func TestFoldingRange_SingleLineBlocks(t *testing.T) {
	newTestServer(t)

	openTestDocument(t, &glsp.Context{}, testURI, "Foo() { \n}\nBar() { return 1 }\n")

	assert.Empty(t, foldingRanges(t), "a block whose body fits one line does not fold")
}

func TestFoldingRange_UnknownDocument(t *testing.T) {
	newTestServer(t)

	assert.Nil(t, foldingRanges(t))
}
