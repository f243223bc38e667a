package lsp

import (
	"log"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Hover handles the textDocument/hover request.
// This provides the declaration and documentation of the symbol under the cursor.
func Hover(context *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	srv, doc, ok := openDocument(params.TextDocument.URI, "hover")
	if !ok {
		return nil, nil
	}

	position := params.Position

	log.Printf("Hover request at %s line %d, character %d\n",
		params.TextDocument.URI, position.Line, position.Character)

	info, found := srv.Session().Hover(doc.Parsed, doc.Lines.Offset(position))
	if !found {
		return nil, nil
	}

	rng := doc.Lines.Range(info.Range.Start, info.Range.End)

	if !srv.SupportsMarkdownHover() {
		value := info.Code
		if info.Documentation != "" {
			plain, err := markdownToPlainText(info.Documentation)
			if err != nil {
				log.Printf("Failed to render documentation for %s: %v\n", params.TextDocument.URI, err)
				plain = info.Documentation
			}

			value += "\n\n" + plain
		}

		return &protocol.Hover{
			Contents: protocol.MarkupContent{Kind: protocol.MarkupKindPlainText, Value: value},
			Range:    &rng,
		}, nil
	}

	var b strings.Builder

	b.WriteString("```autohotkey2\n")
	b.WriteString(info.Code)
	b.WriteString("\n```")

	if info.Documentation != "" {
		b.WriteString("\n\n---\n\n")
		b.WriteString(info.Documentation)
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: b.String()},
		Range:    &rng,
	}, nil
}

// markdownToPlainText renders doc comments, which are markdown, for clients
// that only display plain text. Emphasis and link markup are dropped; code
// blocks keep their contents.
func markdownToPlainText(src string) (string, error) {
	source := []byte(src)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	var b strings.Builder

	endBlock := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n\n") {
			if strings.HasSuffix(b.String(), "\n") {
				b.WriteString("\n")
			} else {
				b.WriteString("\n\n")
			}
		}
	}

	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(node.Segment.Value(source))

				if node.SoftLineBreak() || node.HardLineBreak() {
					b.WriteString("\n")
				}
			}
		case *ast.String:
			if entering {
				b.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(node.URL(source))
			}

			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				endBlock()

				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(source))
				}
			}

			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.Heading, *ast.ListItem, *ast.ThematicBreak:
			if entering {
				// the first paragraph of a list item follows its bullet
				if _, inItem := n.Parent().(*ast.ListItem); !inItem || n.PreviousSibling() != nil {
					endBlock()
				}

				if _, ok := node.(*ast.ListItem); ok {
					b.WriteString("- ")
				}
			}
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(b.String()), nil
}
