package extractor

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"digen/internal/symbol"
)

// Extractor parses annotated source files into type records.
type Extractor struct {
	lang *sitter.Language
}

// NewExtractor creates an extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	switch lang {
	case "go":
		return &Extractor{lang: golang.GetLanguage()}, nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// ExtractFile parses a single source file and returns the type records it
// declares. Files without digen annotations yield no records and no error.
func (e *Extractor) ExtractFile(path string) ([]*symbol.TypeRecord, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return e.ExtractSource(src, path)
}

// ExtractSource parses in-memory source attributed to path.
func (e *Extractor) ExtractSource(src []byte, path string) ([]*symbol.TypeRecord, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(e.lang)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
	}

	pkg := e.packageName(tree.RootNode(), src)

	query, err := sitter.NewQuery([]byte(`(type_spec) @type`), e.lang)
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}

	qc := sitter.NewQueryCursor()
	qc.Exec(query, tree.RootNode())

	var records []*symbol.TypeRecord
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			rec, err := e.extractType(c.Node, src, path, pkg)
			if err != nil {
				return nil, err
			}
			if rec != nil {
				records = append(records, rec)
			}
		}
	}
	return records, nil
}

func (e *Extractor) extractType(node *sitter.Node, src []byte, path, pkg string) (*symbol.TypeRecord, error) {
	nameNode := node.ChildByFieldName("name")
	typeNode := node.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil || typeNode.Type() != "struct_type" {
		return nil, nil
	}
	name := nameNode.Content(src)

	// The doc comment sits above the enclosing type_declaration, not the
	// type_spec node.
	declNode := node.Parent()
	if declNode == nil || declNode.Type() != "type_declaration" {
		declNode = node
	}

	ann, err := parseAnnotations(docComments(declNode, src))
	if err != nil {
		return nil, fmt.Errorf("%s: type %s: %w", path, name, err)
	}
	if ann == nil {
		return nil, nil
	}
	if !ann.Service {
		return nil, fmt.Errorf("%s: type %s: digen annotations without //digen:service", path, name)
	}

	rec := &symbol.TypeRecord{
		Name:         name,
		Package:      pkg,
		File:         path,
		Line:         int(declNode.StartPoint().Row) + 1,
		EndLine:      int(declNode.EndPoint().Row) + 1,
		Capabilities: ann.Caps,
		Base:         ann.Base,
		Lifetimes:    ann.Lifetimes,
		Directive:    ann.Directive,
		Extensible:   !ann.Sealed,
		Exported:     exportedName(name),
		Worker:       ann.Worker,
	}

	for _, target := range ann.Requires {
		rec.Edges = append(rec.Edges, symbol.DependencyEdge{
			Target: target,
			Source: symbol.SourceParam,
		})
	}

	fieldEdges, err := e.fieldEdges(typeNode, src)
	if err != nil {
		return nil, fmt.Errorf("%s: type %s: %w", path, name, err)
	}
	rec.Edges = append(rec.Edges, fieldEdges...)

	return rec, nil
}

func (e *Extractor) fieldEdges(structNode *sitter.Node, src []byte) ([]symbol.DependencyEdge, error) {
	var fieldList *sitter.Node
	for i := 0; i < int(structNode.ChildCount()); i++ {
		if child := structNode.Child(i); child.Type() == "field_declaration_list" {
			fieldList = child
			break
		}
	}
	if fieldList == nil {
		return nil, nil
	}

	var edges []symbol.DependencyEdge
	for i := 0; i < int(fieldList.NamedChildCount()); i++ {
		decl := fieldList.NamedChild(i)
		if decl.Type() != "field_declaration" {
			continue
		}

		tagNode := decl.ChildByFieldName("tag")
		if tagNode == nil {
			continue
		}
		value := digenTag(tagNode.Content(src))
		if value == "" {
			continue
		}

		typeNode := decl.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		target := symbol.ParseTypeRef(strings.ReplaceAll(typeNode.Content(src), "*", ""))

		for j := 0; j < int(decl.NamedChildCount()); j++ {
			child := decl.NamedChild(j)
			if child.Type() != "field_identifier" {
				continue
			}
			edge, err := tagEdge(value, child.Content(src), target)
			if err != nil {
				return nil, err
			}
			edges = append(edges, edge)
		}
	}
	return edges, nil
}

func tagEdge(value, member string, target symbol.TypeRef) (symbol.DependencyEdge, error) {
	if value == "inject" {
		return symbol.DependencyEdge{
			Target: target,
			Source: symbol.SourceField,
			Member: member,
		}, nil
	}
	if key, ok := strings.CutPrefix(value, "config:"); ok && key != "" {
		return symbol.DependencyEdge{
			Target: target,
			Source: symbol.SourceConfig,
			Member: member,
			Key:    key,
		}, nil
	}
	return symbol.DependencyEdge{}, fmt.Errorf("unknown digen tag %q on field %s", value, member)
}

// digenTag pulls the digen key out of a raw struct tag literal.
func digenTag(raw string) string {
	return reflect.StructTag(strings.Trim(raw, "`")).Get("digen")
}

// docComments collects the comment nodes immediately above a declaration,
// closest last, stopping at the first blank line.
func docComments(node *sitter.Node, src []byte) []string {
	var comments []string
	cur := node
	for {
		prev := cur.PrevSibling()
		if prev == nil || (cur.StartPoint().Row-prev.EndPoint().Row > 1) {
			break
		}
		if prev.Type() != "comment" {
			break
		}
		comments = append([]string{prev.Content(src)}, comments...)
		cur = prev
	}
	return comments
}

func (e *Extractor) packageName(root *sitter.Node, src []byte) string {
	query, err := sitter.NewQuery([]byte(`(package_clause (package_identifier) @pkg)`), e.lang)
	if err != nil {
		return ""
	}
	qc := sitter.NewQueryCursor()
	qc.Exec(query, root)
	if m, ok := qc.NextMatch(); ok && len(m.Captures) > 0 {
		return m.Captures[0].Node.Content(src)
	}
	return ""
}

func exportedName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
