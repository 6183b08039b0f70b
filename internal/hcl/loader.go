package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/keywordgo/internal/ctxlog"
	"github.com/vk/keywordgo/internal/fsutil"
	"github.com/vk/keywordgo/internal/keyword"
	"github.com/vk/keywordgo/internal/registry"
)

// Suite is the loaded content of one or more suite files.
type Suite struct {
	Tests        []*Test
	UserKeywords []registry.UserKeyword
}

// Test is one runnable test: an ordered body and an optional teardown
// block whose steps all attempt to run regardless of earlier failures.
type Test struct {
	Name      string
	Templated bool
	Body      []keyword.Item
	Teardown  []keyword.Item
}

// Loader parses .hcl suite files.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a suite loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load reads every .hcl file under the given paths, in order, and merges
// them into one suite.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Suite, error) {
	logger := ctxlog.FromContext(ctx)
	suite := &Suite{}
	for _, path := range paths {
		files, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("discovering suite files under %s: %w", path, err)
		}
		for _, file := range files {
			logger.Debug("Loading suite file.", "path", file)
			if err := l.loadFile(file, suite); err != nil {
				return nil, err
			}
		}
	}
	logger.Debug("Suite loaded.", "tests", len(suite.Tests), "user_keywords", len(suite.UserKeywords))
	return suite, nil
}

// LoadSource parses suite content from memory, mainly for tests.
func (l *Loader) LoadSource(filename string, src []byte) (*Suite, error) {
	suite := &Suite{}
	if err := l.parseInto(filename, src, suite); err != nil {
		return nil, err
	}
	return suite, nil
}

func (l *Loader) loadFile(path string, suite *Suite) error {
	file, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("parsing %s: %s", path, diags.Error())
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return fmt.Errorf("parsing %s: unexpected body type", path)
	}
	return translateSuite(path, body, suite)
}

func (l *Loader) parseInto(filename string, src []byte, suite *Suite) error {
	file, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("parsing %s: %s", filename, diags.Error())
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return fmt.Errorf("parsing %s: unexpected body type", filename)
	}
	return translateSuite(filename, body, suite)
}
