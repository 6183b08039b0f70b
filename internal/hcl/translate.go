package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/keywordgo/internal/keyword"
	"github.com/vk/keywordgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// translateSuite walks the top-level blocks of one suite file.
func translateSuite(filename string, body *hclsyntax.Body, suite *Suite) error {
	if len(body.Attributes) > 0 {
		return fmt.Errorf("%s: attributes are not allowed at the top level", filename)
	}
	for _, block := range body.Blocks {
		switch block.Type {
		case "test":
			test, err := translateTest(filename, block)
			if err != nil {
				return err
			}
			suite.Tests = append(suite.Tests, test)
		case "user_keyword":
			def, err := translateUserKeyword(filename, block)
			if err != nil {
				return err
			}
			suite.UserKeywords = append(suite.UserKeywords, def)
		default:
			return fmt.Errorf("%s: unsupported block type %q at %s", filename, block.Type, block.DefRange().String())
		}
	}
	return nil
}

func translateTest(filename string, block *hclsyntax.Block) (*Test, error) {
	if len(block.Labels) != 1 {
		return nil, fmt.Errorf("%s: test block needs exactly one name label at %s", filename, block.DefRange().String())
	}
	test := &Test{Name: block.Labels[0]}

	for name, attr := range block.Body.Attributes {
		switch name {
		case "templated":
			b, err := boolValue(filename, attr)
			if err != nil {
				return nil, err
			}
			test.Templated = b
		default:
			return nil, fmt.Errorf("%s: unsupported test attribute %q at %s", filename, name, attr.SrcRange.String())
		}
	}

	seenTeardown := false
	for _, sub := range block.Body.Blocks {
		if sub.Type == "teardown" {
			if seenTeardown {
				return nil, fmt.Errorf("%s: test %q has more than one teardown block", filename, test.Name)
			}
			seenTeardown = true
			items, err := translateItems(filename, sub.Body, keyword.TypeTeardown)
			if err != nil {
				return nil, err
			}
			test.Teardown = items
			continue
		}
		item, err := translateItem(filename, sub, keyword.TypeKeyword)
		if err != nil {
			return nil, err
		}
		test.Body = append(test.Body, item)
	}
	return test, nil
}

func translateUserKeyword(filename string, block *hclsyntax.Block) (registry.UserKeyword, error) {
	var def registry.UserKeyword
	if len(block.Labels) != 1 {
		return def, fmt.Errorf("%s: user_keyword block needs exactly one name label at %s", filename, block.DefRange().String())
	}
	def.Name = block.Labels[0]

	for name, attr := range block.Body.Attributes {
		switch name {
		case "args":
			args, err := stringList(filename, attr)
			if err != nil {
				return def, err
			}
			def.Args = args
		case "doc":
			doc, err := stringValue(filename, attr)
			if err != nil {
				return def, err
			}
			def.Doc = doc
		case "timeout":
			timeout, err := stringValue(filename, attr)
			if err != nil {
				return def, err
			}
			def.Timeout = timeout
		default:
			return def, fmt.Errorf("%s: unsupported user_keyword attribute %q at %s", filename, name, attr.SrcRange.String())
		}
	}

	body, err := translateItems(filename, block.Body, keyword.TypeKeyword)
	if err != nil {
		return def, err
	}
	if len(body) == 0 {
		return def, fmt.Errorf("%s: user_keyword %q has an empty body", filename, def.Name)
	}
	def.Body = body
	return def, nil
}

// translateItems converts a body's blocks into ordered keyword items.
// callType labels direct calls, so teardown blocks mark their steps.
func translateItems(filename string, body *hclsyntax.Body, callType string) ([]keyword.Item, error) {
	var items []keyword.Item
	for _, block := range body.Blocks {
		item, err := translateItem(filename, block, callType)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func translateItem(filename string, block *hclsyntax.Block, callType string) (keyword.Item, error) {
	switch block.Type {
	case "call":
		return translateCall(filename, block, callType)
	case "for":
		return translateFor(filename, block, callType)
	default:
		return nil, fmt.Errorf("%s: unsupported block type %q at %s", filename, block.Type, block.DefRange().String())
	}
}

func translateCall(filename string, block *hclsyntax.Block, callType string) (*keyword.Call, error) {
	if len(block.Labels) != 1 {
		return nil, fmt.Errorf("%s: call block needs exactly one keyword-name label at %s", filename, block.DefRange().String())
	}
	call := &keyword.Call{Name: block.Labels[0], Type: callType}
	for name, attr := range block.Body.Attributes {
		switch name {
		case "args":
			args, err := stringList(filename, attr)
			if err != nil {
				return nil, err
			}
			call.Args = args
		case "assign":
			assign, err := stringList(filename, attr)
			if err != nil {
				return nil, err
			}
			call.Assign = assign
		default:
			return nil, fmt.Errorf("%s: unsupported call attribute %q at %s", filename, name, attr.SrcRange.String())
		}
	}
	if len(block.Body.Blocks) > 0 {
		return nil, fmt.Errorf("%s: call block must not contain nested blocks at %s", filename, block.DefRange().String())
	}
	return call, nil
}

func translateFor(filename string, block *hclsyntax.Block, callType string) (*keyword.ForLoop, error) {
	if len(block.Labels) != 0 {
		return nil, fmt.Errorf("%s: for block takes no labels at %s", filename, block.DefRange().String())
	}
	loop := &keyword.ForLoop{}
	for name, attr := range block.Body.Attributes {
		switch name {
		case "variables":
			variables, err := stringList(filename, attr)
			if err != nil {
				return nil, err
			}
			loop.Variables = variables
		case "values":
			values, err := stringList(filename, attr)
			if err != nil {
				return nil, err
			}
			loop.Values = values
		case "range":
			b, err := boolValue(filename, attr)
			if err != nil {
				return nil, err
			}
			loop.Range = b
		default:
			return nil, fmt.Errorf("%s: unsupported for attribute %q at %s", filename, name, attr.SrcRange.String())
		}
	}
	body, err := translateItems(filename, block.Body, callType)
	if err != nil {
		return nil, err
	}
	loop.Body = body
	return loop, nil
}

// stringList evaluates an attribute as a list of literal strings.
func stringList(filename string, attr *hclsyntax.Attribute) ([]string, error) {
	val, diags := attr.Expr.Value(&hcl.EvalContext{})
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s: evaluating %q: %s", filename, attr.Name, diags.Error())
	}
	ty := val.Type()
	if !ty.IsTupleType() && !ty.IsListType() {
		return nil, fmt.Errorf("%s: attribute %q must be a list of strings at %s", filename, attr.Name, attr.SrcRange.String())
	}
	var out []string
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.Type() != cty.String {
			return nil, fmt.Errorf("%s: attribute %q must contain only strings at %s", filename, attr.Name, attr.SrcRange.String())
		}
		out = append(out, elem.AsString())
	}
	return out, nil
}

func stringValue(filename string, attr *hclsyntax.Attribute) (string, error) {
	val, diags := attr.Expr.Value(&hcl.EvalContext{})
	if diags.HasErrors() {
		return "", fmt.Errorf("%s: evaluating %q: %s", filename, attr.Name, diags.Error())
	}
	if val.Type() != cty.String {
		return "", fmt.Errorf("%s: attribute %q must be a string at %s", filename, attr.Name, attr.SrcRange.String())
	}
	return val.AsString(), nil
}

func boolValue(filename string, attr *hclsyntax.Attribute) (bool, error) {
	val, diags := attr.Expr.Value(&hcl.EvalContext{})
	if diags.HasErrors() {
		return false, fmt.Errorf("%s: evaluating %q: %s", filename, attr.Name, diags.Error())
	}
	if val.Type() != cty.Bool {
		return false, fmt.Errorf("%s: attribute %q must be a bool at %s", filename, attr.Name, attr.SrcRange.String())
	}
	return val.True(), nil
}
