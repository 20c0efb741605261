package check

import "strings"

var logicRules = []Rule{
	checkEmptyValue,
	checkDuplicateRegistryKey,
	checkUndefinedParent,
	checkInheritanceCycle,
}

func checkEmptyValue(c *LineContext) []Diagnostic {
	kv := c.KV
	if kv == nil || c.Section == "" || kv.Value != "" {
		return nil
	}
	return []Diagnostic{newDiagnostic(CodeEmptyValue, span(c.Line, kv.Equals, kv.Equals+1),
		"Key '%s' has no value", kv.Key)}
}

func checkDuplicateRegistryKey(c *LineContext) []Diagnostic {
	kv := c.KV
	if kv == nil || c.Registry == "" || kv.Key == "+" {
		return nil
	}
	first, seen := c.SeenRegistryKey(kv.Key)
	if !seen {
		return nil
	}
	return []Diagnostic{newDiagnostic(CodeDuplicateRegistryKey, span(c.Line, kv.KeyStart, kv.KeyEnd),
		"Duplicate key '%s' in registry %s (first used on line %d)", kv.Key, c.Registry, first+1)}
}

func checkUndefinedParent(c *LineContext) []Diagnostic {
	h := c.Header
	if h == nil || !h.HasParent() || c.Index.IsDefined(h.Parent) {
		return nil
	}
	return []Diagnostic{newDiagnostic(CodeUndefinedParent, span(c.Line, h.ParentStart, h.ParentEnd),
		"Parent section '%s' of '%s' is not defined", h.Parent, h.Name)}
}

func checkInheritanceCycle(c *LineContext) []Diagnostic {
	h := c.Header
	if h == nil || !h.HasParent() {
		return nil
	}
	chain, cyclic := c.Resolver.InheritanceChain(h.Name, c.Document.Category)
	if !cyclic {
		return nil
	}
	if back, ok := c.Index.Inheritance(c.Document.Category, chain[len(chain)-1]); ok {
		chain = append(chain, back)
	}
	return []Diagnostic{newDiagnostic(CodeInheritanceCycle, span(c.Line, h.ParentStart, h.ParentEnd),
		"Inheritance cycle: %s", strings.Join(chain, " -> "))}
}
