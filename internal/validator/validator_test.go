package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ruleOf(t *testing.T, err error) string {
	t.Helper()
	var re *RuleError
	require.True(t, errors.As(err, &re), "expected a RuleError, got %v", err)
	return re.Rule
}

func TestRejectsImports(t *testing.T) {
	v := New(DefaultConfig())
	err := v.Validate("import os\nx = 1")
	require.Error(t, err)
	assert.Equal(t, RuleImports, ruleOf(t, err))

	err = v.Validate("from os import path")
	require.Error(t, err)
	assert.Equal(t, RuleImports, ruleOf(t, err))
}

func TestRejectsInlineImports(t *testing.T) {
	v := New(Config{Imports: true})
	for _, code := range []string{
		"if True: import os",
		"x = 1; import os",
		"for i in range(2):\n    if i: from os import path",
	} {
		err := v.Validate(code)
		require.Error(t, err, "code %q should be rejected", code)
		assert.Equal(t, RuleImports, ruleOf(t, err))
	}

	// A colon inside a dict literal is not a statement head.
	assert.NoError(t, v.Validate("d = {1: 2}"))
}

func TestRejectsLinks(t *testing.T) {
	v := New(DefaultConfig())
	err := v.Validate(`url = "http://example.com"`)
	require.Error(t, err)
	assert.Equal(t, RuleLinks, ruleOf(t, err))
}

func TestRejectsSaveFuncs(t *testing.T) {
	v := New(DefaultConfig())
	err := v.Validate("f = open('x')")
	require.Error(t, err)
	assert.Equal(t, RuleSaveFuncs, ruleOf(t, err))

	// Substring match is deliberately naive: identifiers trip it too.
	err = v.Validate("savepoint = 1")
	require.Error(t, err)
	assert.Equal(t, RuleSaveFuncs, ruleOf(t, err))
}

func TestRejectsExecEval(t *testing.T) {
	v := New(DefaultConfig())
	err := v.Validate("result = eval('1+1')")
	require.Error(t, err)
	assert.Equal(t, RuleExecEval, ruleOf(t, err))
}

func TestAcceptsCleanCode(t *testing.T) {
	v := New(DefaultConfig())
	code := "def eda_function(sales):\n    return str(sales[0])"
	assert.NoError(t, v.Validate(code))
}

func TestChecksAreToggleable(t *testing.T) {
	v := New(Config{Imports: false, Links: true, SaveFuncs: false, ExecEval: false})
	assert.NoError(t, v.Validate("import os\nf = open('x')\nexec('1')"))
	assert.Error(t, v.Validate("see www.example.com"))
}
