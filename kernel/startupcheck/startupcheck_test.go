package startupcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_PassingChecksProduceNoError(t *testing.T) {
	r := NewRunner()
	r.Add(func() []Result {
		return []Result{{CheckName: "ok-check", Passed: true}}
	})
	warnings, err := r.Run()
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestRunner_FatalFailureAbortsWithComposedMessage(t *testing.T) {
	r := NewRunner()
	r.Add(func() []Result {
		return []Result{
			{CheckName: "ui-whitelist", Passed: false, Severity: Fatal, Message: "tool \"add\" is not registered"},
		}
	})
	_, err := r.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ui-whitelist")
	assert.Contains(t, err.Error(), "add")
}

func TestRunner_WarningFailureDoesNotAbort(t *testing.T) {
	r := NewRunner()
	r.Add(func() []Result {
		return []Result{
			{CheckName: "dynamic-prompt-schema", Passed: false, Severity: Warning, Message: "no schema declared"},
		}
	})
	warnings, err := r.Run()
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "dynamic-prompt-schema", warnings[0].CheckName)
}

func TestRunner_MultipleChecksAggregate(t *testing.T) {
	r := NewRunner()
	r.Add(func() []Result { return []Result{{CheckName: "a", Passed: false, Severity: Fatal, Message: "m1"}} })
	r.Add(func() []Result { return []Result{{CheckName: "b", Passed: false, Severity: Fatal, Message: "m2"}} })
	_, err := r.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a: m1")
	assert.Contains(t, err.Error(), "b: m2")
}

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "FATAL", Fatal.String())
	assert.Equal(t, "WARNING", Warning.String())
}
