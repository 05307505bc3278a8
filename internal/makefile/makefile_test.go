package makefile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleFinishPreservesOrder(t *testing.T) {
	mf := New(false)
	r1 := mf.StartRule("a", []string{"x"})
	r1.WriteCommand("echo a")
	r2 := mf.StartRule("b", []string{"y"})
	r2.WriteCommand("echo b")
	// Finish b before a: the main buffer preserves finish order, not start order.
	mf.FinishRule(r2)
	mf.FinishRule(r1)
	out := mf.String()
	assert.Less(t, indexOf(out, "b: y"), indexOf(out, "a: x"))
}

func TestSilentPrefixesCommands(t *testing.T) {
	mf := New(true)
	r := mf.StartRule("a", nil)
	r.WriteCommand("echo hi")
	mf.FinishRule(r)
	assert.Contains(t, mf.String(), "\t@echo hi\n")
}

func TestNonSilentNoPrefix(t *testing.T) {
	mf := New(false)
	r := mf.StartRule("a", nil)
	r.WriteCommand("echo hi")
	mf.FinishRule(r)
	assert.Contains(t, mf.String(), "\techo hi\n")
}

func TestBestEffortPrefix(t *testing.T) {
	mf := New(false)
	r := mf.StartRule("a", nil)
	r.WriteCommandBestEffort("rm -f x")
	mf.FinishRule(r)
	assert.Contains(t, mf.String(), "\t-rm -f x\n")
}

func TestWriteCommandSilentIgnoresGlobalSetting(t *testing.T) {
	mf := New(false)
	r := mf.StartRule("a", nil)
	r.WriteCommandSilent("echo hi")
	mf.FinishRule(r)
	assert.Contains(t, mf.String(), "\t@echo hi\n")
}

func TestWriteRuleShorthand(t *testing.T) {
	mf := New(false)
	mf.WriteRule("out", []string{"in1", "in2"})
	assert.Equal(t, "out: in1 in2\n", mf.String())
}

func TestEscapeDoublesMakeDollar(t *testing.T) {
	assert.Contains(t, Escape("$(FOO)"), "$$")
}

func TestEscapeMakeRefPreservesVariableReferences(t *testing.T) {
	assert.Equal(t, "a/b/$(OBJ_DIR)/c", EscapeMakeRef("a/b/$(OBJ_DIR)/c"))
}

func TestEscapeMakeRefDoublesStrayDollar(t *testing.T) {
	assert.Equal(t, "price$$5", EscapeMakeRef("price$5"))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
