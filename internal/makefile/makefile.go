// Package makefile implements the buffered GNU-make emission layer (spec
// §4.2): a Makefile accumulates text in emission order; a Rule is a
// separate buffer so that a node can interleave writing its preamble to the
// main buffer with writing commands to the rule's own body, the two only
// being linearized together when the rule is finished.
package makefile

import (
	"strings"

	"github.com/alessio/shellescape"
)

// Makefile is the in-memory text buffer the generator writes into. Nothing
// here performs any I/O; the caller converts the final buffer with String()
// and owns writing it out.
type Makefile struct {
	buf    strings.Builder
	Silent bool
}

// New constructs an empty Makefile. silent controls whether every command
// written via a Rule is prefixed with '@' (so make doesn't echo it).
func New(silent bool) *Makefile {
	return &Makefile{Silent: silent}
}

// Append writes raw text to the main buffer.
func (mf *Makefile) Append(text string) {
	mf.buf.WriteString(text)
}

// StartRule begins a new rule with the given target and prerequisite list,
// returning a Rule object whose body can be built up independently before
// being finished into the main buffer (spec §4.2's adopted rule-object
// model, per SPEC_FULL.md §D.1).
func (mf *Makefile) StartRule(target string, deps []string) *Rule {
	r := &Rule{silent: mf.Silent}
	r.buf.WriteString(target)
	r.buf.WriteString(":")
	for _, d := range deps {
		r.buf.WriteString(" ")
		r.buf.WriteString(d)
	}
	r.buf.WriteString("\n")
	return r
}

// FinishRule appends a Rule's accumulated text to the main buffer. The
// buffer preserves the global order that FinishRule calls occur in.
func (mf *Makefile) FinishRule(r *Rule) {
	mf.buf.WriteString(r.buf.String())
}

// WriteRule is a shorthand for a rule with no body, e.g. a phony or a
// dependency-only rule (spec §4.2).
func (mf *Makefile) WriteRule(target string, deps []string) {
	mf.FinishRule(mf.StartRule(target, deps))
}

// String returns the accumulated buffer. Called once, at the very end.
func (mf *Makefile) String() string {
	return mf.buf.String()
}

// Rule is a single Make rule's buffer: the "target: deps" header line plus
// zero or more command lines, built up independently of the main Makefile
// buffer until FinishRule linearizes it in.
type Rule struct {
	buf    strings.Builder
	silent bool
}

// WriteCommand writes a recipe command line, prefixed with '@' if the
// Makefile is silent.
func (r *Rule) WriteCommand(cmd string) {
	r.writeCommandLine("", cmd)
}

// WriteCommandBestEffort writes a recipe command line prefixed with '-' so
// make ignores its exit code, in addition to the usual silence prefix.
func (r *Rule) WriteCommandBestEffort(cmd string) {
	r.writeCommandLine("-", cmd)
}

// WriteCommandSilent writes a recipe command line always prefixed with '@',
// regardless of the Makefile's global silent setting. Used by gen_sh, whose
// own silence is controlled independently via Input.SilentGenSh (spec §9:
// "route FLAGS_silent_gensh... through the Input record").
func (r *Rule) WriteCommandSilent(cmd string) {
	r.buf.WriteString("\t@")
	r.buf.WriteString(cmd)
	r.buf.WriteString("\n")
}

func (r *Rule) writeCommandLine(extraPrefix, cmd string) {
	prefix := extraPrefix
	if r.silent {
		prefix += "@"
	}
	r.buf.WriteString("\t")
	r.buf.WriteString(prefix)
	r.buf.WriteString(cmd)
	r.buf.WriteString("\n")
}

// WriteUserEcho writes the standardized "echoing build step" preamble line,
// e.g. "Building //foo:bar".
func (r *Rule) WriteUserEcho(kind, targetLabel string) {
	r.WriteCommand("echo '" + kind + " " + targetLabel + "'")
}

// Escape escapes a string for safe inclusion in a Makefile recipe line:
// doubles '$' (Make's own escaping convention) then shell-quotes whatever
// remains using the same library please's build rules lean on for quoting
// generated shell commands.
func Escape(s string) string {
	return shellescape.Quote(strings.ReplaceAll(s, "$", "$$"))
}

// EscapeMakeRef escapes a path for a recipe line that carries live Make
// variable references like "$(OBJ_DIR)": well-formed "$(...)" sequences pass
// through untouched, since make expands them before the shell ever sees the
// line, while any other '$' is doubled so the shell doesn't try to expand it
// itself.
func EscapeMakeRef(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '$' && i+1 < len(s) && s[i+1] == '(' {
			end := strings.IndexByte(s[i:], ')')
			if end != -1 {
				b.WriteString(s[i : i+end+1])
				i += end
				continue
			}
		}
		if c == '$' {
			b.WriteString("$$")
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
