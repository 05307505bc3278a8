package node

import (
	"fmt"
	"path"

	"github.com/LuminateWireless/repobuild/internal/core"
	"github.com/LuminateWireless/repobuild/internal/makefile"
	"github.com/LuminateWireless/repobuild/internal/target"
)

// JavaLibrary is the java_library Compiler-pattern node: a single javac rule
// compiling all its sources into one `.classes` directory under obj_dir,
// contributing that directory to OBJECT_FILES under Java.
type JavaLibrary struct {
	*Base
	srcs      []target.Resource
	compFlags []string
}

func NewJavaLibrary(t target.Info, in *core.Input) *JavaLibrary {
	return &JavaLibrary{Base: NewBase(t, in)}
}

func (n *JavaLibrary) Kind() string { return "java_library" }

func (n *JavaLibrary) Parse(entry BuildEntry) error {
	n.parseStrictFileMode(entry)
	for _, s := range entry.StringList("srcs") {
		n.srcs = append(n.srcs, target.FromLocalPath(n.Target.Dir, s))
	}
	if err := n.checkSources(n.srcs); err != nil {
		return err
	}
	n.compFlags = entry.StringList("javac_flags")
	for _, d := range entry.StringList("deps") {
		t, err := target.Parse(n.Target.Dir, d)
		if err != nil {
			return core.Wrap(core.MalformedTarget, n.Target.FullPath(), err)
		}
		n.AddDependencyTarget(t)
	}
	return nil
}

func (n *JavaLibrary) LocalDependencyFiles(lang Language, out *target.FileSet) {
	out.AddAll(n.srcs)
}

func (n *JavaLibrary) LocalCompileFlags(lang Language, out *target.StringSet) {
	if lang == NoLang || lang == Java {
		out.AddAll(n.compFlags)
	}
}

func (n *JavaLibrary) classPath() string {
	return path.Join(n.ObjDir(), n.Target.LocalName+".classes")
}

func (n *JavaLibrary) LocalObjectFiles(lang Language, out *target.FileSet) {
	if lang == NoLang || lang == Java {
		out.Add(target.GeneratedResource(n.classPath()))
	}
}

func (n *JavaLibrary) WriteMake(mf *makefile.Makefile) {
	out := n.classPath()
	classpath := Strings(n, CompileFlags, Java)
	deps := resourcePaths(n.srcs)
	objDeps := InputFiles(n, ObjectFiles, Java)
	for _, o := range objDeps {
		deps = append(deps, o.Path)
	}
	r := mf.StartRule(out, deps)
	r.WriteCommand(fmt.Sprintf("mkdir -p %s", makefile.EscapeMakeRef(out)))
	r.WriteUserEcho("Compiling", n.Target.FullPath())
	var cmd string
	if len(classpath) > 0 || len(objDeps) > 0 {
		cp := append([]string{}, classpath...)
		for _, o := range objDeps {
			cp = append(cp, o.Path)
		}
		cmd = fmt.Sprintf("javac -cp %s -d %s", makefile.EscapeMakeRef(joinColon(cp)), makefile.EscapeMakeRef(out))
	} else {
		cmd = fmt.Sprintf("javac -d %s", makefile.EscapeMakeRef(out))
	}
	for _, s := range n.srcs {
		cmd += " " + makefile.EscapeMakeRef(s.Path)
	}
	r.WriteCommand(cmd)
	mf.FinishRule(r)
	n.WriteUserTarget([]string{out}, mf)
}

func joinColon(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ":"
		}
		out += s
	}
	return out
}

// JavaJar is the packager pattern: bundles the transitive compiled classes
// of its dependencies into a single jar. It has no sources of its own.
type JavaJar struct {
	*Base
	mainClass string
}

func NewJavaJar(t target.Info, in *core.Input) *JavaJar {
	return &JavaJar{Base: NewBase(t, in)}
}

func (n *JavaJar) Kind() string { return "java_jar" }

func (n *JavaJar) Parse(entry BuildEntry) error {
	n.mainClass = entry.String("main_class")
	for _, d := range entry.StringList("deps") {
		t, err := target.Parse(n.Target.Dir, d)
		if err != nil {
			return core.Wrap(core.MalformedTarget, n.Target.FullPath(), err)
		}
		n.AddDependencyTarget(t)
	}
	return nil
}

func (n *JavaJar) jarPath() string {
	return path.Join(n.ObjDir(), n.Target.LocalName+".jar")
}

func (n *JavaJar) LocalObjectFiles(lang Language, out *target.FileSet) {
	if lang == NoLang || lang == Java {
		out.Add(target.GeneratedResource(n.jarPath()))
	}
}

func (n *JavaJar) LocalFinalOutputs(lang Language, out *target.FileSet) {
	out.Add(target.GeneratedResource(n.jarPath()))
}

func (n *JavaJar) WriteMake(mf *makefile.Makefile) {
	jar := n.jarPath()
	classDirs := InputFiles(n, ObjectFiles, Java)
	deps := resourcePaths(classDirs)
	r := mf.StartRule(jar, deps)
	r.WriteCommand(fmt.Sprintf("mkdir -p %s", makefile.EscapeMakeRef(path.Dir(jar))))
	r.WriteUserEcho("Packaging", jar)
	if n.mainClass != "" {
		r.WriteCommand(fmt.Sprintf("echo %s > %s.manifest", makefile.Escape("Main-Class: "+n.mainClass), makefile.EscapeMakeRef(jar)))
		r.WriteCommand(fmt.Sprintf("jar cfm %s %s.manifest", makefile.EscapeMakeRef(jar), makefile.EscapeMakeRef(jar)))
	} else {
		r.WriteCommand(fmt.Sprintf("jar cf %s", makefile.EscapeMakeRef(jar)))
	}
	for _, c := range classDirs {
		r.WriteCommand(fmt.Sprintf("jar uf %s -C %s .", makefile.EscapeMakeRef(jar), makefile.EscapeMakeRef(c.Path)))
	}
	mf.FinishRule(r)
	n.WriteUserTarget([]string{jar}, mf)
}

// JavaBinary writes a launcher shell script that runs main_class with the
// transitive java_jar/java_library outputs of its dependencies on the
// classpath; it builds no jar of its own. The launcher is exposed via a
// TopSymlink subnode that points at it.
type JavaBinary struct {
	*Base
	mainClass string
	symlink   *TopSymlink
}

func NewJavaBinary(t target.Info, in *core.Input) *JavaBinary {
	return &JavaBinary{Base: NewBase(t, in)}
}

func (n *JavaBinary) Kind() string { return "java_binary" }

func (n *JavaBinary) Parse(entry BuildEntry) error {
	n.mainClass = entry.String("main_class")
	if n.mainClass == "" {
		return core.NewError(core.MissingRequiredField, n.Target.FullPath(), "java_binary requires main_class")
	}
	for _, d := range entry.StringList("deps") {
		t, err := target.Parse(n.Target.Dir, d)
		if err != nil {
			return core.Wrap(core.MalformedTarget, n.Target.FullPath(), err)
		}
		n.AddDependencyTarget(t)
	}
	linkPath := path.Join(core.MakeRef(core.BinDirVar), n.Target.Dir, n.Target.LocalName)
	n.symlink = NewTopSymlink(n.Target, n.Input, linkPath, target.GeneratedResource(n.launcherPath()))
	n.AddSubNode(n.symlink)
	return nil
}

func (n *JavaBinary) launcherPath() string {
	return path.Join(n.ObjDir(), n.Target.LocalName)
}

func (n *JavaBinary) LocalFinalOutputs(lang Language, out *target.FileSet) {
	out.Add(target.GeneratedResource(n.symlink.LinkPath))
}

func (n *JavaBinary) IncludeInAll() bool { return true }

func (n *JavaBinary) WriteMake(mf *makefile.Makefile) {
	jars := InputFiles(n, ObjectFiles, Java)
	launcher := n.launcherPath()
	deps := resourcePaths(jars)
	r := mf.StartRule(launcher, deps)
	r.WriteCommand(fmt.Sprintf("mkdir -p %s", makefile.EscapeMakeRef(path.Dir(launcher))))
	r.WriteUserEcho("Linking", n.Target.FullPath())
	// cp is built from $(OBJ_DIR)-rooted paths (a live make reference), so it
	// goes through EscapeMakeRef to keep that expandable; mainClass is an
	// arbitrary user-declared string and needs real shell quoting.
	cp := joinColon(resourcePaths(jars))
	r.WriteCommand(fmt.Sprintf("printf '#!/bin/sh\\nexec java -cp %%s %%s \"$$@\"\\n' %s %s > %s",
		makefile.EscapeMakeRef(cp), makefile.Escape(n.mainClass), makefile.EscapeMakeRef(launcher)))
	r.WriteCommand(fmt.Sprintf("chmod +x %s", makefile.EscapeMakeRef(launcher)))
	mf.FinishRule(r)
	n.WriteUserTarget([]string{n.symlink.LinkPath}, mf)
}
