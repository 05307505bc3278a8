package node

// Language is the closed enumeration of language tags nodes can be queried
// under when collecting artifacts and flags transitively (spec §4.4).
type Language int

// The closed set of language tags.
const (
	NoLang Language = iota
	C
	CPP
	Java
	Python
	Golang
)

func (l Language) String() string {
	switch l {
	case C:
		return "C"
	case CPP:
		return "CPP"
	case Java:
		return "JAVA"
	case Python:
		return "PYTHON"
	case Golang:
		return "GOLANG"
	}
	return "NO_LANG"
}

// CollectionKind is one of the categories propagated upward through the DAG
// (spec §4.4, GLOSSARY).
type CollectionKind int

// The closed set of collection kinds.
const (
	DependencyFiles CollectionKind = iota
	ObjectFiles
	FinalOutputs
	LinkFlags
	CompileFlags
	IncludeDirs
	EnvVariables
	SystemDependencies
)

func (k CollectionKind) String() string {
	switch k {
	case DependencyFiles:
		return "DEPENDENCY_FILES"
	case ObjectFiles:
		return "OBJECT_FILES"
	case FinalOutputs:
		return "FINAL_OUTPUTS"
	case LinkFlags:
		return "LINK_FLAGS"
	case CompileFlags:
		return "COMPILE_FLAGS"
	case IncludeDirs:
		return "INCLUDE_DIRS"
	case EnvVariables:
		return "ENV_VARIABLES"
	case SystemDependencies:
		return "SYSTEM_DEPENDENCIES"
	}
	return "UNKNOWN"
}
