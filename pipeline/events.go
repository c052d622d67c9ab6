package pipeline

// Stage names a step of a pipeline run.
type Stage int

const (
	StageGate Stage = iota
	StageResolve
	StageCompile
	StageEmbed
	StageEncode
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageGate:
		return "checking toolchain"
	case StageResolve:
		return "resolving WIT"
	case StageCompile:
		return "compiling"
	case StageEmbed:
		return "embedding metadata"
	case StageEncode:
		return "encoding component"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further events follow for the same binary.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// Event reports progress of a run. Package is empty for run-wide stages and
// for Build.
type Event struct {
	Err     error
	Package string
	Path    string
	Stage   Stage
	State   State
}
