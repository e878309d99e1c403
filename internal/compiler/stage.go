package compiler

import (
	"fmt"
	"path/filepath"
)

// Stage is a shader pipeline stage.
type Stage int

const (
	StageVertex Stage = iota
	StageTessControl
	StageTessEvaluation
	StageGeometry
	StageFragment
	StageCompute
)

// String returns the glslang stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vert"
	case StageTessControl:
		return "tesc"
	case StageTessEvaluation:
		return "tese"
	case StageGeometry:
		return "geom"
	case StageFragment:
		return "frag"
	case StageCompute:
		return "comp"
	}
	return "unknown"
}

var stagesByExtension = map[string]Stage{
	".vert": StageVertex,
	".tesc": StageTessControl,
	".tese": StageTessEvaluation,
	".geom": StageGeometry,
	".frag": StageFragment,
	".comp": StageCompute,
}

// StageFromPath derives the shader stage from a file path or URI extension.
// An unrecognized extension is an input-validation error; it is raised
// before the compiler is ever invoked.
func StageFromPath(name string) (Stage, error) {
	ext := filepath.Ext(name)
	stage, ok := stagesByExtension[ext]
	if !ok {
		return 0, fmt.Errorf("unknown shader file extension %q", ext)
	}
	return stage, nil
}
