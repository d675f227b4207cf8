package research

import (
	"fmt"

	"github.com/factlens/factlens/internal/model"
)

// depthTable is the fixed mapping from the coarse depth selector to the
// thoroughness instruction issued to the search stage.
var depthTable = map[model.Depth]string{
	model.DepthQuick:    "Consult the top 3 sources. Be concise.",
	model.DepthStandard: "Consult 5-7 sources. Give a balanced treatment.",
	model.DepthDeep:     "Consult 10 or more sources. Cross-reference exhaustively.",
}

// targetSources is the target source count implied by each depth
var targetSources = map[model.Depth]int{
	model.DepthQuick:    3,
	model.DepthStandard: 5,
	model.DepthDeep:     10,
}

// DepthInstruction translates the depth selector into the search-stage
// instruction. Unknown values fail fast; there is no silent default.
func DepthInstruction(depth model.Depth) (string, error) {
	instruction, ok := depthTable[depth]
	if !ok {
		return "", fmt.Errorf("unknown research depth %q (valid: quick, standard, deep)", depth)
	}
	return instruction, nil
}

// TargetSourceCount returns the source count a depth aims for. Unknown
// values fail fast, same as DepthInstruction.
func TargetSourceCount(depth model.Depth) (int, error) {
	n, ok := targetSources[depth]
	if !ok {
		return 0, fmt.Errorf("unknown research depth %q (valid: quick, standard, deep)", depth)
	}
	return n, nil
}
