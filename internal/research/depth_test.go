package research

import (
	"testing"

	"github.com/factlens/factlens/internal/model"
)

func TestDepthInstruction(t *testing.T) {
	for _, depth := range []model.Depth{model.DepthQuick, model.DepthStandard, model.DepthDeep} {
		instruction, err := DepthInstruction(depth)
		if err != nil {
			t.Errorf("DepthInstruction(%q) error: %v", depth, err)
		}
		if instruction == "" {
			t.Errorf("DepthInstruction(%q) returned empty instruction", depth)
		}
	}
}

func TestDepthInstructionUnknown(t *testing.T) {
	for _, depth := range []model.Depth{"", "QUICK", "exhaustive", "medium"} {
		if _, err := DepthInstruction(depth); err == nil {
			t.Errorf("DepthInstruction(%q) expected error", depth)
		}
		if _, err := TargetSourceCount(depth); err == nil {
			t.Errorf("TargetSourceCount(%q) expected error", depth)
		}
	}
}

func TestTargetSourceCountOrdering(t *testing.T) {
	quick, _ := TargetSourceCount(model.DepthQuick)
	standard, _ := TargetSourceCount(model.DepthStandard)
	deep, _ := TargetSourceCount(model.DepthDeep)

	if !(quick < standard && standard < deep) {
		t.Errorf("target counts not increasing: quick=%d standard=%d deep=%d", quick, standard, deep)
	}
}
