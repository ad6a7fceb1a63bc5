package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProblemErrorIncludesDetail(t *testing.T) {
	p := Wrap(ErrInvalidRule, "failed to load rule", errors.New("missing id"))
	assert.Equal(t, "failed to load rule: missing id", p.Error())
	assert.Contains(t, p.JSON(), `"code":"ERR_INVALID_RULE"`)
}

func TestProblemErrorWithoutDetail(t *testing.T) {
	p := Problem{Code: ErrIO, Message: "could not read file"}
	assert.Equal(t, "could not read file", p.Error())
}

func TestUnifiedDiffEmptyWhenBothSidesEmpty(t *testing.T) {
	assert.Equal(t, "", UnifiedDiff("", "", "lib.rs", 3))
}

func TestUnifiedDiffRendersChangedLines(t *testing.T) {
	out := UnifiedDiff("fn a() {}\n", "fn a() -> i32 {}\n", "lib.rs", 3)
	assert.Contains(t, out, "-fn a() {}")
	assert.Contains(t, out, "+fn a() -> i32 {}")
}
