package utils_test

import (
	"testing"

	"dealboard-bot/utils"
)

func TestBoardDetail(t *testing.T) {
	t.Parallel()

	if got := utils.BoardDetail("us", 3, 7); got != "region=us page=3 epoch=7" {
		t.Errorf("unexpected detail string: %q", got)
	}
}
