package common_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/regtools/tagreap/pkg/common"
)

func TestCommon(t *testing.T) {
	Convey("Contains finds values of any comparable type", t, func() {
		So(common.Contains([]string{"a", "b"}, "b"), ShouldBeTrue)
		So(common.Contains([]string{"a", "b"}, "c"), ShouldBeFalse)
		So(common.Contains([]int{}, 1), ShouldBeFalse)
	})

	Convey("IsContextDone reflects cancellation", t, func() {
		So(common.IsContextDone(context.Background()), ShouldBeFalse)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		So(common.IsContextDone(ctx), ShouldBeTrue)
	})
}
