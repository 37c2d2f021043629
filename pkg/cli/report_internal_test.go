package cli

import (
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/regtools/tagreap/pkg/retention/types"
)

func TestPrintPlanReport(t *testing.T) {
	Convey("The report lists every group's keep and delete members", t, func() {
		pushed := time.Now().Add(-48 * time.Hour)

		plan := types.Plan{
			Repository: "shop",
			KeepCount:  1,
			Groups: []types.GroupPlan{
				{
					Key: types.GroupKey{Project: "shop", Client: "acme", Environment: "prod"},
					Keep: []*types.Candidate{
						{Tag: "shop-v2", Digest: "sha256:aaaabbbbccccdddd", PushTimestamp: pushed},
					},
					Delete: []*types.Candidate{
						{Tag: "shop-v1", Digest: "sha256:eeeeffff00001111", PushTimestamp: pushed},
					},
				},
			},
			Rejected: []types.Rejection{
				{Tag: "latest", Digest: "sha256:9999", Reason: "tag: does not match convention"},
				{Digest: "sha256:8888", Reason: "untagged"},
			},
		}

		var builder strings.Builder
		printPlanReport(&builder, plan)
		output := builder.String()

		So(output, ShouldContainSubstring, "REPOSITORY shop (keep 1 per group)")
		So(output, ShouldContainSubstring, "shop/acme/prod")
		So(output, ShouldContainSubstring, "shop-v2")
		So(output, ShouldContainSubstring, "keep")
		So(output, ShouldContainSubstring, "shop-v1")
		So(output, ShouldContainSubstring, "delete")
		So(output, ShouldContainSubstring, "aaaabbbbcccc")
		So(output, ShouldNotContainSubstring, "aaaabbbbccccdddd")
		So(output, ShouldContainSubstring, "NOT PLANNED (2")
		So(output, ShouldContainSubstring, "untagged")
	})

	Convey("A plan with no rejections omits the review section", t, func() {
		var builder strings.Builder
		printPlanReport(&builder, types.Plan{Repository: "shop"})

		So(builder.String(), ShouldNotContainSubstring, "NOT PLANNED")
	})

	Convey("The empty client renders as a dash", t, func() {
		key := types.GroupKey{Project: "shop", Environment: "prod"}

		So(key.String(), ShouldEqual, "shop/-/prod")
	})
}
