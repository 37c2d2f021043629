package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/regtools/tagreap/pkg/retention/types"
)

const shortDigestLen = 12

// printPlanReport renders the dry-run report: every group with its keep and
// delete lists, then the images that never entered planning.
func printPlanReport(writer io.Writer, plan types.Plan) {
	fmt.Fprintf(writer, "REPOSITORY %s (keep %d per group)\n\n", plan.Repository, plan.KeepCount)

	table := getPlanTableWriter(writer)
	table.SetHeader([]string{"GROUP", "TAG", "DIGEST", "PUSHED", "DECISION"})

	for _, group := range plan.Groups {
		for _, candidate := range group.Keep {
			table.Append([]string{
				group.Key.String(), candidate.Tag, shortDigest(candidate.Digest.String()),
				pushedAt(candidate.PushTimestamp), "keep",
			})
		}

		for _, candidate := range group.Delete {
			table.Append([]string{
				group.Key.String(), candidate.Tag, shortDigest(candidate.Digest.String()),
				pushedAt(candidate.PushTimestamp), "delete",
			})
		}
	}

	table.Render()

	if len(plan.Rejected) == 0 {
		return
	}

	fmt.Fprintf(writer, "\nNOT PLANNED (%d, review manually, never deleted)\n\n", len(plan.Rejected))

	rejectedTable := getPlanTableWriter(writer)
	rejectedTable.SetHeader([]string{"TAG", "DIGEST", "REASON"})

	for _, rejection := range plan.Rejected {
		tag := rejection.Tag
		if tag == "" {
			tag = "-"
		}

		rejectedTable.Append([]string{tag, shortDigest(rejection.Digest.String()), rejection.Reason})
	}

	rejectedTable.Render()
}

func getPlanTableWriter(writer io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(writer)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	return table
}

func shortDigest(digest string) string {
	digest = strings.TrimPrefix(digest, "sha256:")
	if len(digest) > shortDigestLen {
		digest = digest[:shortDigestLen]
	}

	if digest == "" {
		return "-"
	}

	return digest
}

func pushedAt(timestamp time.Time) string {
	if timestamp.IsZero() {
		return "-"
	}

	return humanize.Time(timestamp)
}
