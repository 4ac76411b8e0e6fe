package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/secretary/internal/model"
	"github.com/alfredjeanlab/secretary/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printPendingTable(w io.Writer, reqs []model.PendingRequest, now time.Time) {
	if len(reqs) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("No pending requests."))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSENDER\tNAME\tEXPIRES IN\tMESSAGE")
	for _, r := range reqs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			r.Number,
			r.SenderID,
			r.DisplayName,
			remaining(r.ExpiresAt, now),
			truncate(r.Excerpt, 50),
		)
	}
	tw.Flush()
}

func printSessionsTable(w io.Writer, sessions []model.TrustSession, now time.Time) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("No active sessions."))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SENDER\tORIGIN\tGRANTED\tEXPIRES IN")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			s.SenderID,
			ui.RenderOrigin(s.Origin),
			s.GrantedAt.Local().Format(timeLayout),
			remaining(s.ExpiresAt, now),
		)
	}
	tw.Flush()
}

func printIdentitiesTable(w io.Writer, ids []model.SenderIdentity) {
	if len(ids) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("No senders seen yet."))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SENDER\tNAME\tSOURCE\tMESSAGES\tLAST SEEN")
	for _, id := range ids {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			id.ID,
			id.DisplayName,
			id.Source,
			id.MessageCount,
			id.LastSeenAt.Local().Format(timeLayout),
		)
	}
	tw.Flush()
}

func printResolution(w io.Writer, res *model.Resolution) {
	fmt.Fprintf(w, "%s #%d %s (%s)\n",
		ui.RenderVerdict(res.Verdict),
		res.Request.Number,
		ui.RenderAccent(res.Request.SenderID),
		res.Cause,
	)
}

// remaining renders the time left until t, rounded to the second.
func remaining(t, now time.Time) string {
	d := t.Sub(now).Round(time.Second)
	if d <= 0 {
		return "expired"
	}
	return d.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
