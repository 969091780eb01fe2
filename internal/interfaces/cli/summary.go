package cli

import (
	"io"
	"strconv"

	"github.com/riskibarqy/penalty-tracker/internal/domain/penalty"
	"github.com/riskibarqy/penalty-tracker/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const noPenaltiesLine = "No penalties found."

// WriteTeamSummary prints the for/against breakdown of a team run.
func WriteTeamSummary(w io.Writer, report usecase.TeamReport, files []string) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	records := report.Records()
	if len(records) == 0 {
		line(buf, "")
		line(buf, noPenaltiesLine)
		writeFiles(buf, files)
		_, err := w.Write(buf.B)
		return err
	}

	line(buf, "")
	line(buf, "Found ", strconv.Itoa(len(records)), " penalties!")
	writeFiles(buf, files)

	line(buf, "")
	line(buf, "Penalties breakdown:")
	line(buf, "Total penalties: ", strconv.Itoa(len(records)))
	line(buf, "")
	line(buf, "For ", report.Team, ":")
	writeTally(buf, report.For)
	line(buf, "")
	line(buf, "Against ", report.Team, ":")
	writeTally(buf, report.Against)

	writeMatches(buf, records)
	_, err := w.Write(buf.B)
	return err
}

// WriteCrawlSummary prints traversal counters, outcome totals per taker team
// and the list of matches with penalties.
func WriteCrawlSummary(w io.Writer, competition string, result usecase.CrawlResult, summary usecase.Summary, files []string) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	line(buf, "Competition: ", competition)
	line(buf, "Teams visited: ", strconv.Itoa(result.TeamsVisited),
		", matches visited: ", strconv.Itoa(result.MatchesVisited),
		", unfinished skipped: ", strconv.Itoa(result.MatchesSkipped),
		", malformed skipped: ", strconv.Itoa(result.MalformedSkipped))
	if result.Truncated {
		line(buf, "Warning: team expansion ceiling reached, results are partial.")
	}

	if len(result.Records) == 0 {
		line(buf, "")
		line(buf, noPenaltiesLine)
		writeFiles(buf, files)
		_, err := w.Write(buf.B)
		return err
	}

	line(buf, "")
	line(buf, "Found ", strconv.Itoa(len(result.Records)), " penalties!")
	writeFiles(buf, files)

	line(buf, "")
	line(buf, "Penalties breakdown:")
	writeTally(buf, summary.Overall)
	for _, team := range summary.ByTakerTeam {
		line(buf, "")
		line(buf, "Taken by ", displayOr(team.Team, "unknown"), ":")
		writeTally(buf, team.Tally)
	}

	writeMatches(buf, result.Records)
	_, err := w.Write(buf.B)
	return err
}

func writeTally(buf *bytebufferpool.ByteBuffer, t usecase.Tally) {
	line(buf, "Total: ", strconv.Itoa(t.Total))
	line(buf, "Scored: ", strconv.Itoa(t.Scored))
	line(buf, "Missed/Saved/Not awarded: ", strconv.Itoa(t.NotScored))
}

func writeMatches(buf *bytebufferpool.ByteBuffer, records []penalty.Record) {
	line(buf, "")
	line(buf, "Matches with penalties:")
	for _, rec := range records {
		line(buf, rec.MatchDate, ": ", rec.HomeTeam, " vs ", rec.AwayTeam,
			" - ", displayOr(rec.TakerName, "unknown"), " (", string(rec.Outcome), ")")
	}
}

func writeFiles(buf *bytebufferpool.ByteBuffer, files []string) {
	for _, path := range files {
		line(buf, "Saved to ", path)
	}
}

func line(buf *bytebufferpool.ByteBuffer, parts ...string) {
	for _, part := range parts {
		_, _ = buf.WriteString(part)
	}
	_ = buf.WriteByte('\n')
}

func displayOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
