// Package view renders the HTML status page.
package view

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
	"github.com/mmuslimabdulj/goat-relay/internal/domain"
)

// Status renders relay counters and the live session table.
func Status(stats domain.Stats, sessions []domain.SessionInfo) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, statusHead); err != nil {
			return err
		}

		limit := "unlimited"
		if stats.MaxSessions > 0 {
			limit = fmt.Sprint(stats.MaxSessions)
		}
		_, err := fmt.Fprintf(w,
			`<dl><dt>Log</dt><dd>%d / %d bytes retained, offset %d</dd>`+
				`<dt>Sessions</dt><dd>%d of %s</dd>`+
				`<dt>Accepted</dt><dd>%d</dd><dt>Rejected</dt><dd>%d</dd>`+
				`<dt>Overrun</dt><dd>%d bytes</dd></dl>`,
			stats.Retained, stats.Capacity, stats.WriteOffset,
			stats.ActiveSessions, limit,
			stats.Accepted, stats.Rejected, stats.OverrunBytes)
		if err != nil {
			return err
		}

		if len(sessions) == 0 {
			_, err = io.WriteString(w, `<p class="empty">Nobody is connected.</p></main></body></html>`)
			return err
		}

		if _, err := io.WriteString(w, `<table><thead><tr><th>Persona</th><th>Remote</th><th>State</th><th>Position</th><th>Connected</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, s := range sessions {
			_, err := fmt.Fprintf(w,
				`<tr><td style="color:%s">%s</td><td>%s</td><td>%s</td><td>%d</td><td>%s</td></tr>`,
				templ.EscapeString(s.PersonaColor),
				templ.EscapeString(s.PersonaName),
				templ.EscapeString(s.RemoteAddr),
				s.State,
				s.Position,
				s.ConnectedAt.Format(time.RFC3339))
			if err != nil {
				return err
			}
		}
		_, err = io.WriteString(w, `</tbody></table></main></body></html>`)
		return err
	})
}

const statusHead = `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">` +
	`<meta name="viewport" content="width=device-width, initial-scale=1">` +
	`<meta http-equiv="refresh" content="5">` +
	`<title>GOAT relay</title>` +
	`<style>body{font-family:sans-serif;margin:2rem}dt{font-weight:bold}` +
	`table{border-collapse:collapse}td,th{padding:.25rem .75rem;border-bottom:1px solid #ddd}</style>` +
	`</head><body><main><h1>GOAT relay</h1>`
