// Package notify pushes session reports to operator channels (chat, email,
// webhooks) through shoutrrr service URLs. Delivery is best effort: the
// session outcome never depends on it.
package notify

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/classtrack/classtrack/internal/report"
)

// Notifier sends session summaries to the configured service URLs.
type Notifier struct {
	sender *router.ServiceRouter
}

// New creates a notifier for the given shoutrrr URLs. With no URLs the
// notifier is disabled and Send becomes a no-op.
func New(urls []string) (*Notifier, error) {
	if len(urls) == 0 {
		return &Notifier{}, nil
	}

	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, fmt.Errorf("creating notification sender: %w", err)
	}
	sender.Timeout = 15 * time.Second
	sender.SetLogger(log.New(io.Discard, "", 0))
	return &Notifier{sender: sender}, nil
}

// Enabled reports whether any channel is configured.
func (n *Notifier) Enabled() bool {
	return n.sender != nil
}

// SendReport formats and dispatches the session report. The first delivery
// error is returned; partial delivery to other channels still happens.
func (n *Notifier) SendReport(sessionName string, start, end time.Time, rep *report.Report) error {
	if n.sender == nil {
		return nil
	}

	params := types.Params{}
	params.SetTitle(fmt.Sprintf("%s Report", sessionName))

	errs := n.sender.Send(FormatReport(sessionName, start, end, rep), &params)
	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("sending session report: %w", err)
		}
	}
	return nil
}

// FormatReport renders the message body sent to every channel.
func FormatReport(sessionName string, start, end time.Time, rep *report.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Report\n", sessionName)
	fmt.Fprintf(&b, "Date: %s\n", end.Format("2006-01-02"))
	fmt.Fprintf(&b, "Window: %s - %s\n\n", start.Format("15:04"), end.Format("15:04"))

	if len(rep.Attendees) == 0 {
		b.WriteString("No students detected.\n")
		return b.String()
	}

	b.WriteString("Present:\n")
	for _, a := range rep.Attendees {
		fmt.Fprintf(&b, "- %s (%s) at %s\n", a.Name, a.StudentID, a.Time)
	}
	fmt.Fprintf(&b, "\n%s\n", rep.Summary)
	return b.String()
}
