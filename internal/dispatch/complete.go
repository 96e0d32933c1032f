package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/nadzzz/fotiva/internal/dialogue"
	"github.com/nadzzz/fotiva/internal/message"
	"github.com/nadzzz/fotiva/internal/metrics"
	"github.com/nadzzz/fotiva/internal/studio"
)

// complete resolves the client of a complete draft and creates the event.
// Failures are reported to the user; the draft is dropped either way.
func (d *Dispatcher) complete(ctx context.Context, draft dialogue.Draft, reply *message.Reply, logger *slog.Logger) string {
	value, err := strconv.ParseFloat(draft.Value, 64)
	if err != nil {
		logger.Warn("draft value is not numeric", "value", draft.Value, "error", err)
		reply.Say(msgCompletionFailed)
		return statusFailed
	}

	client, err := d.resolveClient(ctx, draft, logger)
	if err != nil {
		logger.Warn("client resolution failed", "client_name", draft.ClientName, "error", err)
		reply.Say(failureMessage(err))
		return statusFailed
	}

	ev, err := d.backend.CreateEvent(ctx, studio.NewEvent{
		ClientID:   client.ID,
		ClientName: client.Name,
		Name:       draft.EventName,
		Date:       draft.Date,
		Time:       draft.Time,
		Location:   draft.Location,
		TotalValue: value,
		Status:     d.eventStatus,
	})
	if err != nil {
		metrics.BackendErrorsTotal.WithLabelValues("create_event").Inc()
		// The client, if just created, is kept.
		logger.Warn("event creation failed", "client_id", client.ID, "error", err)
		reply.Say(failureMessage(err))
		return statusFailed
	}

	metrics.EventsCreatedTotal.Inc()
	logger.Info("event created", "event_id", ev.ID, "client_id", client.ID)

	reply.Event = &message.EventSummary{
		ID:         ev.ID,
		Name:       draft.EventName,
		ClientID:   client.ID,
		ClientName: client.Name,
		Date:       draft.Date,
		Time:       draft.Time,
		Location:   draft.Location,
		TotalValue: value,
		Status:     d.eventStatus,
	}
	reply.Say(successMessage(reply.Event))
	return statusOK
}

// resolveClient finds an existing client whose name contains, or is
// contained in, the spoken name, ignoring case. Otherwise it registers a
// new client.
func (d *Dispatcher) resolveClient(ctx context.Context, draft dialogue.Draft, logger *slog.Logger) (*studio.Client, error) {
	clients, err := d.backend.ListClients(ctx)
	if err != nil {
		metrics.BackendErrorsTotal.WithLabelValues("list_clients").Inc()
		return nil, err
	}

	if c, ok := matchClient(clients, draft.ClientName); ok {
		logger.Debug("client matched", "client_id", c.ID, "client_name", c.Name)
		return c, nil
	}

	created, err := d.backend.CreateClient(ctx, studio.NewClient{
		Name:  draft.ClientName,
		Email: draft.Email,
		Phone: draft.Phone,
	})
	if err != nil {
		metrics.BackendErrorsTotal.WithLabelValues("create_client").Inc()
		return nil, err
	}
	logger.Info("client created", "client_id", created.ID, "client_name", created.Name)
	return created, nil
}

func matchClient(clients []studio.Client, name string) (*studio.Client, bool) {
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(name))
	if want == "" {
		return nil, false
	}
	for i := range clients {
		have := fold.String(strings.TrimSpace(clients[i].Name))
		if have == "" {
			continue
		}
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return &clients[i], true
		}
	}
	return nil, false
}

func failureMessage(err error) string {
	if detail, ok := studio.Detail(err); ok {
		return msgCompletionFailedPrefix + detail
	}
	return msgCompletionFailed
}

func successMessage(ev *message.EventSummary) string {
	return fmt.Sprintf("Evento %q criado com sucesso para %s em %s às %s, no local %s, no valor de R$ %s.",
		ev.Name, ev.ClientName, displayDate(ev.Date), ev.Time, ev.Location, displayMoney(ev.TotalValue))
}

// displayDate turns YYYY-MM-DD into DD/MM/YYYY.
func displayDate(date string) string {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return t.Format("02/01/2006")
}

// displayMoney renders v with two decimals and a decimal comma.
func displayMoney(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', 2, 64), ".", ",", 1)
}
