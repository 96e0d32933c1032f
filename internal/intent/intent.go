// Package intent classifies utterances into assistant commands.
//
// Classification is keyword based and ordered: the first rule whose
// keywords appear in the lower-cased utterance wins.
package intent

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Intent is the classified purpose of an utterance.
type Intent string

const (
	CreateEvent   Intent = "create_event"
	ContinueDraft Intent = "continue_draft"
	ListEvents    Intent = "list_events"
	OpenPayments  Intent = "open_payments"
	OpenGallery   Intent = "open_gallery"
	OpenDashboard Intent = "open_dashboard"
	Help          Intent = "help"
	Cancel        Intent = "cancel"
	Unrecognized  Intent = "unrecognized"
)

// Route returns the navigation route of a navigation intent.
func (i Intent) Route() (string, bool) {
	r, ok := routes[i]
	return r, ok
}

var routes = map[Intent]string{
	ListEvents:    "/eventos",
	OpenPayments:  "/pagamentos",
	OpenGallery:   "/galeria",
	OpenDashboard: "/dashboard",
}

type rule struct {
	intent   Intent
	keywords []string
	// needsDraft restricts the rule to sessions with a pending draft.
	needsDraft bool
}

var rules = []rule{
	{intent: CreateEvent, keywords: []string{"criar evento", "novo evento", "agendar"}},
	{intent: ContinueDraft, keywords: ContinuationCues, needsDraft: true},
	{intent: ListEvents, keywords: []string{"ver eventos", "mostrar eventos", "listar eventos", "meus eventos"}},
	{intent: OpenPayments, keywords: []string{"pagamento", "financeiro", "contas"}},
	{intent: OpenGallery, keywords: []string{"galeria", "fotos", "álbum"}},
	{intent: OpenDashboard, keywords: []string{"dashboard", "início", "home", "voltar"}},
	{intent: Help, keywords: []string{"ajuda", "comandos", "o que você pode fazer"}},
	{intent: Cancel, keywords: []string{"cancelar", "esquecer"}},
}

// ContinuationCues are the phrases that mark an utterance as filling in
// a pending draft.
var ContinuationCues = []string{"o evento", "o cliente", "no dia", "às", "no local", "no valor"}

// Classify returns the intent of text. pending tells whether the session
// has a draft waiting for more slots.
func Classify(text string, pending bool) Intent {
	lower := strings.ToLower(norm.NFC.String(text))

	for _, r := range rules {
		if r.needsDraft && !pending {
			continue
		}
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.intent
			}
		}
	}
	return Unrecognized
}
