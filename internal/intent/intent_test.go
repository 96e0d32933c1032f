package intent

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		text    string
		pending bool
		want    Intent
	}{
		{"criar evento casamento da Maria", false, CreateEvent},
		{"Novo Evento", false, CreateEvent},
		{"quero agendar um ensaio", false, CreateEvent},
		{"criar evento no dia 20", true, CreateEvent},
		{"no dia 20 às 18h", true, ContinueDraft},
		{"no dia 20 às 18h", false, Unrecognized},
		{"o cliente é Carla", true, ContinueDraft},
		{"ver eventos", false, ListEvents},
		{"mostrar eventos de hoje", true, ListEvents},
		{"Meus Eventos", false, ListEvents},
		{"abrir pagamentos", false, OpenPayments},
		{"financeiro", false, OpenPayments},
		{"contas a receber", false, OpenPayments},
		{"abrir galeria", false, OpenGallery},
		{"mostrar fotos", false, OpenGallery},
		{"Álbum", false, OpenGallery},
		{"ir para o início", false, OpenDashboard},
		{"voltar", false, OpenDashboard},
		{"home", false, OpenDashboard},
		{"ajuda", false, Help},
		{"o que você pode fazer?", false, Help},
		{"cancelar", true, Cancel},
		{"pode esquecer", false, Cancel},
		{"bom dia", false, Unrecognized},
		{"", false, Unrecognized},
	}

	for _, tt := range tests {
		if got := Classify(tt.text, tt.pending); got != tt.want {
			t.Errorf("Classify(%q, %v) = %s, want %s", tt.text, tt.pending, got, tt.want)
		}
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	// Matches both the payments and gallery rules; payments comes first.
	if got := Classify("fotos do pagamento", false); got != OpenPayments {
		t.Errorf("got %s, want %s", got, OpenPayments)
	}
	// A pending draft makes continuation cues win over navigation.
	if got := Classify("no valor das fotos", true); got != ContinueDraft {
		t.Errorf("got %s, want %s", got, ContinueDraft)
	}
}

func TestIntent_Route(t *testing.T) {
	tests := map[Intent]string{
		ListEvents:    "/eventos",
		OpenPayments:  "/pagamentos",
		OpenGallery:   "/galeria",
		OpenDashboard: "/dashboard",
	}
	for in, want := range tests {
		if got, ok := in.Route(); !ok || got != want {
			t.Errorf("%s.Route() = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := Help.Route(); ok {
		t.Error("help should have no route")
	}
}
