package dispatch

import (
	"strings"

	"github.com/nadzzz/fotiva/internal/intent"
)

const (
	msgStartMissing    = "Vamos criar o evento! Ainda preciso de: "
	msgContinueMissing = "Anotado. Ainda preciso de: "

	msgCancelled       = "Tudo bem, cancelei a criação do evento."
	msgNothingToCancel = "Não há nada em andamento para cancelar."

	msgCompletionFailedPrefix = "Erro ao criar evento: "
	msgCompletionFailed       = "Ocorreu um erro ao criar o evento. Tente novamente."

	msgHelp = `Você pode dizer, por exemplo: "criar evento casamento da Maria no dia 15 de fevereiro às 14h no salão Jardim no valor de 3000 reais", ` +
		`"ver eventos", "abrir pagamentos", "abrir galeria", "voltar para o dashboard" ou "cancelar".`

	msgUnrecognized = `Desculpe, não entendi esse comando. Diga "ajuda" para ver o que eu posso fazer.`
)

var navigationMessages = map[intent.Intent]string{
	intent.ListEvents:    "Ok! Redirecionando para a página de eventos.",
	intent.OpenPayments:  "Abrindo a página de pagamentos.",
	intent.OpenGallery:   "Abrindo a galeria de fotos.",
	intent.OpenDashboard: "Voltando para o dashboard.",
}

// joinLabels lists labels the Portuguese way: "a, b e c".
func joinLabels(labels []string) string {
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	}
	return strings.Join(labels[:len(labels)-1], ", ") + " e " + labels[len(labels)-1]
}
