// Package prompt builds the reply-drafting prompt shared by the LLM adapters.
package prompt

import (
	"fmt"
	"strings"

	"github.com/mikey/sheet-inbox/internal/core"
	"github.com/mikey/sheet-inbox/internal/utils"
)

// System is the system instruction for chat-style models
const System = "Sos parte del equipo de atención de Rosse Vita Eventos. Respondé solo con JSON."

// maxMessages caps how much history goes into the prompt
const maxMessages = 10

const replyFormat = `Escribí el primer mensaje de WhatsApp para un cliente que completó el formulario de contacto.
Usá español rioplatense, tono cálido y profesional, como mucho tres oraciones.
Tomá como base este saludo:
%s

Teléfono: %s
Mensajes del cliente, del más reciente al más antiguo:
%s

Respondé solo con un objeto JSON {"reply": "<mensaje>"} y nada más.`

// Reply builds the prompt for a contact. The message block is cut to
// maxBodySize bytes.
func Reply(contact *core.ContactView, greeting string, text *utils.TextProcessor, maxBodySize int) string {
	var b strings.Builder
	for i, m := range contact.Messages {
		if i == maxMessages {
			fmt.Fprintf(&b, "(%d mensajes más)\n", len(contact.Messages)-maxMessages)
			break
		}
		ts := m.Timestamp
		if ts == "" {
			ts = "sin fecha"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", ts, strings.TrimSpace(m.Text))
	}

	messages := text.ProcessText(b.String(), maxBodySize)
	return fmt.Sprintf(replyFormat, greeting, contact.Phone, messages)
}
