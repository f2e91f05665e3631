package models

const (
	ContextSeparator = "\n\n---\n\n"
	ThinkTag         = `(?s)<think>.*?</think>`

	SenderUser      = "user"
	SenderAssistant = "ia"

	TitleMaxRunes = 50
)

var (
	ReformulatePrompt = `Dada a conversa a seguir e uma pergunta de acompanhamento, reformule a pergunta de acompanhamento para que seja uma pergunta independente, capturando todo o contexto necessário da conversa anterior.
Não responda à pergunta, apenas reescreva-a se necessário. Se a pergunta já for independente, retorne-a como está. Mantenha o idioma original.`

	AnswerPrompt = `Você é um assistente de IA altamente capaz e profissional, projetado para analisar documentos e responder dúvidas.
Sua missão é responder à pergunta do usuário com base EXCLUSIVAMENTE nas informações fornecidas no Contexto abaixo.

Diretrizes:
1. Responda de forma completa, profissional e direta.
2. Use formatação Markdown para melhorar a leitura (negrito para destaques, listas para tópicos).
3. Se a informação solicitada não estiver no contexto, diga claramente: "Não encontrei essa informação nos documentos analisados."
4. Não invente informações que não estejam no texto.
5. Sempre que possível, cite a fonte ou página de onde tirou a informação.`

	// ContextBlockTemplate renders one retrieved chunk: source, then text.
	ContextBlockTemplate = "Fonte: %s\n%s"

	// UserTurnTemplate wraps the assembled context and the original question.
	UserTurnTemplate = "Contexto Recuperado:\n%s\n\nPergunta do Usuário: %s"
)
