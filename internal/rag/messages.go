package rag

// Caller-facing messages, in the language of the web front end.
const (
	msgNoFile           = "Nenhum arquivo foi enviado ou o nome está vazio."
	msgOnlyPDF          = "Apenas PDFs são permitidos."
	msgTooLarge         = "Arquivo muito grande (máximo %dMB)"
	msgSaveFailed       = "Erro ao salvar"
	msgDocumentUnknown  = "Documento não registrado no banco de dados."
	msgFileUnrecovered  = "Arquivo físico não encontrado e sem backup no banco."
	msgNoText           = "O PDF está vazio ou não contém texto extraível. Se for um documento escaneado, ele precisa de OCR."
	msgNoChunks         = "Não foi possível extrair blocos de texto significativos deste documento."
	msgProcessFailed    = "Erro ao processar"
	msgProcessed        = "Documento processado e armazenado com sucesso."
	msgAlreadyProcessed = "Documento já processado e verificado."

	msgEmptyQuestion        = "A pergunta não pode estar vazia."
	msgNothingIndexed       = "Nenhum documento indexado. Por favor, processe um documento primeiro."
	msgIndexReset           = "A base de dados era incompatível e foi resetada. Por favor, processe o documento novamente."
	msgIndexLoadFailed      = "Erro ao carregar base de dados. Re-processe o documento."
	msgCompatibilityReset   = "Erro de compatibilidade detectado. A base foi limpa. Processe o documento novamente."
	msgConversationNotFound = "Conversa não encontrada"
	msgConversationDenied   = "Acesso negado a esta conversa"
	msgAnswerFailed         = "Erro"
)
