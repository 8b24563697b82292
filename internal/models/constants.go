package models

const (
	// Fixed window used when re-chunking page text and attachments for
	// embedding, independent of the Q&A chunk settings.
	EmbedChunkSize    = 500
	EmbedChunkOverlap = 0

	EmailSource = "email"
)

var (
	QASystemPrompt = `Create clear Q&A pairs for a treasury/finance context. Output them as:
Q: ...
A: ...
Q: ...
A: ... etc.`

	QAUserPromptTemplate = "Generate relevant Q&A from the following text:\n%s"

	DefaultSystemMessage = `You are a qualified human resources director. For every prompt about a CV, start your answer with an overall score for the CV.`

	ImageDescribePrompt = `Describe this document image for retrieval purposes. Focus on what it shows and any readable text. Answer with the description only.`
)
