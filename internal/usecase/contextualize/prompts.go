package contextualize

// Prompt text for the two-phase contextual annotation. The chunk prompt
// explicitly forbids "This chunk is about" boilerplate so the generated
// context stays useful as an embedding prefix.

const summaryPromptPrefix = "Summarize the whole structure and objectives of each part of this document. " +
	"Keep in mind as this would be later used to identify specific chunk of the document: "

const chunkContextTemplate = "You are an AI assistant helping organize a curriculum for Edge AI. " +
	"Document Summary: %s\n\n" +
	"Specific Chunk: %s\n\n" +
	"Briefly (in 1-2 sentences) explain the context of this chunk within the document " +
	"so a retriever can understand its relevance. Do not say 'This chunk is about'—just give context."
