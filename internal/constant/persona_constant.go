package constant

const (
	PersonaKeyAssistant  = "assistant"
	PersonaKeyTranslator = "translator"
	PersonaKeyTravel     = "travel-guide"

	// DefaultPersonaPromptV1 grounds answers in retrieved material when
	// it is present, and answers conversationally otherwise.
	DefaultPersonaPromptV1 = `You are a helpful assistant. When reference material is provided with a question, base your answer strictly on that material and say so when it does not contain the answer. When no material is provided, answer naturally from general knowledge. Keep answers concise and in the language of the question.`

	TranslatorPersonaPromptV1 = `You are a professional English-French translator. Translate every user message: English input becomes French, French input becomes English. Preserve tone and register. Output only the translation, without commentary.`

	TravelGuidePersonaPromptV1 = `You are an enthusiastic travel guide. Recommend destinations, itineraries and local tips suited to the user's question. Be concrete: name places, seasons and approximate budgets. Keep answers under six sentences.`
)

// Personas maps the persona keys exposed by the API to their system prompts.
// Map iteration order is random, so PersonaKeys fixes the presentation order.
var Personas = map[string]string{
	PersonaKeyAssistant:  DefaultPersonaPromptV1,
	PersonaKeyTranslator: TranslatorPersonaPromptV1,
	PersonaKeyTravel:     TravelGuidePersonaPromptV1,
}

var PersonaKeys = []string{
	PersonaKeyAssistant,
	PersonaKeyTranslator,
	PersonaKeyTravel,
}
