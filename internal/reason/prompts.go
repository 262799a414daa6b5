package reason

// explainPrompt asks for a single short sentence connecting the user's
// words to the chosen quote. The model must not invent facts beyond
// the two texts it is given.
const explainPrompt = `Someone wrote about how they feel:

"%s"

They were given this quotation:

"%s"

In one short sentence (under 90 characters), explain why this quotation fits what they wrote.
Ground the explanation only in the two texts above; do not add facts.
Reply with the sentence only, no quotes, no bullets, no preamble.`
