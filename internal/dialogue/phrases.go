package dialogue

// Canonical phrasings of an image generation request.
var ImageRequestPhrases = []string{
	"Can you create an image of",
	"I'd like to see a picture of",
	"Generate an image showing",
	"Please make an image that depicts",
	"Could you draw",
	"Can you paint",
	"I want to see a picture of",
	"Create a visual representation of",
	"Show me an image of",
	"Make me a picture of",
	"Imagine an image of",
	"Visualize and create an image of",
}

// Canonical phrasings of a closing question.
var ConfirmationPhrases = []string{
	"Is there anything else I can help you with?",
	"Do you have any other questions?",
	"Anything else I can assist you with today?",
}

var (
	imageAffirmatives   = []string{"yes", "sure", "okay", "yeah"}
	closingAffirmatives = []string{"yes", "sure", "please"}

	// Words that carry no description when answering the image prompt question.
	fillerWords = map[string]bool{
		"yes": true, "yeah": true, "yep": true, "sure": true, "okay": true, "ok": true,
		"please": true, "thanks": true, "thank": true, "you": true, "go": true,
		"ahead": true, "do": true, "it": true, "absolutely": true, "of": true, "course": true,
	}
)

// Fixed bot utterances.
const (
	ResponseGreeting           = "Hello! How can I help you today?"
	ResponseEmpatheticGreeting = "Hello, it seems like you're having a tough day. What's going on?"
	ResponseAskImagePrompt     = "What would you like me to generate an image of?"
	ResponseKeepChatting       = "No problem, let's keep chatting. What else is on your mind?"
	ResponseGeneratingImage    = "Okay, I'm generating an image for you. You can check the status with the provided task ID."
	ResponseImageReady         = "Here's the generated image: %s"
	ResponseStillGenerating    = "The image is still being generated. Please wait a bit."
	ResponseImageFailed        = "Sorry, there was an error generating the image. Please try again later."
	ResponseImageStatusUnknown = "I'm not sure what the status of the image generation is. Please try again later."
	ResponseWhatElse           = "Okay, what else can I do for you?"
	ResponseFarewellPositive   = "Alright, have a great day!"
	ResponseFarewellEmpathetic = "Okay, I hope you feel better soon!"
	ResponseGoodbye            = "Goodbye!"
	ResponseFallback           = "I'm not sure how to help with that right now. Please try again later."
	ResponseRephrase           = "I'm sorry, but I don't understand. Could you please rephrase your request?"
)

const intentPromptTemplate = `Please analyze the following statement and provide a simple "yes" or "no" answer: "The user said: '%s'. Does the user want to generate an image?"`
