package gemini

import "google.golang.org/genai"

// BotContentPrompt asks for profile copy for a new bot. It expects the bot
// name and its niche.
const BotContentPrompt = `Я создаю Telegram бота.
Имя бота: "%s"
Тематика/Ниша: "%s"

Мне нужно:
1. Краткое, привлекательное описание для профиля бота (макс 100 символов).
2. Приветственное сообщение для команды /start (макс 300 символов), которое вовлекает пользователя.

Верни ответ строго в JSON формате:
{
  "description": "текст",
  "welcomeMessage": "текст"
}
`

// Length limits requested in the prompt.
const (
	MaxDescriptionLength    = 100
	MaxWelcomeMessageLength = 300
)

var botContentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"description": {
			Type:        genai.TypeString,
			Description: "Short bot profile description",
		},
		"welcomeMessage": {
			Type:        genai.TypeString,
			Description: "Greeting sent in reply to /start",
		},
	},
	Required:         []string{"description", "welcomeMessage"},
	PropertyOrdering: []string{"description", "welcomeMessage"},
}
