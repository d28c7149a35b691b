package openai

import (
	"github.com/poiesic/doctalk/core"
	"github.com/tmc/langchaingo/llms"
)

// toMessageContent converts domain messages to the langchaingo wire format.
func toMessageContent(messages []core.Message) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		var role llms.ChatMessageType
		switch msg.Role {
		case core.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case core.RoleAI:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		content = append(content, llms.TextParts(role, msg.Contents))
	}
	return content
}
