package action

import "math/rand/v2"

// Template pools for generated content. One entry is drawn uniformly
// at random per action.
var messageTemplates = []string{
	"Hey there! Hope you're having a great day.",
	"Hello! Just stopping by to say hi.",
	"Hi! Nice to see you around here.",
	"Hey! How's everything going?",
	"Hello there! Keep up the great posts.",
}

var commentTemplates = []string{
	"Great post, thanks for sharing!",
	"Really interesting, enjoyed reading this.",
	"Nice one! Keep them coming.",
	"Love this, thanks for posting!",
	"Well said!",
}

func randomTemplate(pool []string) string {
	return pool[rand.IntN(len(pool))]
}

// MessageTemplates returns the direct-message content pool.
func MessageTemplates() []string {
	return messageTemplates
}

// CommentTemplates returns the comment content pool.
func CommentTemplates() []string {
	return commentTemplates
}
