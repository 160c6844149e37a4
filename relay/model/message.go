package model

import (
	"regexp"
	"strings"

	"github.com/Laisky/errors/v2"
)

const (
	RoleUser      = "user"
	RoleSystem    = "system"
	RoleAssistant = "assistant"

	ContentTypeText = "text"
)

// ContentBlock is one part of a message body. Only text blocks are produced.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Message is a role-tagged turn in the structured "messages" calling convention.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// MissingRoleError reports text that appears before any role label.
type MissingRoleError struct {
	// Text is the orphaned leading span, trimmed.
	Text string
}

func (e *MissingRoleError) Error() string {
	return "prompt text found before any role label (Human:, System:, Assistant:): " + snippet(e.Text)
}

var roleLabelRe = regexp.MustCompile(`(?m)^(Human|System|Assistant):`)

var labelRoles = map[string]string{
	"Human":     RoleUser,
	"System":    RoleSystem,
	"Assistant": RoleAssistant,
}

// ParseRoleTagged splits a flat prompt on line-leading "Human:", "System:" and "Assistant:"
// labels. Every non-empty span following a label becomes one message with that label's role.
// Spans that are empty after trimming are dropped, so a trailing "Assistant:" yields nothing.
func ParseRoleTagged(prompt string) ([]Message, error) {
	locs := roleLabelRe.FindAllStringSubmatchIndex(prompt, -1)

	head := prompt
	if len(locs) > 0 {
		head = prompt[:locs[0][0]]
	}
	if lead := strings.TrimSpace(head); lead != "" {
		return nil, &MissingRoleError{Text: lead}
	}

	msgs := make([]Message, 0, len(locs))
	for i, loc := range locs {
		label := prompt[loc[2]:loc[3]]
		end := len(prompt)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		text := strings.TrimSpace(prompt[loc[1]:end])
		if text == "" {
			continue
		}
		msgs = append(msgs, Message{
			Role:    labelRoles[label],
			Content: []ContentBlock{{Type: ContentTypeText, Text: text}},
		})
	}
	return msgs, nil
}

// IsMissingRole reports whether err was caused by unlabeled leading text.
func IsMissingRole(err error) bool {
	var target *MissingRoleError
	return errors.As(err, &target)
}

func snippet(s string) string {
	const max = 40
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
