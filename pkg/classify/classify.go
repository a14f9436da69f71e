// Package classify decides what kind of line the game server just sent:
// player chat, command feedback, or a system notice. Classification is a
// pure function over one already-decoded line of text; rules are evaluated
// in a fixed order and the first match wins.
package classify

import (
	"regexp"
	"strings"
)

// Type tags one classified server line.
type Type string

const (
	TypeChat    Type = "chat"
	TypeCommand Type = "command"
	TypeSystem  Type = "system"
)

// Result is the outcome of classifying a single line. Channel is set only
// for chat lines.
type Result struct {
	Type    Type
	Channel string
}

// Observer receives every classification outcome. It exists for debug
// instrumentation only and must not influence the result.
type Observer func(line string, result Result)

// rule is one ordered predicate/type pair. Rules never overlap in intent,
// so evaluation stops at the first match.
type rule struct {
	pattern *regexp.Regexp
	typ     Type
}

var (
	// A chat line is a speaker name (optionally preceded by a [channel]
	// tag) followed by a speech verb.
	chatPattern = regexp.MustCompile(`^(?:\[[^\]]+\]\s*)?[\w'-]+(?: [\w'-]+)? (?:says?|whispers?|shouts?|emotes?|tells?)\b`)

	// Command feedback and validation failures render as command results,
	// not chat.
	feedbackPrefixPattern = regexp.MustCompile(`^(?:Usage:|Error:|You must |Invalid |Cannot |Failed )`)
	feedbackInfixPattern  = regexp.MustCompile(`(?:not found|does not exist)`)

	// Room descriptions and ambient notices open with recognizable
	// sentence shapes.
	systemOpenerPattern  = regexp.MustCompile(`^(?:A |The |There (?:is|are) |You feel |You are now in )`)
	systemArrivalPattern = regexp.MustCompile(`^[\w'-]+(?: [\w'-]+)? (?:has (?:entered|left)|arrives|departs)\b`)

	bracketTagPattern = regexp.MustCompile(`^\[([^\]]+)\]`)
	whisperPattern    = regexp.MustCompile(`^You whisper to |whispers to you:`)
)

// rules holds the full evaluation order. Chat shapes come first so that a
// line like "The guard says hello" classifies as chat even though it opens
// with a system-looking article.
var rules = []rule{
	{pattern: chatPattern, typ: TypeChat},
	{pattern: feedbackPrefixPattern, typ: TypeCommand},
	{pattern: feedbackInfixPattern, typ: TypeCommand},
	{pattern: systemArrivalPattern, typ: TypeSystem},
	{pattern: systemOpenerPattern, typ: TypeSystem},
}

// Classifier classifies server lines. The zero value is usable; New exists
// to attach an optional observer.
type Classifier struct {
	observe Observer
}

// New returns a Classifier. observe may be nil.
func New(observe Observer) *Classifier {
	return &Classifier{observe: observe}
}

// Classify maps one server line to its semantic category. It never fails:
// empty input and lines matching no rule both resolve to command feedback.
func (c *Classifier) Classify(line string) Result {
	result := c.classify(line)
	if c.observe != nil {
		c.observe(line, result)
	}

	return result
}

func (c *Classifier) classify(line string) Result {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Result{Type: TypeCommand}
	}

	for _, r := range rules {
		if !r.pattern.MatchString(trimmed) {
			continue
		}
		if r.typ == TypeChat {
			return Result{Type: TypeChat, Channel: extractChannel(trimmed)}
		}

		return Result{Type: r.typ}
	}

	return Result{Type: TypeCommand}
}

// extractChannel resolves the conversation scope of a chat line. Literal
// prefixes override generic bracket tags; absent both, chat defaults to the
// local channel.
func extractChannel(line string) string {
	switch {
	case strings.HasPrefix(line, "You say locally:"):
		return "local"
	case strings.HasPrefix(line, "You say:"):
		return "say"
	case whisperPattern.MatchString(line):
		return "whisper"
	}

	if match := bracketTagPattern.FindStringSubmatch(line); match != nil {
		if tag := strings.ToLower(strings.TrimSpace(match[1])); tag != "" {
			return tag
		}
	}

	return "local"
}
