// Package shellquote splits user-supplied argument strings and quotes words
// for the generated bash launcher.
package shellquote

import (
	"errors"
	"strings"
	"unicode"
)

var (
	// ErrUnclosedQuote is returned when a quoted section runs to end of input.
	ErrUnclosedQuote = errors.New("unclosed quote in argument string")

	// ErrTrailingEscape is returned when input ends with a lone backslash.
	ErrTrailingEscape = errors.New("trailing escape character at end of arguments")
)

type state int

const (
	stateBare state = iota
	stateSingle
	stateDouble
)

type splitter struct {
	words   []string
	word    strings.Builder
	started bool // an empty quoted word still counts
}

func (s *splitter) add(r rune) {
	s.word.WriteRune(r)
	s.started = true
}

func (s *splitter) flush() {
	if s.started {
		s.words = append(s.words, s.word.String())
	}
	s.word.Reset()
	s.started = false
}

// Split breaks input into words using POSIX shell quoting rules, without
// expansion of any kind.
//
//	Split(`--timestamp --options "runtime,library"`) => ["--timestamp", "--options", "runtime,library"]
//	Split(`--entitlements 'My App.plist'`)            => ["--entitlements", "My App.plist"]
func Split(input string) ([]string, error) {
	s := &splitter{words: []string{}}
	st := stateBare
	runes := []rune(input)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch st {
		case stateSingle:
			if r == '\'' {
				st = stateBare
				continue
			}
			s.add(r)

		case stateDouble:
			switch r {
			case '"':
				st = stateBare
			case '\\':
				if i+1 == len(runes) {
					return nil, ErrTrailingEscape
				}
				i++
				if !strings.ContainsRune("\"\\$`", runes[i]) {
					s.add('\\')
				}
				s.add(runes[i])
			default:
				s.add(r)
			}

		default:
			switch {
			case r == '\'':
				st = stateSingle
				s.started = true
			case r == '"':
				st = stateDouble
				s.started = true
			case r == '\\':
				if i+1 == len(runes) {
					return nil, ErrTrailingEscape
				}
				i++
				s.add(runes[i])
			case unicode.IsSpace(r):
				s.flush()
			default:
				s.add(r)
			}
		}
	}

	if st != stateBare {
		return nil, ErrUnclosedQuote
	}
	s.flush()
	return s.words, nil
}

func safe(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("@%+=:,./-_", r))
}

// Quote returns word in a form bash reads back as exactly one word.
// Words made only of safe characters are returned unchanged.
func Quote(word string) string {
	if word == "" {
		return "''"
	}
	if strings.IndexFunc(word, func(r rune) bool { return !safe(r) }) < 0 {
		return word
	}
	return "'" + strings.ReplaceAll(word, "'", `'\''`) + "'"
}

// EscapeDouble escapes word for use inside a double-quoted bash string.
func EscapeDouble(word string) string {
	var b strings.Builder
	for _, r := range word {
		if strings.ContainsRune("\"\\$`", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Join quotes each word and separates them with single spaces.
func Join(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = Quote(w)
	}
	return strings.Join(quoted, " ")
}
