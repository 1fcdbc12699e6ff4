package service

import (
	"strings"
	"unicode"

	"github.com/pageza/souschef/backend/internal/apperrors"
)

var fillerWords = map[string]bool{
	"um": true, "umm": true, "uh": true, "uhh": true, "uhm": true,
	"hmm": true, "hm": true, "mm": true, "mhm": true,
	"er": true, "erm": true, "ah": true, "eh": true,
}

// CleanTranscript removes filler words and immediate repeats from a speech
// transcript. Transcripts with nothing left to answer are rejected.
func CleanTranscript(transcript string) (string, error) {
	words := strings.Fields(transcript)
	kept := make([]string, 0, len(words))
	prev := ""
	for _, w := range words {
		bare := strings.ToLower(strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}))
		if bare == "" {
			if len(kept) > 0 {
				kept[len(kept)-1] += w
			}
			continue
		}
		if fillerWords[bare] {
			continue
		}
		if bare == prev {
			continue
		}
		kept = append(kept, w)
		prev = bare
	}

	cleaned := strings.Join(kept, " ")
	meaningful := 0
	for _, r := range cleaned {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			meaningful++
		}
	}
	if meaningful < 2 {
		return "", apperrors.NewValidationError("no speech was recognised, please try again")
	}
	return cleaned, nil
}
