package sentiment

import (
	"context"
	"strings"
	"unicode"

	"github.com/satriahrh/lingua/domain/repositories"
)

// polarity of individual English words in [-1, 1]
var lexicon = map[string]float64{
	"good": 0.7, "great": 0.8, "excellent": 1.0, "amazing": 0.6, "awesome": 1.0,
	"wonderful": 1.0, "fantastic": 0.4, "happy": 0.8, "glad": 0.5, "love": 0.5,
	"lovely": 0.5, "like": 0.2, "nice": 0.6, "fine": 0.4, "fun": 0.3,
	"beautiful": 0.85, "best": 1.0, "better": 0.5, "thanks": 0.2, "thank": 0.2,
	"helpful": 0.5, "cool": 0.35, "enjoy": 0.4, "enjoyed": 0.4, "excited": 0.4,
	"perfect": 1.0, "pleased": 0.5, "cheerful": 0.6, "brilliant": 0.9, "well": 0.2,

	"bad": -0.7, "terrible": -1.0, "awful": -1.0, "horrible": -1.0, "worst": -1.0,
	"sad": -0.5, "unhappy": -0.6, "angry": -0.5, "hate": -0.8, "upset": -0.5,
	"poor": -0.4, "wrong": -0.5, "boring": -1.0, "tired": -0.4, "sick": -0.7,
	"lonely": -0.5, "depressed": -0.8, "afraid": -0.6, "scared": -0.5, "worried": -0.4,
	"annoyed": -0.5, "annoying": -0.8, "hurt": -0.5, "pain": -0.5, "miserable": -1.0,
	"stressed": -0.5, "worse": -0.4, "disappointed": -0.75, "awkward": -0.3, "ugly": -0.7,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "don't": true, "doesn't": true,
	"isn't": true, "wasn't": true, "aren't": true, "can't": true, "didn't": true,
}

var intensifiers = map[string]float64{
	"very": 1.3, "really": 1.3, "so": 1.3, "extremely": 1.5, "super": 1.4,
	"quite": 1.1, "too": 1.2, "slightly": 0.7, "somewhat": 0.8,
}

// negationFactor flips and dampens a negated word, the way "not good" reads
// as mildly negative rather than the opposite of "good".
const negationFactor = -0.5

// LexiconScorer rates English text against a small fixed polarity lexicon.
// The score is the mean polarity of the opinion words found, or 0 when
// there are none. It backs the mock sentiment provider.
type LexiconScorer struct{}

var _ repositories.SentimentScorer = LexiconScorer{}

// NewLexiconScorer creates a new lexicon scorer
func NewLexiconScorer() LexiconScorer {
	return LexiconScorer{}
}

// Polarity implements repositories.SentimentScorer
func (LexiconScorer) Polarity(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return Score(text), nil
}

// Score returns the polarity of text in [-1, 1]
func Score(text string) float64 {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	var (
		total float64
		count int
	)
	for i, word := range words {
		polarity, ok := lexicon[word]
		if !ok {
			continue
		}
		// Look back over at most two modifiers.
		for j := i - 1; j >= 0 && j >= i-2; j-- {
			if factor, ok := intensifiers[words[j]]; ok {
				polarity *= factor
				continue
			}
			if negations[words[j]] {
				polarity *= negationFactor
			}
			break
		}
		total += clamp(polarity)
		count++
	}

	if count == 0 {
		return 0
	}
	return clamp(total / float64(count))
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
