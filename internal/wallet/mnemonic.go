// Package wallet manages the local signing key: BIP39 mnemonics, BIP32 key
// derivation on the Cosmos coin type, the age-encrypted keyfile, and a Keyring
// that exposes the key as a chain wallet signer.
package wallet

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip39"

	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

var (
	// ErrInvalidWordCount indicates the mnemonic must be 12 or 24 words.
	ErrInvalidWordCount = lenderr.WithDetails(lenderr.ErrInvalidInput, map[string]string{
		"reason": "word count must be 12 or 24",
	})

	whitespaceRegex = regexp.MustCompile(`\s+`)

	// numberedListRegex matches numbered list prefixes like "1." "2)" "3:"
	numberedListRegex = regexp.MustCompile(`(?m)^\s*\d+[\.\)\:]\s*`)

	// bulletListRegex matches bullet prefixes like "- " "* " "• "
	bulletListRegex = regexp.MustCompile(`(?m)^\s*[-*•]\s*`)
)

// entropyBits maps supported word counts to BIP39 entropy sizes.
var entropyBits = map[int]int{12: 128, 24: 256}

// GenerateMnemonic creates a new BIP39 mnemonic phrase of 12 or 24 words.
func GenerateMnemonic(wordCount int) (string, error) {
	bits, ok := entropyBits[wordCount]
	if !ok {
		return "", ErrInvalidWordCount
	}

	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", err
	}
	defer zero(entropy)

	return bip39.NewMnemonic(entropy)
}

// ValidateMnemonic checks word count, word membership, and the BIP39 checksum.
// Misspelled words are reported with their closest valid replacement.
func ValidateMnemonic(mnemonic string) error {
	normalized := NormalizeMnemonicInput(mnemonic)
	if normalized == "" {
		return lenderr.ErrInvalidMnemonic
	}

	if _, ok := entropyBits[len(strings.Fields(normalized))]; !ok {
		return lenderr.WithDetails(lenderr.ErrInvalidMnemonic, map[string]string{
			"words": strconv.Itoa(len(strings.Fields(normalized))),
		})
	}

	if typos := DetectTypos(normalized); len(typos) > 0 {
		return lenderr.WithSuggestion(lenderr.ErrInvalidMnemonic, FormatTypoSuggestions(typos))
	}

	if _, err := bip39.MnemonicToByteArray(normalized); err != nil {
		return lenderr.WithDetails(lenderr.ErrInvalidMnemonic, map[string]string{"reason": "checksum mismatch"})
	}
	return nil
}

// NormalizeMnemonicInput lowercases the input, strips list numbering and bullets,
// turns commas into spaces, and collapses whitespace.
func NormalizeMnemonicInput(input string) string {
	input = strings.ToLower(input)
	input = numberedListRegex.ReplaceAllString(input, " ")
	input = bulletListRegex.ReplaceAllString(input, " ")
	input = strings.ReplaceAll(input, ",", " ")
	input = whitespaceRegex.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// MnemonicToSeed converts a valid mnemonic to its 64-byte BIP39 seed.
// The caller should zero the seed after use.
func MnemonicToSeed(mnemonic, passphrase string) ([]byte, error) {
	normalized := NormalizeMnemonicInput(mnemonic)
	if err := ValidateMnemonic(normalized); err != nil {
		return nil, err
	}
	return bip39.NewSeed(normalized, passphrase), nil
}

// IsValidWord reports whether word is in the BIP39 English word list.
func IsValidWord(word string) bool {
	_, ok := bip39.GetWordIndex(strings.ToLower(word))
	return ok
}

// MaxTypoDistance is the maximum Levenshtein distance to consider a suggestion.
const MaxTypoDistance = 2

// TypoInfo describes one word that is not in the BIP39 word list.
type TypoInfo struct {
	Index      int // 0-based word position
	Word       string
	Suggestion string // closest valid word, empty if none within MaxTypoDistance
	Distance   int
}

// SuggestWord returns the closest BIP39 word to input, or "" if nothing is
// within MaxTypoDistance.
func SuggestWord(input string) string {
	input = strings.ToLower(input)

	minDist := math.MaxInt
	var suggestion string
	for _, word := range bip39.GetWordList() {
		dist := levenshtein.ComputeDistance(input, word)
		if dist == 0 {
			return word
		}
		if dist < minDist {
			minDist = dist
			suggestion = word
		}
	}

	if minDist <= MaxTypoDistance {
		return suggestion
	}
	return ""
}

// DetectTypos lists every word of mnemonic that is not a BIP39 word.
func DetectTypos(mnemonic string) []TypoInfo {
	var typos []TypoInfo
	for i, word := range strings.Fields(NormalizeMnemonicInput(mnemonic)) {
		if IsValidWord(word) {
			continue
		}
		info := TypoInfo{Index: i, Word: word, Suggestion: SuggestWord(word)}
		if info.Suggestion != "" {
			info.Distance = levenshtein.ComputeDistance(word, info.Suggestion)
		}
		typos = append(typos, info)
	}
	return typos
}

// FormatTypoSuggestions renders typos as one line per word, 1-indexed.
func FormatTypoSuggestions(typos []TypoInfo) string {
	lines := make([]string, 0, len(typos))
	for _, typo := range typos {
		line := "word " + strconv.Itoa(typo.Index+1) + ": '" + typo.Word + "'"
		if typo.Suggestion != "" {
			line += " - did you mean '" + typo.Suggestion + "'?"
		} else {
			line += " is not a valid BIP39 word"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
