package element

import "unicode/utf8"

// maxClusterBytes guards tokenization against pathological cluster text
// (§4.5, §9).
const maxClusterBytes = 4096

var bracketClosers = map[rune]rune{
	'[': ']',
	'<': '>',
	'(': ')',
	'【': '】',
	'「': '」',
}

// tokenizeCluster extracts matched bracket tokens and underscore runs of
// three or more from text, left to right, non-overlapping. Token byte
// offsets are into text's UTF-8 bytes, matching the contract in §8 ("col
// equals cluster_col + display_width(T[..b])").
func tokenizeCluster(text string) []Token {
	if len(text) > maxClusterBytes {
		return nil
	}
	runes := []rune(text)
	byteOffset := make([]int, len(runes)+1)
	off := 0
	for i, r := range runes {
		byteOffset[i] = off
		off += utf8.RuneLen(r)
	}
	byteOffset[len(runes)] = off

	var tokens []Token
	i := 0
	for i < len(runes) {
		if closer, ok := bracketClosers[runes[i]]; ok {
			if j, found := findCloser(runes, i+1, closer); found {
				tokens = append(tokens, Token{
					ByteOffset: byteOffset[i],
					Text:       text[byteOffset[i]:byteOffset[j+1]],
				})
				i = j + 1
				continue
			}
		}
		if runes[i] == '_' {
			j := i
			for j < len(runes) && runes[j] == '_' {
				j++
			}
			if j-i >= 3 {
				tokens = append(tokens, Token{
					ByteOffset: byteOffset[i],
					Text:       text[byteOffset[i]:byteOffset[j]],
				})
				i = j
				continue
			}
		}
		i++
	}
	return tokens
}

func findCloser(runes []rune, from int, closer rune) (int, bool) {
	for j := from; j < len(runes); j++ {
		if runes[j] == closer {
			return j, true
		}
	}
	return 0, false
}
