package services

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\b\w\w+\b`)

// englishStopWords is the common English stop list used by TF-IDF tooling.
var englishStopWords = toSet(`a about above across after afterwards again against all almost alone along
already also although always am among amongst amoungst amount an and another any anyhow anyone anything
anyway anywhere are around as at back be became because become becomes becoming been before beforehand
behind being below beside besides between beyond bill both bottom but by call can cannot cant co con could
couldnt cry de describe detail do done down due during each eg eight either eleven else elsewhere empty
enough etc even ever every everyone everything everywhere except few fifteen fifty fill find fire first
five for former formerly forty found four from front full further get give go had has hasnt have he hence
her here hereafter hereby herein hereupon hers herself him himself his how however hundred ie if in inc
indeed interest into is it its itself keep last latter latterly least less ltd made many may me meanwhile
might mill mine more moreover most mostly move much must my myself name namely neither never nevertheless
next nine no nobody none noone nor not nothing now nowhere of off often on once one only onto or other
others otherwise our ours ourselves out over own part per perhaps please put rather re same see seem
seemed seeming seems serious several she should show side since sincere six sixty so some somehow someone
something sometime sometimes somewhere still such system take ten than that the their them themselves
then thence there thereafter thereby therefore therein thereupon these they thick thin third this those
though three through throughout thru thus to together too top toward towards twelve twenty two un under
until up upon us very via was we well were what whatever when whence whenever where whereafter whereas
whereby wherein whereupon wherever whether which while whither who whoever whole whom whose why will with
within without would yet you your yours yourself yourselves`)

func toSet(words string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		out[w] = struct{}{}
	}
	return out
}

// tokenize lower-cases text and returns word tokens of two or more characters,
// without stop words or pure numbers.
func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, stop := englishStopWords[tok]; stop {
			continue
		}
		if isNumeric(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// TopKeywords scores terms by TF-IDF summed over docs and returns the k best.
// Each document row is L2-normalised with smoothed idf. Ties sort alphabetically.
func TopKeywords(docs []string, k int) []string {
	if k <= 0 || len(docs) == 0 {
		return nil
	}
	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)
	for i, d := range docs {
		counts[i] = make(map[string]int)
		for _, tok := range tokenize(d) {
			counts[i][tok]++
		}
		for term := range counts[i] {
			df[term]++
		}
	}

	n := float64(len(docs))
	scores := make(map[string]float64, len(df))
	for _, tf := range counts {
		// Sorted so the floating-point sum does not depend on map order.
		keys := make([]string, 0, len(tf))
		for term := range tf {
			keys = append(keys, term)
		}
		sort.Strings(keys)

		row := make(map[string]float64, len(tf))
		var norm float64
		for _, term := range keys {
			idf := math.Log((1+n)/(1+float64(df[term]))) + 1
			w := float64(tf[term]) * idf
			row[term] = w
			norm += w * w
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for term, w := range row {
			scores[term] += w / norm
		}
	}

	terms := make([]string, 0, len(scores))
	for term := range scores {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		si, sj := scores[terms[i]], scores[terms[j]]
		if si != sj {
			return si > sj
		}
		return terms[i] < terms[j]
	})
	if len(terms) > k {
		terms = terms[:k]
	}
	return terms
}
