// Package rubric is the scoring logic behind the example-grader program: a
// simple points rubric over length, content cues, structure and how much of
// the prompt's vocabulary the student picked up.
package rubric

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"discussion-grader/internal/model"
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	citation      = regexp.MustCompile(`\([^)]*\d{4}[^)]*\)`)
	htmlTag       = regexp.MustCompile(`<[^>]+>`)
	promptWord    = regexp.MustCompile(`\b[a-zA-Z]{4,}\b`)

	exampleCues  = []string{"example", "for instance", "such as"}
	analysisCues = []string{"because", "therefore", "however", "analysis"}

	stopWords = map[string]struct{}{
		"this": {}, "that": {}, "with": {}, "have": {}, "will": {}, "from": {}, "they": {}, "know": {},
		"want": {}, "been": {}, "good": {}, "much": {}, "some": {}, "time": {}, "very": {}, "when": {},
		"come": {}, "here": {}, "just": {}, "like": {}, "long": {}, "make": {}, "many": {}, "over": {},
		"such": {}, "take": {}, "than": {}, "them": {}, "well": {}, "were": {}, "what": {}, "your": {},
	}
)

const (
	maxPoints      = 100
	promptKeywords = 10
	checkedWords   = 3
)

type Metrics struct {
	WordCount       int  `json:"word_count"`
	SentenceCount   int  `json:"sentence_count"`
	ParagraphCount  int  `json:"paragraph_count"`
	HasExamples     bool `json:"has_examples"`
	HasAnalysis     bool `json:"has_analysis"`
	HasCitations    bool `json:"has_citations"`
	EngagementScore int  `json:"engagement_score"`
}

// Result is printed as-is on the grader's stdout.
type Result struct {
	Grade   string  `json:"grade"`
	Comment string  `json:"comment"`
	Points  int     `json:"points"`
	Metrics Metrics `json:"metrics"`
}

func Grade(bundle model.SubmissionBundle) Result {
	message := bundle.Submission.Message
	lower := strings.ToLower(message)

	m := Metrics{
		WordCount:      bundle.Submission.WordCount,
		SentenceCount:  countNonBlank(sentenceSplit.Split(message, -1)),
		ParagraphCount: countNonBlank(strings.Split(message, "\n\n")),
		HasExamples:    containsAny(lower, exampleCues),
		HasAnalysis:    containsAny(lower, analysisCues),
		HasCitations:   citation.MatchString(message),
	}

	var points int
	var feedback []string

	switch {
	case m.WordCount >= 200:
		points += 40
		feedback = append(feedback, "Excellent length and detail in your response.")
	case m.WordCount >= 150:
		points += 35
		feedback = append(feedback, "Good length - substantial response.")
	case m.WordCount >= 100:
		points += 25
		feedback = append(feedback, "Adequate length, but could use more detail.")
	default:
		points += 15
		feedback = append(feedback, "Response is quite brief - consider expanding your analysis.")
	}

	content := 0
	if m.HasExamples {
		content += 10
		feedback = append(feedback, "Good use of examples to support your points.")
	}
	if m.HasAnalysis {
		content += 15
		feedback = append(feedback, "Shows analytical thinking and reasoning.")
	}
	if m.HasCitations {
		content += 5
		feedback = append(feedback, "Nice inclusion of citations/references.")
	}
	points += content
	if content < 10 {
		feedback = append(feedback, "Consider adding more examples or analytical depth.")
	}

	structure := 0
	if m.ParagraphCount > 1 {
		structure += 10
		feedback = append(feedback, "Well-organized with multiple paragraphs.")
	}
	if m.SentenceCount >= 8 {
		structure += 10
		feedback = append(feedback, "Good sentence variety and complexity.")
	}
	points += structure
	if structure < 15 {
		feedback = append(feedback, "Consider improving organization and sentence structure.")
	}

	keywords := Keywords(bundle.Discussion.Prompt)
	if len(keywords) > checkedWords {
		keywords = keywords[:checkedWords]
	}
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			m.EngagementScore += 3
		}
	}

	points = min(points+m.EngagementScore, maxPoints)

	if m.EngagementScore > 5 {
		feedback = append(feedback, "Excellent engagement with the discussion prompt.")
	} else {
		feedback = append(feedback, "Consider addressing the key points from the prompt more directly.")
	}

	grade := Letter(points)

	parts := make([]string, 0, len(feedback)+2)
	parts = append(parts, fmt.Sprintf("Hi %s,", firstName(bundle.Student.Name)))
	parts = append(parts, feedback...)
	parts = append(parts, fmt.Sprintf("Total score: %d/%d (%s)", points, maxPoints, grade))

	return Result{
		Grade:   grade,
		Comment: strings.Join(parts, " "),
		Points:  points,
		Metrics: m,
	}
}

func Letter(points int) string {
	switch {
	case points >= 90:
		return "A"
	case points >= 80:
		return "B"
	case points >= 70:
		return "C"
	case points >= 60:
		return "D"
	default:
		return "F"
	}
}

// Keywords returns up to ten of the most frequent non-stop words of four or
// more letters in prompt, with HTML tags stripped. Ties keep first-seen order.
func Keywords(prompt string) []string {
	clean := strings.ToLower(htmlTag.ReplaceAllString(prompt, ""))

	counts := make(map[string]int)
	var order []string
	for _, w := range promptWord.FindAllString(clean, -1) {
		if _, stop := stopWords[w]; stop {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > promptKeywords {
		order = order[:promptKeywords]
	}
	return order
}

func countNonBlank(parts []string) int {
	n := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func firstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return name
}
