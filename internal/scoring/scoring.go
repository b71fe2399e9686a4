// Package scoring grades survey, assessment and test submissions. It is pure:
// no storage, no clock, no transport. Question sets and response sets in,
// scores out.
package scoring

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Question variants. The engine matches exhaustively; an unlisted type is an
// error, never a silent zero.
const (
	MultipleChoice = "multiple_choice"
	YesNo          = "yes_no"
	Checkbox       = "checkbox"
	Text           = "text"
	Rating         = "rating"
)

// Question is the scoring view of a question: the shared base plus the
// variant payload. CorrectAnswer holds a string (multiple_choice/yes_no), a
// string array (checkbox), or a string or keyword array (text); rating has
// none.
type Question struct {
	ID            uint
	Type          string
	Required      bool
	Points        int
	CorrectAnswer json.RawMessage
}

// Response pairs a question with the learner's raw answer. The answer shape
// depends on the variant: string, []string or number.
type Response struct {
	QuestionID uint
	Answer     json.RawMessage
}

// Result carries nil score fields for unscored survey types; Passed is nil
// when the survey has no passing score.
type Result struct {
	TotalScore *int
	MaxScore   *int
	Percentage *float64
	Passed     *bool
}

// ShapeError reports an answer or correct-answer payload that does not match
// the question variant.
type ShapeError struct {
	QuestionID uint
	Reason     string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("question %d: %s", e.QuestionID, e.Reason)
}

// Score grades a full submission. For surveyType "survey" scoring is skipped
// entirely and every Result field is nil. For assessment/test, every question
// contributes its points to MaxScore (rating included), a question with no
// Points set counts as 1, and Passed is derived from passingScore when given.
func Score(surveyType string, questions []Question, responses []Response, passingScore *int) (Result, error) {
	if surveyType == "survey" {
		return Result{}, nil
	}

	byQuestion := make(map[uint]json.RawMessage, len(responses))
	for _, r := range responses {
		byQuestion[r.QuestionID] = r.Answer
	}

	totalScore, maxScore := 0, 0
	for _, q := range questions {
		points := q.Points
		if points <= 0 {
			points = 1
		}
		maxScore += points

		answer, answered := byQuestion[q.ID]
		if !answered {
			continue
		}
		correct, err := IsCorrect(q, answer)
		if err != nil {
			return Result{}, err
		}
		if correct {
			totalScore += points
		}
	}

	percentage := 0.0
	if maxScore > 0 {
		percentage = float64(totalScore) / float64(maxScore) * 100
	}

	res := Result{
		TotalScore: &totalScore,
		MaxScore:   &maxScore,
		Percentage: &percentage,
	}
	if passingScore != nil {
		passed := percentage >= float64(*passingScore)
		res.Passed = &passed
	}
	return res, nil
}

// QuizScore grades a micro-quiz or final exam as (#correct / #questions) * 100,
// ignoring per-question points. An empty question set gates nothing and counts
// as a full score.
func QuizScore(questions []Question, responses []Response) (float64, error) {
	if len(questions) == 0 {
		return 100, nil
	}

	byQuestion := make(map[uint]json.RawMessage, len(responses))
	for _, r := range responses {
		byQuestion[r.QuestionID] = r.Answer
	}

	correctCount := 0
	for _, q := range questions {
		answer, answered := byQuestion[q.ID]
		if !answered {
			continue
		}
		ok, err := IsCorrect(q, answer)
		if err != nil {
			return 0, err
		}
		if ok {
			correctCount++
		}
	}
	return float64(correctCount) / float64(len(questions)) * 100, nil
}

// IsCorrect evaluates one answer against one question.
func IsCorrect(q Question, answer json.RawMessage) (bool, error) {
	switch q.Type {
	case MultipleChoice, YesNo:
		want, err := decodeString(q.ID, q.CorrectAnswer, "correct answer")
		if err != nil {
			return false, err
		}
		got, err := decodeString(q.ID, answer, "answer")
		if err != nil {
			return false, err
		}
		return strings.EqualFold(got, want), nil

	case Checkbox:
		want, err := decodeStringSlice(q.ID, q.CorrectAnswer, "correct answer")
		if err != nil {
			return false, err
		}
		got, err := decodeStringSlice(q.ID, answer, "answer")
		if err != nil {
			return false, err
		}
		return equalSets(got, want), nil

	case Text:
		keywords, err := decodeKeywords(q.ID, q.CorrectAnswer)
		if err != nil {
			return false, err
		}
		got, err := decodeString(q.ID, answer, "answer")
		if err != nil {
			return false, err
		}
		return containsAny(got, keywords), nil

	case Rating:
		// Ratings carry no correctness payload and never score.
		return false, nil

	default:
		return false, &ShapeError{QuestionID: q.ID, Reason: "unknown question type " + q.Type}
	}
}

// equalSets compares the two answers order-independently. Duplicates and
// partial overlaps are not tolerated: any deviation scores zero.
func equalSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// containsAny implements OR semantics over the keyword list: a single
// case-insensitive substring hit is enough.
func containsAny(answer string, keywords []string) bool {
	lower := strings.ToLower(answer)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func decodeString(qid uint, raw json.RawMessage, what string) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &ShapeError{QuestionID: qid, Reason: what + " is not a string"}
	}
	return s, nil
}

func decodeStringSlice(qid uint, raw json.RawMessage, what string) ([]string, error) {
	var ss []string
	if err := json.Unmarshal(raw, &ss); err != nil {
		return nil, &ShapeError{QuestionID: qid, Reason: what + " is not a string array"}
	}
	return ss, nil
}

// decodeKeywords accepts a bare string or a keyword array for text questions.
func decodeKeywords(qid uint, raw json.RawMessage) ([]string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}
	return nil, &ShapeError{QuestionID: qid, Reason: "correct answer is neither a string nor a string array"}
}
