package model

import "time"

// Question is a single multiple-choice question. CorrectAnswer never
// leaves the server; PaperQuestion is the participant-facing projection.
type Question struct {
	ID            int       `json:"id"`
	Text          string    `json:"text"`
	OptionA       string    `json:"option_a"`
	OptionB       string    `json:"option_b"`
	OptionC       string    `json:"option_c"`
	OptionD       string    `json:"option_d"`
	CorrectAnswer string    `json:"correct_answer"`
	Marks         int       `json:"marks"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// PaperQuestion is a question as served to participants, with the
// correct answer stripped.
type PaperQuestion struct {
	ID      int    `json:"id"`
	Text    string `json:"text"`
	OptionA string `json:"option_a"`
	OptionB string `json:"option_b"`
	OptionC string `json:"option_c"`
	OptionD string `json:"option_d"`
	Marks   int    `json:"marks"`
}

// Paper strips the answer key from a question.
func (q *Question) Paper() PaperQuestion {
	return PaperQuestion{
		ID:      q.ID,
		Text:    q.Text,
		OptionA: q.OptionA,
		OptionB: q.OptionB,
		OptionC: q.OptionC,
		OptionD: q.OptionD,
		Marks:   q.Marks,
	}
}

// UpsertQuestionRequest is the admin payload for creating or editing a question.
type UpsertQuestionRequest struct {
	Text          string `json:"text" binding:"required,min=3"`
	OptionA       string `json:"option_a" binding:"required"`
	OptionB       string `json:"option_b" binding:"required"`
	OptionC       string `json:"option_c" binding:"required"`
	OptionD       string `json:"option_d" binding:"required"`
	CorrectAnswer string `json:"correct_answer" binding:"required,oneof=A B C D"`
	Marks         int    `json:"marks" binding:"required,min=1,max=100"`
}
