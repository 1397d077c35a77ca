package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartquiz/quizrun-backend/internal/model"
)

// AnswerKeyEntry pairs the correct option with the marks it awards.
type AnswerKeyEntry struct {
	Correct string
	Marks   int
}

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// GetByID retrieves a question by ID.
func (r *QuestionRepository) GetByID(ctx context.Context, id int) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, text, option_a, option_b, option_c, option_d, correct_answer, marks, is_active, created_at
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectAnswer, &q.Marks, &q.IsActive, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListActive retrieves all active questions in creation order. This is
// the paper every participant receives.
func (r *QuestionRepository) ListActive(ctx context.Context) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, text, option_a, option_b, option_c, option_d, correct_answer, marks, is_active, created_at
		 FROM questions WHERE is_active = TRUE ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectAnswer, &q.Marks, &q.IsActive, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ListAll retrieves every question including inactive ones, for the admin view.
func (r *QuestionRepository) ListAll(ctx context.Context) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, text, option_a, option_b, option_c, option_d, correct_answer, marks, is_active, created_at
		 FROM questions ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectAnswer, &q.Marks, &q.IsActive, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// AnswerKey returns the correct answer and marks for every active
// question, keyed by question ID.
func (r *QuestionRepository) AnswerKey(ctx context.Context) (map[int]AnswerKeyEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, correct_answer, marks FROM questions WHERE is_active = TRUE`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	key := map[int]AnswerKeyEntry{}
	for rows.Next() {
		var id int
		var entry AnswerKeyEntry
		if err := rows.Scan(&id, &entry.Correct, &entry.Marks); err != nil {
			return nil, err
		}
		key[id] = entry
	}
	return key, rows.Err()
}

// Create inserts a new question and returns its ID.
func (r *QuestionRepository) Create(ctx context.Context, req *model.UpsertQuestionRequest) (int, error) {
	var id int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO questions (text, option_a, option_b, option_c, option_d, correct_answer, marks, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		 RETURNING id`,
		req.Text, req.OptionA, req.OptionB, req.OptionC, req.OptionD, req.CorrectAnswer, req.Marks,
	).Scan(&id)
	return id, err
}

// Update modifies an existing question.
func (r *QuestionRepository) Update(ctx context.Context, id int, req *model.UpsertQuestionRequest) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions
		 SET text = $2, option_a = $3, option_b = $4, option_c = $5, option_d = $6, correct_answer = $7, marks = $8
		 WHERE id = $1`,
		id, req.Text, req.OptionA, req.OptionB, req.OptionC, req.OptionD, req.CorrectAnswer, req.Marks,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetActive toggles a question in or out of the paper. Deactivation is
// used instead of deletion so existing submissions keep referencing it.
func (r *QuestionRepository) SetActive(ctx context.Context, id int, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions SET is_active = $2 WHERE id = $1`, id, active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CountActive returns the number of questions currently in the paper.
func (r *QuestionRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions WHERE is_active = TRUE`).Scan(&n)
	return n, err
}
