// Command simulate drives a headless participant session against a
// running backend: it logs in, fetches the paper, answers every
// question through the session engine, optionally triggers violations,
// and submits. Useful for load rehearsal before a live event.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/smartquiz/quizrun-backend/internal/engine"
	"github.com/smartquiz/quizrun-backend/internal/logger"
	"github.com/smartquiz/quizrun-backend/internal/quizclient"
)

var options = []string{"A", "B", "C", "D"}

func main() {
	var (
		serverURL  = flag.String("server", "http://localhost:8080", "Backend base URL")
		name       = flag.String("name", "Load Tester", "Participant name")
		registerNo = flag.String("register", "", "Register number (defaults to a random one)")
		email      = flag.String("email", "", "Email (derived from register number when empty)")
		violations = flag.Int("violations", 0, "Number of tab-switch violations to simulate")
		thinkMS    = flag.Int("think", 200, "Milliseconds between answers")
	)
	flag.Parse()

	log := logger.Setup("debug", "console")

	if *registerNo == "" {
		*registerNo = fmt.Sprintf("SIM-%06d", rand.Intn(1000000))
	}
	if *email == "" {
		*email = fmt.Sprintf("%s@simulated.test", *registerNo)
	}

	ctx := context.Background()

	login, err := doLogin(ctx, *serverURL, *name, *registerNo, *email)
	if err != nil {
		log.Fatal().Err(err).Msg("Login failed")
	}
	log.Info().Str("register_no", *registerNo).Msg("Logged in")

	paper, err := fetchPaper(ctx, *serverURL, login.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("Paper fetch failed")
	}
	log.Info().Int("questions", paper.TotalQuestions).Int("duration_s", paper.DurationSeconds).Msg("Paper received")

	client := quizclient.New(*serverURL, login.Token, login.QuizToken, quizclient.WithLogger(log))

	done := make(chan string, 1)
	session := engine.NewSession(ctx, engine.Config{
		TotalQuestions:  paper.TotalQuestions,
		MaxViolations:   paper.MaxViolations,
		DurationSeconds: paper.DurationSeconds,
		Token:           login.QuizToken,
		Device:          "simulate/1.0 headless",
		ResultsURL:      "/result",
	}, engine.Deps{
		Store:     client,
		Reporter:  client,
		Submitter: client,
		Display:   &consoleDisplay{done: done},
		Log:       log,
	})

	session.Start()

	for i, q := range paper.Questions {
		session.SelectAnswer(strconv.Itoa(q.ID), options[rand.Intn(len(options))])
		session.Navigate(i + 1)
		time.Sleep(time.Duration(*thinkMS) * time.Millisecond)

		if *violations > 0 && i%3 == 2 {
			session.OnVisibilityHidden()
			*violations--
		}
	}

	if session.State() == engine.StateActive {
		session.SubmitRequested()
	}

	select {
	case redirect := <-done:
		log.Info().Str("redirect", redirect).Msg("Session finished")
	case <-time.After(30 * time.Second):
		log.Error().Msg("Timed out waiting for submission")
		os.Exit(1)
	}
}

// consoleDisplay satisfies engine.Display and signals completion when
// the engine navigates away.
type consoleDisplay struct {
	engine.NopDisplay
	done chan string
}

func (d *consoleDisplay) UpdateTimer(remaining int, level engine.TimerLevel) {
	if remaining%60 == 0 {
		fmt.Printf("  timer %s\n", engine.FormatRemaining(remaining))
	}
}

func (d *consoleDisplay) ShowViolation(count, max int) {
	fmt.Printf("  violation %d/%d\n", count, max)
}

func (d *consoleDisplay) NavigateTo(url string) {
	select {
	case d.done <- url:
	default:
	}
}

type loginResult struct {
	Token     string `json:"token"`
	QuizToken string `json:"quiz_token"`
}

func doLogin(ctx context.Context, baseURL, name, registerNo, email string) (*loginResult, error) {
	body, _ := json.Marshal(map[string]string{
		"name":        name,
		"register_no": registerNo,
		"email":       email,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := doJSON(req)
	if err != nil {
		return nil, err
	}

	var result loginResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode login: %w", err)
	}
	return &result, nil
}

type paperResult struct {
	Questions []struct {
		ID int `json:"id"`
	} `json:"questions"`
	TotalQuestions  int `json:"total_questions"`
	DurationSeconds int `json:"duration_seconds"`
	MaxViolations   int `json:"max_violations"`
}

func fetchPaper(ctx context.Context, baseURL, token string) (*paperResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/quiz/paper", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	data, err := doJSON(req)
	if err != nil {
		return nil, err
	}

	var result paperResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode paper: %w", err)
	}
	return &result, nil
}

// doJSON executes the request and unwraps the response envelope.
func doJSON(req *http.Request) (json.RawMessage, error) {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var env struct {
		Data  json.RawMessage `json:"data"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 {
		if env.Error != nil {
			return nil, fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
		}
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return env.Data, nil
}
