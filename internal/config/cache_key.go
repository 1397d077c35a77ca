package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ParticipantSessionKey returns the cache key for a participant's login session
func (r *CacheKeyStruct) ParticipantSessionKey(participantID int) string {
	return fmt.Sprintf("login:%d", participantID)
}

// QuizTokenKey returns the cache key for a participant's anti-forgery quiz token
func (r *CacheKeyStruct) QuizTokenKey(participantID int) string {
	return fmt.Sprintf("participant:%d:quiz_token", participantID)
}

// AttemptStartKey returns the cache key for a participant's attempt start timestamp
func (r *CacheKeyStruct) AttemptStartKey(participantID int) string {
	return fmt.Sprintf("participant:%d:attempt_start", participantID)
}

// ParticipantAnswersKey returns the cache key for a participant's autosaved answers
func (r *CacheKeyStruct) ParticipantAnswersKey(participantID int) string {
	return fmt.Sprintf("participant:%d:answers", participantID)
}

// ViolationCountKey returns the cache key for a participant's live violation count
func (r *CacheKeyStruct) ViolationCountKey(participantID int) string {
	return fmt.Sprintf("participant:%d:violations", participantID)
}

// QuizPaperKey returns the cache key for the published quiz paper payload
func (r *CacheKeyStruct) QuizPaperKey() string {
	return "quiz:paper"
}

// AnswerKeyKey returns the cache key for the quiz answer key
func (r *CacheKeyStruct) AnswerKeyKey() string {
	return "quiz:answer_key"
}

// MonitorChannel returns the Redis PubSub channel name for the live monitor
func (r *CacheKeyStruct) MonitorChannel() string {
	return "quiz:monitor"
}

var CacheKey = NewCacheKeyStruct()
