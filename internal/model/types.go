// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Category is a named grouping of trivia questions.
type Category struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// DifficultyCounts holds question totals per difficulty.
type DifficultyCounts struct {
	Total  int `json:"total_question_count" yaml:"total"`
	Easy   int `json:"total_easy_question_count" yaml:"easy"`
	Medium int `json:"total_medium_question_count" yaml:"medium"`
	Hard   int `json:"total_hard_question_count" yaml:"hard"`
}

// Add increments the bucket for d and the total. Unknown difficulties are ignored.
func (c *DifficultyCounts) Add(d Difficulty) bool {
	switch d {
	case DifficultyEasy:
		c.Easy++
	case DifficultyMedium:
		c.Medium++
	case DifficultyHard:
		c.Hard++
	default:
		return false
	}
	c.Total++
	return true
}

// CategoryQuestionCount is the question count breakdown for one category.
type CategoryQuestionCount struct {
	CategoryID int              `json:"category_id" yaml:"category_id"`
	Counts     DifficultyCounts `json:"category_question_count" yaml:"counts"`
}

// Difficulty is the difficulty level of a question.
type Difficulty string

// Known difficulties.
const (
	DifficultyAny    Difficulty = ""
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the known difficulties in display order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty parses a difficulty name. Empty input means any difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if d == DifficultyAny || d.Valid() {
		return d, nil
	}
	return DifficultyAny, fmt.Errorf("unknown difficulty %q (use easy, medium or hard)", s)
}

// Valid reports whether d is one of easy, medium or hard.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question is a single trivia question as returned by the questions endpoint.
type Question struct {
	Type             string     `json:"type"`
	Difficulty       Difficulty `json:"difficulty"`
	Category         string     `json:"category"`
	Question         string     `json:"question"`
	CorrectAnswer    string     `json:"correct_answer"`
	IncorrectAnswers []string   `json:"incorrect_answers"`
}

// Mode selects which counts the dashboard analyzes.
type Mode int

// Analysis modes.
const (
	ModeDatabase Mode = iota
	ModeSample
)

func (m Mode) String() string {
	switch m {
	case ModeDatabase:
		return "database"
	case ModeSample:
		return "sample"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "database" or "sample".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "database", "db":
		return ModeDatabase, nil
	case "sample":
		return ModeSample, nil
	default:
		return ModeDatabase, fmt.Errorf("unknown mode %q (use database or sample)", s)
	}
}

// Settings holds resolved runtime options.
type Settings struct {
	BaseURL      string
	Timeout      time.Duration
	RequestDelay time.Duration
	SampleSize   int
	Mode         Mode
	LogFile      string
	DBPath       string
	NoHistory    bool
	Verbose      bool
}

// Snapshot is a recorded set of counts at a point in time.
type Snapshot struct {
	ID         int64
	TakenAt    time.Time
	Mode       Mode
	SampleSize int
	Total      int
	Counts     []SnapshotCount
}

// SnapshotCount is one category row of a snapshot.
type SnapshotCount struct {
	CategoryID   int
	CategoryName string
	Counts       DifficultyCounts
}

// HistoryFilter narrows snapshot listings.
type HistoryFilter struct {
	Mode  *Mode
	Since *time.Time
	Last  int
}
