package ad

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

const (
	MinScore = 0
	MaxScore = 10
	totalKey = "total"
)

// ScoreSet holds integer scores per criterion and their sum.
// It serializes flat: {"<criterion>": n, ..., "total": n}, criteria in order.
type ScoreSet struct {
	Criteria []string
	Scores   map[string]int
	Total    int
}

// NewScoreSet builds a set over criteria and recomputes the total.
func NewScoreSet(criteria []string, scores map[string]int) ScoreSet {
	s := ScoreSet{Criteria: append([]string(nil), criteria...), Scores: make(map[string]int, len(criteria))}
	for _, c := range criteria {
		s.Scores[c] = scores[c]
	}
	s.Recompute()
	return s
}

// Recompute sets Total to the sum of the criteria scores.
func (s *ScoreSet) Recompute() {
	total := 0
	for _, c := range s.Criteria {
		total += s.Scores[c]
	}
	s.Total = total
}

func (s ScoreSet) Get(criterion string) int { return s.Scores[criterion] }

// Clone returns a deep copy.
func (s ScoreSet) Clone() ScoreSet {
	return NewScoreSet(s.Criteria, s.Scores)
}

// Validate checks that every criterion is present and within range.
func (s ScoreSet) Validate() error {
	if len(s.Criteria) == 0 {
		return errors.New("score set has no criteria")
	}
	for _, c := range s.Criteria {
		v, ok := s.Scores[c]
		if !ok {
			return fmt.Errorf("missing score for %q", c)
		}
		if v < MinScore || v > MaxScore {
			return fmt.Errorf("score for %q out of range: %d", c, v)
		}
	}
	return nil
}

func (s ScoreSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, c := range s.Criteria {
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(s.Scores[c]))
		buf.WriteByte(',')
	}
	buf.WriteString(`"total":`)
	buf.WriteString(strconv.Itoa(s.Total))
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps key order. Non-integral numbers are rounded; "total" is
// ignored and recomputed.
func (s *ScoreSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("score set must be a JSON object")
	}
	out := ScoreSet{Scores: map[string]int{}}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var num json.Number
		if err := dec.Decode(&num); err != nil {
			return fmt.Errorf("score %q: %w", key, err)
		}
		if key == totalKey {
			continue
		}
		f, err := num.Float64()
		if err != nil {
			return fmt.Errorf("score %q: %w", key, err)
		}
		if _, dup := out.Scores[key]; !dup {
			out.Criteria = append(out.Criteria, key)
		}
		out.Scores[key] = int(math.Round(f))
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	out.Recompute()
	*s = out
	return nil
}

// Restrict returns a set holding only the given criteria, in that order.
func (s ScoreSet) Restrict(criteria []string) ScoreSet {
	return NewScoreSet(criteria, s.Scores)
}

func (ScoreSet) GormDataType() string { return "json" }

func (s ScoreSet) Value() (driver.Value, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *ScoreSet) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*s = ScoreSet{Scores: map[string]int{}}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("score set: unsupported column type %T", value)
	}
	return s.UnmarshalJSON(raw)
}
