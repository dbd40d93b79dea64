package gcp

import (
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Annotation is machine-extracted context about a creative, used as a prompt hint.
type Annotation struct {
	Provider       string
	Text           string
	Labels         []string
	Logos          []string
	Transcript     string
	ShotCount      int
	AvgShotSeconds float64
}

// Hint renders the annotation as short prompt lines. Empty annotations render "".
func (a *Annotation) Hint() string {
	if a == nil {
		return ""
	}
	var lines []string
	if t := collapseWhitespace(a.Text); t != "" {
		lines = append(lines, "On-screen text: "+truncate(t, 500))
	}
	if len(a.Labels) > 0 {
		lines = append(lines, "Detected subjects: "+strings.Join(a.Labels, ", "))
	}
	if len(a.Logos) > 0 {
		lines = append(lines, "Detected logos: "+strings.Join(a.Logos, ", "))
	}
	if t := collapseWhitespace(a.Transcript); t != "" {
		lines = append(lines, "Spoken audio: "+truncate(t, 800))
	}
	if a.ShotCount > 0 {
		lines = append(lines, fmt.Sprintf("Shots: %d (average %.1fs)", a.ShotCount, a.AvgShotSeconds))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// IsTransient reports gRPC failures worth retrying later.
func IsTransient(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}
