package netaccess

import (
	"fmt"
	"strconv"
	"strings"
)

// Duration represents the approval window the portal grants a machine
type Duration int

const (
	// DurationHour approves the machine for one hour
	DurationHour Duration = 1

	// DurationDay approves the machine for a full day
	DurationDay Duration = 2
)

// Valid returns whether the portal knows the approval window.
// The client itself submits any value it is given.
func (duration Duration) Valid() bool {
	return duration == DurationHour || duration == DurationDay
}

func (duration Duration) String() string {
	switch duration {
	case DurationHour:
		return "1 hour"
	case DurationDay:
		return "1 day"
	default:
		return "duration(" + strconv.Itoa(int(duration)) + ")"
	}
}

// MatchPolicy decides how a successful (HTTP 200) response that lacks every confirmation keyword is judged
type MatchPolicy int

const (
	// StrictMatch treats a missing confirmation keyword as a failure
	StrictMatch MatchPolicy = iota

	// OptimisticDefault treats an accepted form without explicit failure text as a (weak) success
	OptimisticDefault
)

func (policy MatchPolicy) String() string {
	switch policy {
	case StrictMatch:
		return "strict"
	case OptimisticDefault:
		return "optimistic"
	default:
		return "policy(" + strconv.Itoa(int(policy)) + ")"
	}
}

// ParseMatchPolicy parses the textual representation of a match policy
func ParseMatchPolicy(raw string) (MatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "strict":
		return StrictMatch, nil
	case "", "optimistic":
		return OptimisticDefault, nil
	default:
		return 0, fmt.Errorf("unknown match policy %q (expected 'strict' or 'optimistic')", raw)
	}
}

// Confidence describes how strongly a step's outcome is backed by the response body
type Confidence int

const (
	// ConfidenceNone means the step failed
	ConfidenceNone Confidence = iota

	// ConfidenceWeak means the step was accepted by the optimistic default only
	ConfidenceWeak

	// ConfidenceExplicit means the response body contained a confirmation keyword
	ConfidenceExplicit
)

var (
	loginKeywords   = []string{"logout", "authorized machines"}
	approveKeywords = []string{"success", "authorized"}
)

// judge applies the match policy to a response body
func judge(body string, keywords []string, policy MatchPolicy) Confidence {
	if containsAny(body, keywords) {
		return ConfidenceExplicit
	}
	if policy == OptimisticDefault {
		return ConfidenceWeak
	}
	return ConfidenceNone
}

func containsAny(body string, keywords []string) bool {
	lower := strings.ToLower(body)
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
