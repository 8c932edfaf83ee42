package services

import (
	internal_types "github.com/soulpass/api/functions/gateway/types"
)

// Weights for the reputation formula. Attendance follow-through dominates,
// request reliability is the smaller signal.
const (
	attendanceWeight = 0.7
	approvalWeight   = 0.3
)

type ReputationSummary struct {
	Score          float64
	EventsApproved int64
	EventsAttended int64
	TotalRequests  int64
}

// ComputeReputation derives a reputation summary from an address's full RSVP
// history. This is the single definition of the score formula:
//
//	approvalRate   = approved-or-better / all requests
//	attendanceRate = attended / approved-or-better (0 when never approved)
//	score          = 0.7*attendanceRate + 0.3*approvalRate, clamped to [0,1]
//
// An address with no RSVP history scores 0.
func ComputeReputation(rsvps []internal_types.EventRsvp) ReputationSummary {
	summary := ReputationSummary{TotalRequests: int64(len(rsvps))}
	for i := range rsvps {
		if rsvps[i].ApprovedAt != nil {
			summary.EventsApproved++
		}
		if rsvps[i].AttendedAt != nil {
			summary.EventsAttended++
		}
	}

	if summary.TotalRequests == 0 {
		return summary
	}

	approvalRate := float64(summary.EventsApproved) / float64(summary.TotalRequests)
	attendanceRate := 0.0
	if summary.EventsApproved > 0 {
		attendanceRate = float64(summary.EventsAttended) / float64(summary.EventsApproved)
	}

	score := attendanceWeight*attendanceRate + approvalWeight*approvalRate
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	summary.Score = score
	return summary
}

// ReputationLabel maps a score to its display band. Presentation only, no
// logic branches on these labels.
func ReputationLabel(score float64) string {
	switch {
	case score >= 0.8:
		return "Excellent"
	case score >= 0.6:
		return "Good"
	case score >= 0.4:
		return "Fair"
	default:
		return "Poor"
	}
}
