// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeAccepted         = "accepted"
	OutcomeAlreadySubmitted = "already_submitted"
	OutcomeMaxExceeded      = "max_exceeded"
	OutcomeInvalid          = "invalid"
	OutcomeNotFound         = "not_found"
	OutcomeError            = "error"

	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeThrottled = "throttled"

	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

var (
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rsvp_submissions_total",
		Help: "Reservation submissions by outcome.",
	}, []string{"outcome"})

	AdminLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rsvp_admin_logins_total",
		Help: "Admin login attempts by outcome.",
	}, []string{"outcome"})

	Emails = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rsvp_emails_total",
		Help: "Transactional emails by outcome.",
	}, []string{"outcome"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
