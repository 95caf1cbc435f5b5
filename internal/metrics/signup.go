package metrics

import "time"

// SubmissionCompleted records one users API call and its classified outcome.
func SubmissionCompleted(outcome string, duration time.Duration) {
	SignUpSubmissionsTotal.WithLabelValues(outcome).Inc()
	SignUpAPIRequestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// DuplicateSubmitRejected records a submit ignored while another was in flight.
func DuplicateSubmitRejected() {
	SignUpDuplicateSubmits.Inc()
}

// FormsActive sets the number of live form sessions.
func FormsActive(n int) {
	SignUpFormsActive.Set(float64(n))
}
