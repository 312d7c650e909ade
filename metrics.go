package triviad

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the Prometheus collectors exported by the server. A nil
// *Metrics is valid and turns every recording call into a no-op, so metrics
// stay optional the same way the metrics listener is.
type Metrics struct {
	QuestionsIssued  prometheus.Counter
	AnswersChecked   *prometheus.CounterVec
	QuestionsExpired prometheus.Counter
	PaymentRequests  prometheus.Counter
	PassesGranted    prometheus.Counter
}

// NewMetrics builds and registers the triviad collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QuestionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "triviad",
			Name:      "questions_issued_total",
			Help:      "Questions handed out to users.",
		}),
		AnswersChecked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triviad",
			Name:      "answers_checked_total",
			Help:      "Answer checks by result.",
		}, []string{"result"}),
		QuestionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "triviad",
			Name:      "questions_expired_total",
			Help:      "Active questions removed after exceeding the expiry window.",
		}),
		PaymentRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "triviad",
			Name:      "payment_requests_total",
			Help:      "Payment requests dispatched to the bridge.",
		}),
		PassesGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "triviad",
			Name:      "day_passes_granted_total",
			Help:      "Day passes granted or extended after confirmed payments.",
		}),
	}
	reg.MustRegister(m.QuestionsIssued, m.AnswersChecked, m.QuestionsExpired, m.PaymentRequests, m.PassesGranted)
	return m
}

// RecordQuestionIssued counts one served question.
func (m *Metrics) RecordQuestionIssued() {
	if m != nil {
		m.QuestionsIssued.Inc()
	}
}

// RecordAnswerChecked counts one answer check.
func (m *Metrics) RecordAnswerChecked(correct bool) {
	if m == nil {
		return
	}
	result := "incorrect"
	if correct {
		result = "correct"
	}
	m.AnswersChecked.WithLabelValues(result).Inc()
}

// RecordQuestionsExpired counts stale questions removed by a sweep.
func (m *Metrics) RecordQuestionsExpired(n int) {
	if m != nil && n > 0 {
		m.QuestionsExpired.Add(float64(n))
	}
}

// RecordPaymentRequest counts one dispatched payment request.
func (m *Metrics) RecordPaymentRequest() {
	if m != nil {
		m.PaymentRequests.Inc()
	}
}

// RecordPassGranted counts one granted or extended day pass.
func (m *Metrics) RecordPassGranted() {
	if m != nil {
		m.PassesGranted.Inc()
	}
}
