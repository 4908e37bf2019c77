package gravityforms

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts bridge traffic. A nil *Metrics records nothing.
type Metrics struct {
	Submissions  *prometheus.CounterVec
	SchemaLoads  *prometheus.CounterVec
	FieldLookups *prometheus.CounterVec
}

// NewMetrics builds the collectors and registers them on reg when reg is not
// nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gfbridge",
			Name:      "submissions_total",
			Help:      "Form submissions forwarded to Gravity Forms, by outcome.",
		}, []string{"outcome"}),
		SchemaLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gfbridge",
			Name:      "schema_fetches_total",
			Help:      "Form schema fetches through the WordPress proxy, by result.",
		}, []string{"result"}),
		FieldLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gfbridge",
			Name:      "field_lookups_total",
			Help:      "Mapped contact field lookups, by result.",
		}, []string{"result"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Submissions, m.SchemaLoads, m.FieldLookups} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) submission(outcome string) {
	if m == nil || m.Submissions == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) schema(result string) {
	if m == nil || m.SchemaLoads == nil {
		return
	}
	m.SchemaLoads.WithLabelValues(result).Inc()
}

func (m *Metrics) fields(result string) {
	if m == nil || m.FieldLookups == nil {
		return
	}
	m.FieldLookups.WithLabelValues(result).Inc()
}
