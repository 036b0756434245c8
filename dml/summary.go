package dml

import (
	"fmt"
	"strings"
)

// Summary renders the fitted model as a readable table: one row per
// treatment with the coefficient, standard error, t statistic, p-value and
// the 95% pointwise confidence interval. Returns a placeholder line when the
// model has not been fitted.
func (m *PLR) Summary() string {
	if !m.state.IsFitted() {
		return "PLR: not fitted; call Fit first\n"
	}

	var b strings.Builder
	b.WriteString("Double machine learning: partially linear regression\n")
	fmt.Fprintf(&b, "Score: %s, procedure: %s\n", m.score, m.procedure)
	fmt.Fprintf(&b, "Folds: %d, repetitions: %d, observations: %d, cross-fitting: %t\n",
		m.nFolds, m.nRep, m.data.N(), m.applyCrossFitting)
	if m.bootCoefs != nil {
		fmt.Fprintf(&b, "Bootstrap: %s (%d draws)\n", m.bootMethod, len(m.bootCoefs[0]))
	}
	b.WriteString("\n")

	nameWidth := len("treatment")
	for _, name := range m.data.dNames {
		if len(name) > nameWidth {
			nameWidth = len(name)
		}
	}

	intervals, err := m.ConfInt(0.95)
	if err != nil {
		// RequireFitted already passed; only an invalid level could fail here.
		return b.String()
	}

	fmt.Fprintf(&b, "%-*s %10s %10s %10s %10s %10s %10s\n",
		nameWidth, "treatment", "coef", "std err", "t", "P>|t|", "2.5 %", "97.5 %")
	for j, name := range m.data.dNames {
		fmt.Fprintf(&b, "%-*s %10.4f %10.4f %10.4f %10.4f %10.4f %10.4f\n",
			nameWidth, name, m.coefs[j], m.ses[j], m.ts[j], m.ps[j],
			intervals[j].Lower, intervals[j].Upper)
	}
	return b.String()
}
