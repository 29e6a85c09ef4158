// Package persona defines the closed set of investor personas that
// parameterize question answering and investment writeups. The set is
// fixed; metadata lookup is total, so a persona can never be missing
// its display data.
package persona

import "strings"

// Persona identifies one analytical viewpoint.
type Persona int

const (
	General Persona = iota
	Tech
	Value
	Growth
	ESG
	Institutional
	Retail
	Risk
)

// Meta holds the display metadata for a persona.
type Meta struct {
	Name  string // display name, e.g. "Value Investor"
	Wire  string // value sent to the backend
	Icon  string // glyph shown next to the persona name
	Color string // theme color token resolved by the ui package
	Lens  string // one-line description of the viewpoint
}

var metas = map[Persona]Meta{
	General:       {Name: "Balanced Investor", Wire: "general", Icon: "⚖", Color: "accent", Lens: "fundamentals with a risk-adjusted view"},
	Tech:          {Name: "Tech Investor", Wire: "tech", Icon: "⚡", Color: "info", Lens: "platform effects, scalability, product velocity"},
	Value:         {Name: "Value Investor", Wire: "value", Icon: "¤", Color: "success", Lens: "margin of safety, free cash flow, downside protection"},
	Growth:        {Name: "Growth Investor", Wire: "growth", Icon: "↗", Color: "warning", Lens: "TAM, execution, durable growth"},
	ESG:           {Name: "ESG Investor", Wire: "esg", Icon: "♻", Color: "success", Lens: "sustainability, governance, long-term resilience"},
	Institutional: {Name: "Institutional PM", Wire: "institutional", Icon: "▣", Color: "primary", Lens: "portfolio fit, liquidity, risk metrics"},
	Retail:        {Name: "Retail Investor", Wire: "retail", Icon: "☺", Color: "info", Lens: "clarity and practical takeaways"},
	Risk:          {Name: "Risk Officer", Wire: "risk", Icon: "⚠", Color: "destructive", Lens: "tail risks, compliance, stress scenarios"},
}

// All returns every persona in display order.
func All() []Persona {
	return []Persona{General, Tech, Value, Growth, ESG, Institutional, Retail, Risk}
}

// Meta returns the display metadata for p. Unknown values fall back to
// the General metadata, so the lookup is total.
func (p Persona) Meta() Meta {
	if m, ok := metas[p]; ok {
		return m
	}
	return metas[General]
}

// String returns the wire value, e.g. "value".
func (p Persona) String() string { return p.Meta().Wire }

// Parse resolves a wire value or display name to a persona. Matching
// is case-insensitive.
func Parse(s string) (Persona, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range All() {
		m := p.Meta()
		if s == m.Wire || s == strings.ToLower(m.Name) {
			return p, true
		}
	}
	return General, false
}
