package mpcontact

// Concern is one of the fixed complaint categories a constituent can attach
// to their message. The string value is the wire identifier sent to the
// generation service.
type Concern string

const (
	HousingShortage    Concern = "housing_shortage"
	CommunityBreakdown Concern = "community_breakdown"
	NoiseAntisocial    Concern = "noise_antisocial"
	SafetyConcerns     Concern = "safety_concerns"
	PlanningViolations Concern = "planning_violations"
)

// ConcernOption pairs a concern with the label shown next to its checkbox.
type ConcernOption struct {
	ID    Concern `json:"id"`
	Label string  `json:"label"`
}

var concernOptions = []ConcernOption{
	{ID: HousingShortage, Label: "Loss of affordable rental properties"},
	{ID: CommunityBreakdown, Label: "Community breakdown and isolation"},
	{ID: NoiseAntisocial, Label: "Noise and antisocial behaviour"},
	{ID: SafetyConcerns, Label: "Safety concerns from unknown visitors"},
	{ID: PlanningViolations, Label: "Illegal conversions and planning violations"},
}

// Concerns returns the five concerns in display order.
func Concerns() []ConcernOption {
	out := make([]ConcernOption, len(concernOptions))
	copy(out, concernOptions)
	return out
}

// Valid reports whether c is one of the fixed concerns.
func (c Concern) Valid() bool {
	for _, o := range concernOptions {
		if o.ID == c {
			return true
		}
	}
	return false
}

// Label returns the display label, or the raw id for unknown concerns.
func (c Concern) Label() string {
	for _, o := range concernOptions {
		if o.ID == c {
			return o.Label
		}
	}
	return string(c)
}

// ParseConcern validates a wire identifier.
func ParseConcern(s string) (Concern, error) {
	c := Concern(s)
	if !c.Valid() {
		return "", ErrUnknownConcern
	}
	return c, nil
}

// Selection is the set of concerns the user has ticked, kept in the order
// they were ticked. The zero value is an empty selection.
type Selection struct {
	items []Concern
}

// NewSelection builds a selection from ids, ignoring duplicates.
func NewSelection(concerns ...Concern) Selection {
	var s Selection
	for _, c := range concerns {
		if !s.Has(c) {
			s.items = append(s.items, c)
		}
	}
	return s
}

// Toggle adds c when absent and removes it when present. Toggling the same
// concern twice restores the original selection.
func (s *Selection) Toggle(c Concern) {
	for i, existing := range s.items {
		if existing == c {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return
		}
	}
	s.items = append(s.items, c)
}

// Has reports whether c is selected.
func (s Selection) Has(c Concern) bool {
	for _, existing := range s.items {
		if existing == c {
			return true
		}
	}
	return false
}

// Len returns the number of selected concerns.
func (s Selection) Len() int { return len(s.items) }

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool { return len(s.items) == 0 }

// List returns a copy of the selected concerns in selection order.
func (s Selection) List() []Concern {
	out := make([]Concern, len(s.items))
	copy(out, s.items)
	return out
}
