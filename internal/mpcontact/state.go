package mpcontact

// Step numbers the three wizard screens.
type Step int

const (
	StepLookup  Step = 1
	StepCompose Step = 2
	StepPresent Step = 3
)

func (s Step) String() string {
	switch s {
	case StepLookup:
		return "lookup"
	case StepCompose:
		return "compose"
	case StepPresent:
		return "present"
	}
	return "unknown"
}

// State is one of *LookupState, *ComposeState or *PresentState. Each carries
// only the fields valid at that step, so a representative cannot be read
// before the lookup succeeded nor a message before it was generated.
type State interface {
	Step() Step
	clone() State
}

// LookupState is step 1: the user types a postcode.
type LookupState struct {
	Postcode string
	Err      string
}

// ComposeState is step 2: the MP is known and the user picks concerns.
type ComposeState struct {
	Representative Representative
	Selected       Selection
	Narrative      string
	Err            string
}

// PresentState is step 3: the drafted message is shown for copying.
type PresentState struct {
	Representative Representative
	Message        GeneratedMessage
}

func (*LookupState) Step() Step  { return StepLookup }
func (*ComposeState) Step() Step { return StepCompose }
func (*PresentState) Step() Step { return StepPresent }

func (s *LookupState) clone() State {
	c := *s
	return &c
}

func (s *ComposeState) clone() State {
	c := *s
	c.Selected = NewSelection(s.Selected.List()...)
	return &c
}

func (s *PresentState) clone() State {
	c := *s
	return &c
}

// Snapshot is a flat, read-only view of a wizard for rendering and JSON.
type Snapshot struct {
	Step           Step              `json:"step"`
	StepName       string            `json:"step_name"`
	Busy           bool              `json:"busy"`
	Error          string            `json:"error,omitempty"`
	Postcode       string            `json:"postcode,omitempty"`
	Representative *Representative   `json:"representative,omitempty"`
	Concerns       []Concern         `json:"concerns,omitempty"`
	Narrative      string            `json:"narrative,omitempty"`
	CanGenerate    bool              `json:"can_generate"`
	Message        *GeneratedMessage `json:"message,omitempty"`
	MailtoURL      string            `json:"mailto_url,omitempty"`
}

func snapshotOf(st State, busy bool) Snapshot {
	snap := Snapshot{Step: st.Step(), StepName: st.Step().String(), Busy: busy}
	switch s := st.(type) {
	case *LookupState:
		snap.Postcode = s.Postcode
		snap.Error = s.Err
	case *ComposeState:
		rep := s.Representative
		snap.Representative = &rep
		snap.Concerns = s.Selected.List()
		snap.Narrative = s.Narrative
		snap.Error = s.Err
		snap.CanGenerate = !s.Selected.Empty() && !busy
	case *PresentState:
		rep := s.Representative
		msg := s.Message
		snap.Representative = &rep
		snap.Message = &msg
		snap.MailtoURL = msg.MailtoURL()
	}
	return snap
}
