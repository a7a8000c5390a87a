package gate

// ActionKind is what the gate does with a request.
type ActionKind int

const (
	// Allow forwards the request unchanged.
	Allow ActionKind = iota
	// Redirect answers 307 with a relative Location.
	Redirect
	// Rewrite forwards the request with a different path; the browser
	// keeps its URL.
	Rewrite
	// CheckStatus defers to the tenant status gate.  Engine.Decide emits
	// it; Gate.Evaluate always replaces it before answering.
	CheckStatus
)

func (k ActionKind) String() string {
	switch k {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case Rewrite:
		return "rewrite"
	case CheckStatus:
		return "check_status"
	default:
		return "unknown"
	}
}

// Action is a kind plus, for Redirect and Rewrite, a target path.
type Action struct {
	Kind   ActionKind
	Target string
}

func (a Action) String() string {
	if a.Target == "" {
		return a.Kind.String()
	}
	return a.Kind.String() + " " + a.Target
}

func allow() Action                 { return Action{Kind: Allow} }
func redirect(target string) Action { return Action{Kind: Redirect, Target: target} }
func rewrite(target string) Action  { return Action{Kind: Rewrite, Target: target} }

// Decision pairs an action with the name of the rule that produced it.
type Decision struct {
	Action Action
	Rule   string
}
