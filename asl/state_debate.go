package asl

import "context"

// debateTurn is one entry of the Debate's history: {round, agent, response}.
type debateTurn struct {
	Round    int
	Agent    string
	Response Document
}

// runDebateBody implements the Debate state (§4.4.9): Participants take
// turns producing a response for Rounds rounds, each seeing as much of the
// history as Communication.VisibleHistory allows. Communication.Style
// chooses whether a round's participants speak in sequence (turn_based,
// each sees the others' current-round responses so far) or all at once
// (simultaneous, nobody sees this round's responses until it closes);
// reactive is treated as turn_based with full visibility, since "reacting"
// requires seeing what is being reacted to. When Consensus.Required and
// Arbiter are both set, the arbiter is consulted after every round and may
// short-circuit the debate by returning {decision: ...}; otherwise the
// result is {topic, rounds, participants, history, consensus, decision?}.
func runDebateBody(ctx context.Context, r *run, name string, state *State, params interface{}, ectx *execContext) bodyOutcome {
	participants := state.debateParticipants()
	var history []debateTurn

	style := CommTurnBased
	visibility := VisAll
	if state.Communication != nil {
		if state.Communication.Style != "" {
			style = state.Communication.Style
		}
		if state.Communication.VisibleHistory != "" {
			visibility = state.Communication.VisibleHistory
		}
	}
	if style == CommReactive {
		style, visibility = CommTurnBased, VisAll
	}
	consensusRequired := state.Consensus != nil && state.Consensus.Required

	var lastRoundResponses []Document
	for round := 1; round <= state.Rounds; round++ {
		roundResponses := make([]Document, len(participants))

		speak := func(pi int) *StateError {
			agentName := participants[pi]
			agent, err := r.engine.registry.Lookup(agentName)
			if err != nil {
				return err.(*StateError)
			}
			visible := visibleHistory(history, roundResponses, pi, visibility, style, agentName)
			input := Document{
				"topic":   state.Topic,
				"round":   float64(round),
				"agent":   agentName,
				"history": visible,
			}
			if d, ok := asDocument(params); ok {
				input["input"] = d
			}
			out, execErr := agent.Execute(ctx, input)
			if execErr != nil {
				if ae, ok := AsAgentError(execErr); ok {
					return &StateError{Name: ae.Name, State: name, Cause: ae.Cause}
				}
				return &StateError{Name: ErrNameTaskFailed, State: name, Cause: execErr.Error()}
			}
			roundResponses[pi] = out
			return nil
		}

		if style == CommSimultaneous {
			_, sErr := runConcurrent(ctx, len(participants), len(participants), func(_, failed int) bool { return failed == 0 }, func(_ context.Context, pi int) (interface{}, *StateError) {
				return nil, speak(pi)
			})
			if sErr != nil {
				return bodyOutcome{err: sErr}
			}
		} else {
			for pi := range participants {
				if sErr := speak(pi); sErr != nil {
					return bodyOutcome{err: sErr}
				}
			}
		}

		for pi, resp := range roundResponses {
			history = append(history, debateTurn{Round: round, Agent: participants[pi], Response: resp})
		}
		lastRoundResponses = roundResponses

		if consensusRequired && state.Arbiter != "" {
			decision, settled, err := consultArbiter(ctx, r, name, state, history, roundResponses)
			if err != nil {
				return bodyOutcome{err: err}
			}
			if settled {
				return bodyOutcome{result: debateResult(state, round, history, true, decision), hasResult: true}
			}
		}
	}

	if consensusRequired && statementsAgree(lastRoundResponses) {
		return bodyOutcome{result: debateResult(state, state.Rounds, history, true, lastRoundResponses[0]), hasResult: true}
	}

	if state.Arbiter != "" {
		decision, _, err := consultArbiter(ctx, r, name, state, history, lastRoundResponses)
		if err != nil {
			return bodyOutcome{err: err}
		}
		return bodyOutcome{result: debateResult(state, state.Rounds, history, false, decision), hasResult: true}
	}

	return bodyOutcome{result: debateResult(state, state.Rounds, history, false, nil), hasResult: true}
}

// consultArbiter invokes the Arbiter agent with the full history so far. The
// arbiter tie-breaks disagreement: a response carrying a "decision" key
// settles the debate (§9's tie-break resolution of the open question of
// what "may short-circuit" means); any other response is advisory only and
// the debate continues to its next round.
func consultArbiter(ctx context.Context, r *run, name string, state *State, history []debateTurn, roundResponses []Document) (interface{}, bool, *StateError) {
	agent, err := r.engine.registry.Lookup(state.Arbiter)
	if err != nil {
		return nil, false, err.(*StateError)
	}
	out, execErr := agent.Execute(ctx, Document{
		"topic":   state.Topic,
		"history": historyDocuments(history),
	})
	if execErr != nil {
		if ae, ok := AsAgentError(execErr); ok {
			return nil, false, &StateError{Name: ae.Name, State: name, Cause: ae.Cause}
		}
		return nil, false, &StateError{Name: ErrNameTaskFailed, State: name, Cause: execErr.Error()}
	}
	if decision, ok := out["decision"]; ok {
		return decision, true, nil
	}
	return nil, false, nil
}

func debateResult(state *State, rounds int, history []debateTurn, consensus bool, decision interface{}) Document {
	d := Document{
		"topic":        state.Topic,
		"rounds":       float64(rounds),
		"participants": stringsToSequence(state.debateParticipants()),
		"history":      historyDocuments(history),
		"consensus":    consensus,
	}
	if decision != nil {
		d["decision"] = decision
	}
	return d
}

func stringsToSequence(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func visibleHistory(history []debateTurn, inProgress []Document, speakerIdx int, visibility VisibleHistory, style CommunicationStyle, self string) []interface{} {
	var out []interface{}
	switch visibility {
	case VisNone:
		return []interface{}{}
	case VisOwnOnly:
		for _, t := range history {
			if t.Agent == self {
				out = append(out, debateTurnDocument(t))
			}
		}
	case VisPreviousOnly:
		if len(history) > 0 {
			lastRound := history[len(history)-1].Round
			for _, t := range history {
				if t.Round == lastRound {
					out = append(out, debateTurnDocument(t))
				}
			}
		}
	default: // all
		for _, t := range history {
			out = append(out, debateTurnDocument(t))
		}
	}
	if style == CommTurnBased && visibility != VisOwnOnly {
		for i, resp := range inProgress {
			if i < speakerIdx && resp != nil {
				out = append(out, resp)
			}
		}
	}
	if out == nil {
		out = []interface{}{}
	}
	return out
}

func debateTurnDocument(t debateTurn) Document {
	return Document{"round": float64(t.Round), "agent": t.Agent, "response": t.Response}
}

func historyDocuments(ts []debateTurn) []interface{} {
	out := make([]interface{}, len(ts))
	for i, t := range ts {
		out[i] = debateTurnDocument(t)
	}
	return out
}

func statementsAgree(responses []Document) bool {
	if len(responses) == 0 {
		return false
	}
	for _, s := range responses[1:] {
		if !deepEqual(responses[0], s) {
			return false
		}
	}
	return true
}
