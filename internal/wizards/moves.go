package wizards

import (
	"errors"
	"fmt"
	"strings"
)

// Silent rejections. The server logs them and tells nobody; a client only
// sends these when it is out of sync.
var (
	ErrWrongPhase      = errors.New("WRONG_PHASE: Game is not in progress")
	ErrUnknownPlayer   = errors.New("UNKNOWN_PLAYER: Not part of this game")
	ErrNotYourTurn     = errors.New("NOT_YOUR_TURN: Another player is acting")
	ErrAlreadyMoved    = errors.New("ALREADY_MOVED: Already moved this turn")
	ErrNotMoved        = errors.New("NOT_MOVED: Must move before finishing")
	ErrSameCell        = errors.New("SAME_CELL: Target is the current position")
	ErrNotPlayable     = errors.New("NOT_PLAYABLE: Target is off the board or a wall")
	ErrNoAggression    = errors.New("NO_AGGRESSION: Wizards need an active Sigil of Aggression to attack")
	ErrNoDecoyPending  = errors.New("NO_DECOY_PENDING: No noise location was requested")
	ErrDecoyPending    = errors.New("DECOY_PENDING: Noise location must be chosen first")
	ErrSigilMismatch   = errors.New("SIGIL_MISMATCH: Inventory slot does not hold that sigil")
	ErrUnderSigilLimit = errors.New("UNDER_SIGIL_LIMIT: Nothing needs discarding")
	ErrOverSigilLimit  = errors.New("OVER_SIGIL_LIMIT: Too many sigils to finish the turn")
)

type ActionType string

const (
	ActionMove    ActionType = "request_move"
	ActionNoise   ActionType = "request_noise"
	ActionAttack  ActionType = "request_attack"
	ActionDiscard ActionType = "request_discard"
	ActionSigil   ActionType = "request_use_sigil"
	ActionFinish  ActionType = "finish_actions"
)

// actor runs the checks every turn action shares and returns the acting player.
func (g *Game) actor(name string) (*Player, error) {
	if g.Phase != PhaseGame {
		return nil, ErrWrongPhase
	}
	p, ok := g.Players[name]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if g.Current() != name {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

func (g *Game) checkTarget(p *Player, row, col int) error {
	if g.MovedThisTurn {
		return ErrAlreadyMoved
	}
	if p.At(row, col) {
		return ErrSameCell
	}
	if !g.Board.Playable(row, col) {
		return ErrNotPlayable
	}
	return nil
}

func sigilData(s Sigil) any {
	if s == NoSigil {
		return nil
	}
	return s
}

/*
 * Movement
 */

func (g *Game) Move(name string, row, col int) ([]Transition, error) {
	p, err := g.actor(name)
	if err != nil {
		return nil, err
	}
	if err := g.checkTarget(p, row, col); err != nil {
		return nil, err
	}

	p.Row, p.Col = row, col
	g.MovedThisTurn = true

	var result Hazard
	if g.Board.IsSafe(row, col) {
		result = SafeSpace
		p.History.Push(HistoryEntry{})
	} else {
		result = g.Hazards.Draw()
		// Silence wastes the draw whatever it was.
		if p.IsActive(Silence) {
			result = HazardSilent
			p.Deactivate(Silence)
		}
	}

	found := NoSigil
	var noiseCoords any
	switch result {
	case HazardSilent:
		p.History.Push(HistoryEntry{})
		found = g.Sigils.Draw()
		if found != NoSigil {
			p.Sigils = append(p.Sigils, found)
		}
	case HazardNoChoice:
		noiseCoords = []int{row, col}
		p.History.Push(HistoryEntry{Kind: EventNoise, Row: row, Col: col})
	case HazardChoice:
		// Nothing is revealed until the player picks where the noise was.
		p.DecoyChoiceRequired = true
		return []Transition{g.capture(TransitionChooseNoise, EventData{}, nil, name)}, nil
	}

	if noiseCoords == nil {
		g.Log.Add(name + " moved silently")
	} else {
		g.Log.Add(name + " disturbed the aether")
	}

	return []Transition{g.capture(TransitionMove, EventData{
		"moving_player": name,
		"noise_coords":  noiseCoords,
	}, map[string]EventData{
		name: {
			"sigil":         sigilData(found),
			"already_moved": false,
			"danger_result": result,
		},
	}, "")}, nil
}

// ChooseNoise places the deferred noise from a choice draw. The cell does not
// have to be where the player really is.
func (g *Game) ChooseNoise(name string, row, col int) ([]Transition, error) {
	p, err := g.actor(name)
	if err != nil {
		return nil, err
	}
	if !p.DecoyChoiceRequired {
		return nil, ErrNoDecoyPending
	}
	if !g.Board.Playable(row, col) {
		return nil, ErrNotPlayable
	}

	p.DecoyChoiceRequired = false
	p.History.Push(HistoryEntry{Kind: EventNoise, Row: row, Col: col})
	g.Log.Add(name + " disturbed the aether")

	return []Transition{g.capture(TransitionMove, EventData{
		"moving_player": name,
		"noise_coords":  []int{row, col},
	}, map[string]EventData{
		name: {
			"sigil":         nil,
			"already_moved": true,
		},
	}, "")}, nil
}

/*
 * Combat
 */

func (g *Game) Attack(name string, row, col int) ([]Transition, error) {
	p, err := g.actor(name)
	if err != nil {
		return nil, err
	}
	if err := g.checkTarget(p, row, col); err != nil {
		return nil, err
	}
	if !p.IsWarlock && !p.IsActive(Aggression) {
		return nil, ErrNoAggression
	}

	p.Row, p.Col = row, col
	p.History.Push(HistoryEntry{Kind: EventAttack, Row: row, Col: col})
	g.MovedThisTurn = true

	killed := make([]string, 0)
	killedWarlocks := make([]string, 0)
	resilient := make([]string, 0)

	// Turn order keeps the outcome lists stable.
	for _, targetName := range g.Order {
		target := g.Players[targetName]
		if targetName == name || !target.Alive || !target.At(row, col) {
			continue
		}

		switch {
		case target.IsWarlock:
			killed = append(killed, targetName)
			killedWarlocks = append(killedWarlocks, targetName)
		case target.ConsumeSigil(Resilience):
			resilient = append(resilient, targetName)
		default:
			killed = append(killed, targetName)
		}
	}

	for _, victimName := range killed {
		victim := g.Players[victimName]
		victim.Alive = false
		victim.History.Push(HistoryEntry{Kind: EventDead, Row: row, Col: col})
	}
	if len(killed) > 0 && p.IsWarlock {
		p.KillBonus = true
	}

	if len(killed) > 0 {
		g.Log.Add(fmt.Sprintf("%s attacked, killing %s.", name, strings.Join(killed, " and ")))
	}
	if len(resilient) > 0 {
		msg := ""
		if len(killed) == 0 {
			msg = name + " attacked, but "
		}
		msg += strings.Join(resilient, " and ") + " had a Sigil of Resilience!"
		g.Log.Add(msg)
	}
	if len(killed) == 0 && len(resilient) == 0 {
		g.Log.Add(name + " attacked, but nobody was there!")
	}

	return []Transition{g.capture(TransitionAttack, EventData{
		"attacker":        name,
		"row":             row,
		"col":             col,
		"killed":          killed,
		"killed_warlocks": killedWarlocks,
		"resilient":       resilient,
	}, nil, "")}, nil
}

/*
 * Sigils
 */

func (g *Game) Discard(name string, idx int, sigil Sigil) ([]Transition, error) {
	p, err := g.actor(name)
	if err != nil {
		return nil, err
	}
	if len(p.Sigils) <= g.Board.MaxSigils {
		return nil, ErrUnderSigilLimit
	}
	if !p.HasSigilAt(idx, sigil) {
		return nil, ErrSigilMismatch
	}

	p.RemoveSigilAt(idx)
	g.Log.Add(name + " discarded a sigil")

	return []Transition{g.capture(TransitionDiscard, EventData{
		"discarding_player": name,
	}, map[string]EventData{
		name: {"sigil_idx": idx},
	}, "")}, nil
}

// sigilRejection explains why a sigil can't be used right now, or returns "".
func (g *Game) sigilRejection(p *Player, sigil Sigil) string {
	switch {
	case sigil == Resilience:
		return "Resilience is a passive sigil, you do not activate it"
	case p.IsActive(sigil):
		return "You have already activated a <br>Sigil of " + string(sigil) + " <br>this turn"
	case g.MovedThisTurn && (sigil == Aggression || sigil == Silence || sigil == Momentum):
		return "You must activate a Sigil of " + string(sigil) + " before moving for it to be useful"
	case sigil == Transposition && p.At(g.Board.WizardSpawn.Row, g.Board.WizardSpawn.Col):
		return "You are already on the starting space"
	}
	return ""
}

func (g *Game) UseSigil(name string, idx int, sigil Sigil) ([]Transition, error) {
	p, err := g.actor(name)
	if err != nil {
		return nil, err
	}
	if !p.HasSigilAt(idx, sigil) {
		return nil, ErrSigilMismatch
	}

	if msg := g.sigilRejection(p, sigil); msg != "" {
		return []Transition{g.capture(TransitionRejectSigil, EventData{}, map[string]EventData{
			name: {"msg": msg},
		}, name)}, nil
	}

	// Transposition and Detection take effect at once and never become active.
	if sigil != Transposition && sigil != Detection {
		p.Activate(sigil)
	}
	p.RemoveSigilAt(idx)
	g.Log.Add(name + " activated a Sigil of " + string(sigil))

	switch sigil {
	case Momentum:
		p.MomentumBonus = true
	case Transposition:
		p.Row, p.Col = g.Board.WizardSpawn.Row, g.Board.WizardSpawn.Col
	}

	return []Transition{g.capture(TransitionSigil, EventData{
		"player": name,
		"name":   sigil,
	}, map[string]EventData{
		name: {"idx": idx},
	}, "")}, nil
}

/*
 * End of turn
 */

func (g *Game) FinishActions(name string) ([]Transition, error) {
	p, err := g.actor(name)
	if err != nil {
		return nil, err
	}
	if !g.MovedThisTurn {
		return nil, ErrNotMoved
	}
	if p.DecoyChoiceRequired {
		return nil, ErrDecoyPending
	}
	if len(p.Sigils) > g.Board.MaxSigils {
		return nil, ErrOverSigilLimit
	}

	g.MovedThisTurn = false
	p.MomentumBonus = false
	p.ActiveSigils = make([]Sigil, 0)

	g.advanceTurn()

	return []Transition{g.capture(TransitionNextPlayer, EventData{
		"player_name": g.Current(),
	}, nil, "")}, nil
}
