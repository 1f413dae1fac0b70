// pipeline.go - Verkettung von TextStreamer und StopStringHandler
//
// token ids --> TextStreamer --> UTF-8 Text --> StopStringHandler --> Text
//
// Enthaelt:
// - NewPipeline: Erstellt beide Stufen fuer eine Session
// - Put / Finish: Reichen jede Stufe direkt an die naechste weiter
// - DoneReason: Warum die Session beendet wurde
package streamer

import (
	"log/slog"
	"slices"

	"github.com/google/uuid"
)

// DoneReason gibt an warum eine Session beendet wurde
type DoneReason int

const (
	DoneReasonNone       DoneReason = iota // Session laeuft noch
	DoneReasonFinish                       // Finish wurde aufgerufen
	DoneReasonStopString                   // Stop-String gefunden
	DoneReasonStopToken                    // Stop-Token erzeugt
)

func (d DoneReason) String() string {
	switch d {
	case DoneReasonFinish:
		return "finish"
	case DoneReasonStopString, DoneReasonStopToken:
		return "stop"
	default:
		return ""
	}
}

// Option konfiguriert eine Pipeline
type Option func(*Pipeline)

// WithStopTokens beendet die Session, sobald eines der Tokens erzeugt wird.
// Das Stop-Token selbst wird nicht dekodiert.
func WithStopTokens(ids ...int32) Option {
	return func(p *Pipeline) {
		p.stopTokens = append(p.stopTokens, ids...)
	}
}

// WithLogger setzt den Logger der Session, Default ist slog.Default
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// Pipeline verbindet TextStreamer und StopStringHandler fuer eine Session
type Pipeline struct {
	ID string

	text *TextStreamer
	stop *StopStringHandler

	stopTokens []int32
	logger     *slog.Logger
	done       DoneReason
}

// NewPipeline erstellt eine Pipeline fuer eine Generierungs-Session
func NewPipeline(dec Decoder, stops []string, opts ...Option) *Pipeline {
	p := &Pipeline{
		ID:   uuid.New().String(),
		text: NewTextStreamer(dec),
		stop: NewStopStringHandler(stops),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("session", p.ID)

	return p
}

// Put dekodiert ids und gibt den Text zurueck, der ausgegeben werden darf.
// Nach dem Ende der Session ist das Ergebnis leer.
func (p *Pipeline) Put(ids []int32) (string, error) {
	if p.done != DoneReasonNone {
		return "", nil
	}

	stopToken := slices.IndexFunc(ids, func(id int32) bool {
		return slices.Contains(p.stopTokens, id)
	})
	if stopToken >= 0 {
		ids = ids[:stopToken]
	}

	text, err := p.text.Put(ids)
	if err != nil {
		return "", err
	}

	out := p.stop.Put(text)
	if p.stop.StopTriggered() {
		p.end(DoneReasonStopString)
		return out, nil
	}

	if stopToken >= 0 {
		rest, err := p.flush()
		if err != nil {
			return out, err
		}

		if p.stop.StopTriggered() {
			p.end(DoneReasonStopString)
		} else {
			p.end(DoneReasonStopToken)
		}
		return out + rest, nil
	}

	return out, nil
}

// Finish gibt den zurueckgehaltenen Text beider Stufen aus
func (p *Pipeline) Finish() (string, error) {
	if p.done != DoneReasonNone {
		return "", nil
	}

	out, err := p.flush()
	if err != nil {
		return "", err
	}

	if p.stop.StopTriggered() {
		p.end(DoneReasonStopString)
	} else {
		p.end(DoneReasonFinish)
	}

	return out, nil
}

// flush leert zuerst den TextStreamer und reicht dessen Rest durch den
// StopStringHandler, bevor dieser beendet wird
func (p *Pipeline) flush() (string, error) {
	text, err := p.text.Finish()
	if err != nil {
		return "", err
	}

	out := p.stop.Put(text)
	return out + p.stop.Finish(), nil
}

func (p *Pipeline) end(reason DoneReason) {
	p.done = reason
	p.logger.Debug("session done", "reason", reason, "stop", p.stop.StopString())
}

// Stopped meldet ob die Session durch einen Stop-String oder ein Stop-Token
// beendet wurde
func (p *Pipeline) Stopped() bool {
	return p.done == DoneReasonStopString || p.done == DoneReasonStopToken
}

// DoneReason gibt den Grund fuer das Ende der Session zurueck
func (p *Pipeline) DoneReason() DoneReason {
	return p.done
}

// StopString gibt den gefundenen Stop-String zurueck
func (p *Pipeline) StopString() string {
	return p.stop.StopString()
}
