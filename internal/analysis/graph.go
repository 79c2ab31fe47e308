// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"sync"

	"audioscope/internal/audio"
	"audioscope/internal/log"
)

var (
	// ErrGraphConstruction is returned when a graph cannot be built.
	ErrGraphConstruction = errors.New("failed to build analysis graph")
	// ErrGraphClosed is returned by operations on a closed graph.
	ErrGraphClosed = errors.New("analysis graph is closed")
)

// GraphState is the processing state of a Graph.
type GraphState int

const (
	GraphSuspended GraphState = iota
	GraphRunning
	GraphClosed
)

func (s GraphState) String() string {
	switch s {
	case GraphSuspended:
		return "suspended"
	case GraphRunning:
		return "running"
	case GraphClosed:
		return "closed"
	default:
		return fmt.Sprintf("GraphState(%d)", int(s))
	}
}

// Graph connects a capture source to an Analyser. It starts suspended: the
// analyser sees no samples until Resume.
type Graph struct {
	src      audio.Source
	analyser *Analyser

	mu    sync.Mutex
	state GraphState
}

// NewGraph builds a graph routing src into a new analyser. Failures wrap
// ErrGraphConstruction.
func NewGraph(src audio.Source, cfg Config) (*Graph, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no source", ErrGraphConstruction)
	}
	analyser, err := NewAnalyser(cfg, src.SampleRate())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGraphConstruction, err)
	}

	src.Connect(analyser)
	log.Debugf("Analysis: graph built (fft %d, window %v, %d Hz)", cfg.FFTSize, cfg.Window, src.SampleRate())
	return &Graph{src: src, analyser: analyser}, nil
}

// Analyser returns the graph's analysis node.
func (g *Graph) Analyser() Node {
	return g.analyser
}

// State returns the current processing state.
func (g *Graph) State() GraphState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Resume starts feeding samples to the analyser.
func (g *Graph) Resume() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == GraphClosed {
		return ErrGraphClosed
	}
	g.analyser.enabled.Store(true)
	g.state = GraphRunning
	return nil
}

// Suspend stops feeding samples while keeping the analyser's window.
func (g *Graph) Suspend() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == GraphClosed {
		return ErrGraphClosed
	}
	g.analyser.enabled.Store(false)
	g.state = GraphSuspended
	return nil
}

// Close disconnects the source and releases the analyser's history. Closing
// twice returns ErrGraphClosed. The source's tracks are not stopped.
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == GraphClosed {
		return ErrGraphClosed
	}
	g.analyser.enabled.Store(false)
	g.src.Connect(nil)
	g.analyser.reset()
	g.state = GraphClosed
	return nil
}
