// SPDX-License-Identifier: MIT
package visualizer

import (
	"context"
	"errors"
	"fmt"

	"audioscope/internal/analysis"
	"audioscope/internal/audio"
	"audioscope/internal/log"
)

// Graph is the analysis graph a session drives.
type Graph interface {
	Analyser() analysis.Node
	Resume() error
	Close() error
}

// GraphFactory builds an analysis graph fed by src.
type GraphFactory func(src audio.Source, cfg analysis.Config) (Graph, error)

// NewAnalysisGraph is the GraphFactory backed by analysis.NewGraph.
func NewAnalysisGraph(src audio.Source, cfg analysis.Config) (Graph, error) {
	g, err := analysis.NewGraph(src, cfg)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// session is one live capture: the source, its analysis graph and the two
// sample buffers the renderers read each frame.
type session struct {
	source audio.Source
	graph  Graph
	node   analysis.Node

	frequency  []float32 // Decibels, one per bin.
	timeDomain []float32 // Amplitudes in [-1, 1].
}

// openSession acquires an audio-only source and builds a running graph on
// it. On failure everything acquired so far is released and the cause is
// returned unwrapped so its message can be shown as is.
func openSession(ctx context.Context, capturer audio.Capturer, newGraph GraphFactory, cfg analysis.Config) (*session, error) {
	src, err := capturer.RequestCapture(ctx, audio.Constraints{Audio: true, Video: false})
	if err != nil {
		return nil, err
	}
	if src == nil || len(src.Tracks()) == 0 {
		audio.StopTracks(src)
		return nil, fmt.Errorf("%w: no audio track", audio.ErrPermissionDeniedOrUnavailable)
	}

	s := &session{source: src}
	s.graph, err = newGraph(src, cfg)
	if err != nil {
		s.close()
		return nil, err
	}
	if err := s.graph.Resume(); err != nil {
		s.close()
		return nil, err
	}

	s.node = s.graph.Analyser()
	s.frequency = make([]float32, s.node.FrequencyBinCount())
	s.timeDomain = make([]float32, s.node.FFTSize())
	return s, nil
}

// close stops the source's tracks, then closes the graph. Graph failures are
// logged and dropped. Safe to call more than once.
func (s *session) close() {
	audio.StopTracks(s.source)

	if s.graph == nil {
		return
	}
	if err := s.graph.Close(); err != nil && !errors.Is(err, analysis.ErrGraphClosed) {
		log.Warnf("Controller: failed to close analysis graph: %v", err)
	} else if err != nil {
		log.Debugf("Controller: analysis graph already closed")
	}
}

// sample pulls fresh snapshots into the session buffers.
func (s *session) sample() {
	s.node.FloatFrequencyData(s.frequency)
	s.node.FloatTimeDomainData(s.timeDomain)
}
