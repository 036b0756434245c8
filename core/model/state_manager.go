// Package model provides state management for estimation models.
package model

import (
	"fmt"
	"sync"
)

// StateManager manages the lifecycle state of a model in a thread-safe manner.
// It replaces the BaseEstimator embedding pattern with composition and tracks
// the full state machine: a model starts NotFitted, passes through Fitting,
// and ends either Fitted or Failed. A Failed model keeps its error state
// until the next BeginFit.
type StateManager struct {
	state EstimatorState
	mu    sync.RWMutex

	// Optional metadata recorded at fit time.
	NFeatures int
	NSamples  int
}

// NewStateManager returns a manager in the NotFitted state.
func NewStateManager() *StateManager {
	return &StateManager{
		state: NotFitted,
	}
}

// State returns the current lifecycle state.
func (s *StateManager) State() EstimatorState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsFitted returns whether the model has been fitted successfully.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == Fitted
}

// BeginFit transitions the model into the Fitting state.
// Fitting again from NotFitted, Fitted or Failed is allowed (refitting
// replaces previous results); a concurrent second fit is not.
func (s *StateManager) BeginFit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Fitting {
		return fmt.Errorf("model is already being fitted")
	}
	s.state = Fitting
	return nil
}

// CompleteFit marks the model as fitted.
func (s *StateManager) CompleteFit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Fitted
}

// FailFit marks the fit as failed. Predictions and inference remain
// unavailable until a later fit succeeds.
func (s *StateManager) FailFit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Failed
}

// SetFitted marks the model as fitted without going through BeginFit.
// Kept for learners whose Fit is a single synchronous call.
func (s *StateManager) SetFitted() {
	s.CompleteFit()
}

// Reset resets the model to the initial state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = NotFitted
	s.NFeatures = 0
	s.NSamples = 0
}

// SetDimensions records the shape of the training data.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NFeatures = nFeatures
	s.NSamples = nSamples
}

// GetDimensions returns the shape recorded by SetDimensions.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NFeatures, s.NSamples
}

// RequireFitted fails unless the model reached the Fitted state.
func (s *StateManager) RequireFitted() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Fitted {
		return fmt.Errorf("model has not been fitted yet (state: %s). Call Fit() first", s.state)
	}
	return nil
}
