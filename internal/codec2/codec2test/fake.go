// Package codec2test provides an in-memory component store for tests.
package codec2test

import (
	"context"
	"fmt"
	"sync"

	"github.com/conn-castle/c2-harness/internal/codec2"
)

// Store is a fake Connector. Components lists what the store advertises;
// Statuses overrides the creation status per name (default OK for listed
// components, NotFound otherwise); Names overrides the name a created handle
// reports.
type Store struct {
	Instance   string
	Components []codec2.Traits
	Statuses   map[string]codec2.Status
	Names      map[string]string
	// ListErr, when set, fails ListComponents.
	ListErr error
	// ConnectErr, when set, fails Connect.
	ConnectErr error

	mu       sync.Mutex
	created  []string
	connects int
}

// NewStore returns a Store on instance "default" advertising names.
func NewStore(names ...string) *Store {
	s := &Store{Instance: "default"}
	for _, name := range names {
		s.Components = append(s.Components, codec2.Traits{Name: name})
	}
	return s
}

// Connect implements codec2.Connector.
func (s *Store) Connect(_ context.Context, instance string) (codec2.Client, error) {
	s.mu.Lock()
	s.connects++
	s.mu.Unlock()
	if s.ConnectErr != nil {
		return nil, s.ConnectErr
	}
	if instance != s.Instance {
		return nil, fmt.Errorf("%w: %s", codec2.ErrUnavailable, instance)
	}
	return &client{store: s}, nil
}

// Connects returns how many times Connect was called.
func (s *Store) Connects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects
}

// Created returns the names passed to create calls, in order.
func (s *Store) Created() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.created...)
}

func (s *Store) create(name string) (codec2.Status, string) {
	s.mu.Lock()
	s.created = append(s.created, name)
	s.mu.Unlock()
	status, ok := s.Statuses[name]
	if !ok {
		status = codec2.NotFound
		for _, c := range s.Components {
			if c.Name == name {
				status = codec2.OK
				break
			}
		}
	}
	if status != codec2.OK {
		return status, ""
	}
	if reported, ok := s.Names[name]; ok {
		return status, reported
	}
	return status, name
}

type client struct {
	store *Store
}

func (c *client) ListComponents(context.Context) ([]codec2.Traits, error) {
	if c.store.ListErr != nil {
		return nil, c.store.ListErr
	}
	return append([]codec2.Traits(nil), c.store.Components...), nil
}

func (c *client) CreateComponent(_ context.Context, name string) (codec2.Status, *codec2.Component, error) {
	status, reported := c.store.create(name)
	if status != codec2.OK {
		return status, nil, nil
	}
	return status, codec2.NewComponent(reported), nil
}

func (c *client) CreateInterface(_ context.Context, name string) (codec2.Status, *codec2.Interface, error) {
	status, reported := c.store.create(name)
	if status != codec2.OK {
		return status, nil, nil
	}
	return status, codec2.NewInterface(reported), nil
}
